package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/clock"
	"github.com/shandysiswandi/stepup/internal/pkg/config"
	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/pkg/goroutine"
	"github.com/shandysiswandi/stepup/internal/pkg/hash"
	"github.com/shandysiswandi/stepup/internal/pkg/instrument"
	"github.com/shandysiswandi/stepup/internal/pkg/uid"
	"github.com/shandysiswandi/stepup/internal/pkg/validator"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
	"go.opentelemetry.io/otel/trace"
)

type OTPChallengeIssuedEvent struct {
	ChallengeID    int64
	UserID         int64
	Email          string
	Code           string
	ExpiresMinutes int
}

type repoMessaging interface {
	PublishOTPChallengeIssued(ctx context.Context, msg OTPChallengeIssuedEvent) error
}

type repoDB interface {
	GetUserOTPProfile(ctx context.Context, userID int64) (*entity.UserOTPProfile, error)
	GetGlobalSetting(ctx context.Context) (*entity.GlobalSetting, error)
	GetPendingChallenge(ctx context.Context, userID int64) (*entity.Challenge, error)
	HasLiveSession(ctx context.Context, userID int64, tokenHash string, now time.Time) (bool, error)

	ConsumeRateLimit(ctx context.Context, userID int64, windowStart time.Time, ceiling int32) (int32, error)
	ReplacePendingChallenge(ctx context.Context, ch entity.Challenge) error
	CreateVerifiedSession(ctx context.Context, vs entity.VerifiedSession) error

	MarkChallengeUsed(ctx context.Context, challengeID int64, verifiedAt time.Time) (bool, error)
	ExpireChallenge(ctx context.Context, challengeID int64) (bool, error)
	IncrementChallengeAttempts(ctx context.Context, challengeID int64) (int32, error)

	UpsertGlobalSetting(ctx context.Context, enabled bool, now time.Time) error
	SetUserAdminOverride(ctx context.Context, userID int64, enabled *bool) error
	SetUserPersonalToggle(ctx context.Context, userID int64, enabled bool) error
}

type repoCache interface {
	GetGlobalSetting(ctx context.Context) (*entity.GlobalSetting, error)
	SetGlobalSetting(ctx context.Context, gs entity.GlobalSetting, ttl time.Duration) error
	DeleteGlobalSetting(ctx context.Context) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	uid           uid.NumberID
	oid           uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	UID           uid.NumberID
	OID           uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		oid:           dep.OID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("stepup.usecase").Start(ctx, name)
}

const (
	defaultTTLMinutes   = 5
	minTTLMinutes       = 5
	maxTTLMinutes       = 10
	defaultRateCeiling  = 5
	defaultMaxAttempts  = 5
	defaultSessionHours = 24
)

// otpTTLMinutes reads the configured challenge lifetime, clamped to the
// allowed five to ten minute range.
func (s *Usecase) otpTTLMinutes() int {
	ttl := int(s.cfg.GetInt32("modules.stepup.otp_ttl_minutes"))
	if ttl == 0 {
		return defaultTTLMinutes
	}
	if ttl < minTTLMinutes {
		return minTTLMinutes
	}
	if ttl > maxTTLMinutes {
		return maxTTLMinutes
	}
	return ttl
}

func (s *Usecase) rateCeiling() int32 {
	ceiling := s.cfg.GetInt32("modules.stepup.rate_limit_per_hour")
	if ceiling <= 0 {
		return defaultRateCeiling
	}
	return ceiling
}

func (s *Usecase) maxAttempts() int32 {
	limit := s.cfg.GetInt32("modules.stepup.max_attempts")
	if limit <= 0 {
		return defaultMaxAttempts
	}
	return limit
}

func (s *Usecase) sessionTTL() time.Duration {
	ttl := s.cfg.GetHour("modules.stepup.session_ttl_hours")
	if ttl <= 0 {
		return defaultSessionHours * time.Hour
	}
	return ttl
}

// generateOTPCode draws a uniformly random six-digit code. All values in
// [100000, 999999] are equally likely.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// isValidOTPCode reports whether code is exactly six ASCII digits.
func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// getGlobalSetting reads the system switch through the cache, falling back
// to the database on a miss. A missing row means OTP enforcement is off;
// the initial migration seeds the row enabled.
func (s *Usecase) getGlobalSetting(ctx context.Context) (*entity.GlobalSetting, error) {
	gs, err := s.repoCache.GetGlobalSetting(ctx)
	if err == nil {
		return gs, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "failed to read global setting cache", "error", err)
	}

	gs, err = s.repoDB.GetGlobalSetting(ctx)
	if errors.Is(err, goerror.ErrNotFound) {
		gs = &entity.GlobalSetting{OTPEnabled: false}
	} else if err != nil {
		slog.ErrorContext(ctx, "failed to repo get global setting", "error", err)
		return nil, goerror.NewServer(err)
	}

	cacheTTL := s.cfg.GetSecond("modules.stepup.global_cache_ttl_seconds")
	if cacheTTL > 0 {
		if cErr := s.repoCache.SetGlobalSetting(ctx, *gs, cacheTTL); cErr != nil {
			slog.WarnContext(ctx, "failed to write global setting cache", "error", cErr)
		}
	}

	return gs, nil
}

func (s *Usecase) loadProfile(ctx context.Context, userID int64) (*entity.UserOTPProfile, error) {
	profile, err := s.repoDB.GetUserOTPProfile(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user otp profile", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return profile, nil
}
