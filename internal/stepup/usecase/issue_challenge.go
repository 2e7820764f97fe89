package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

type IssueChallengeInput struct {
	UserID int64 `validate:"required,gt=0"`
}

type IssueChallengeOutput struct {
	ExpiresInMinutes  int
	RemainingRequests int32
}

// IssueChallenge creates a fresh OTP challenge for the user and hands the
// code to the notification pipeline. The hourly rate limit is consumed
// before the user lookup so probing for accounts burns quota and gets the
// same response either way.
func (s *Usecase) IssueChallenge(ctx context.Context, in IssueChallengeInput) (*IssueChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueChallenge")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	now := s.clock.Now()
	ceiling := s.rateCeiling()
	ttlMinutes := s.otpTTLMinutes()

	count, err := s.consumeRateLimit(ctx, in.UserID, now, ceiling)
	if err != nil {
		return nil, err
	}

	out := &IssueChallengeOutput{
		ExpiresInMinutes:  ttlMinutes,
		RemainingRequests: ceiling - count,
	}

	profile, err := s.loadProfile(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp challenge requested for unknown user", "user_id", in.UserID)
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	code, err := generateOTPCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ch := entity.Challenge{
		ID:        s.uid.Generate(),
		UserID:    in.UserID,
		CodeHash:  string(codeHash),
		Status:    entity.ChallengeStatusPending,
		ExpiresAt: now.Add(time.Duration(ttlMinutes) * time.Minute),
		CreatedAt: now,
	}

	// A concurrent issue for the same user can slip between the expire and
	// the insert and lose on the pending unique index. One retry re-expires
	// the winner's row and inserts cleanly.
	rErr := s.repoDB.ReplacePendingChallenge(ctx, ch)
	if errors.Is(rErr, goerror.ErrConflict) {
		slog.WarnContext(ctx, "pending otp challenge collided with concurrent issue", "user_id", in.UserID)
		rErr = s.repoDB.ReplacePendingChallenge(ctx, ch)
	}
	if rErr != nil {
		slog.ErrorContext(ctx, "failed to repo replace pending challenge", "user_id", in.UserID, "error", rErr)
		return nil, goerror.NewServer(rErr)
	}

	// Delivery is best effort. The challenge stays stored even when the
	// broker is down, and the caller never sees a delivery failure.
	s.goroutine.Go(ctx, func(gCtx context.Context) error {
		if pErr := s.repoMessaging.PublishOTPChallengeIssued(gCtx, OTPChallengeIssuedEvent{
			ChallengeID:    ch.ID,
			UserID:         profile.UserID,
			Email:          profile.Email,
			Code:           code,
			ExpiresMinutes: ttlMinutes,
		}); pErr != nil {
			slog.ErrorContext(gCtx, "failed to publish otp challenge issued", "user_id", profile.UserID, "error", pErr)
		}
		return nil
	})

	return out, nil
}

// consumeRateLimit takes one slot from the user's current hour bucket.
// A denied bucket surfaces as a 429 business error. When the store itself
// fails, behavior follows the fail_open config flag.
func (s *Usecase) consumeRateLimit(ctx context.Context, userID int64, now time.Time, ceiling int32) (int32, error) {
	windowStart := now.Truncate(time.Hour)

	count, err := s.repoDB.ConsumeRateLimit(ctx, userID, windowStart, ceiling)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp issuance rate limited", "user_id", userID, "window_start", windowStart)
		return 0, goerror.NewBusiness("Too many OTP requests, please try again next hour", goerror.CodeTooManyRequest)
	}
	if err != nil {
		if s.cfg.GetBool("modules.stepup.rate_limit_fail_closed") {
			slog.ErrorContext(ctx, "rate limit store unavailable, failing closed", "user_id", userID, "error", err)
			return 0, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "rate limit store unavailable, failing open", "user_id", userID, "error", err)
		return ceiling, nil
	}

	return count, nil
}
