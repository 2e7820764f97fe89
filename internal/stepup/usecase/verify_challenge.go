package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

type VerifyChallengeInput struct {
	UserID int64  `validate:"required,gt=0"`
	Code   string `validate:"required"`
}

type VerifyChallengeOutput struct {
	SessionToken string
	ExpiresAt    time.Time
}

func errInvalidCode() error {
	return goerror.NewBusiness("Invalid or expired code", goerror.CodeUnauthorized)
}

// VerifyChallenge checks a submitted code against the user's pending
// challenge and, on success, grants an elevated session. A malformed code
// is a plain validation error; every other failure mode returns the same
// message so callers cannot distinguish a missing challenge from a wrong
// code.
func (s *Usecase) VerifyChallenge(ctx context.Context, in VerifyChallengeInput) (*VerifyChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyChallenge")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	// Malformed codes are rejected before any store access.
	if !isValidOTPCode(in.Code) {
		slog.WarnContext(ctx, "otp code has invalid format", "user_id", in.UserID)
		return nil, goerror.NewInvalidFormat("Code must be exactly six digits")
	}

	ch, err := s.repoDB.GetPendingChallenge(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no pending otp challenge", "user_id", in.UserID)
		return nil, errInvalidCode()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get pending challenge", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	if !now.Before(ch.ExpiresAt) {
		if _, eErr := s.repoDB.ExpireChallenge(ctx, ch.ID); eErr != nil {
			slog.ErrorContext(ctx, "failed to expire lapsed challenge", "challenge_id", ch.ID, "error", eErr)
		}
		slog.WarnContext(ctx, "otp challenge expired", "user_id", in.UserID, "challenge_id", ch.ID)
		return nil, errInvalidCode()
	}

	if !s.hmac.Verify(ch.CodeHash, in.Code) {
		return nil, s.recordFailedAttempt(ctx, ch)
	}

	// The conditional transition loses when a concurrent re-issue already
	// superseded this challenge; a stale code must not verify.
	won, err := s.repoDB.MarkChallengeUsed(ctx, ch.ID, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark challenge used", "challenge_id", ch.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !won {
		slog.WarnContext(ctx, "otp challenge superseded during verification", "user_id", in.UserID, "challenge_id", ch.ID)
		return nil, errInvalidCode()
	}

	return s.grantSession(ctx, in.UserID, now)
}

func (s *Usecase) recordFailedAttempt(ctx context.Context, ch *entity.Challenge) error {
	attempts, err := s.repoDB.IncrementChallengeAttempts(ctx, ch.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to increment challenge attempts", "challenge_id", ch.ID, "error", err)
		return goerror.NewServer(err)
	}

	if attempts >= s.maxAttempts() {
		if _, eErr := s.repoDB.ExpireChallenge(ctx, ch.ID); eErr != nil {
			slog.ErrorContext(ctx, "failed to expire exhausted challenge", "challenge_id", ch.ID, "error", eErr)
		}
		slog.WarnContext(ctx, "otp challenge attempts exhausted", "user_id", ch.UserID, "challenge_id", ch.ID, "attempts", attempts)
		return errInvalidCode()
	}

	slog.WarnContext(ctx, "otp code mismatch", "user_id", ch.UserID, "challenge_id", ch.ID, "attempts", attempts)
	return errInvalidCode()
}

func (s *Usecase) grantSession(ctx context.Context, userID int64, now time.Time) (*VerifyChallengeOutput, error) {
	token := s.oid.Generate()
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash session token", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	vs := entity.VerifiedSession{
		ID:        s.uid.Generate(),
		UserID:    userID,
		TokenHash: string(tokenHash),
		ExpiresAt: now.Add(s.sessionTTL()),
		CreatedAt: now,
	}

	if err := s.repoDB.CreateVerifiedSession(ctx, vs); err != nil {
		slog.ErrorContext(ctx, "failed to repo create verified session", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyChallengeOutput{
		SessionToken: token,
		ExpiresAt:    vs.ExpiresAt,
	}, nil
}
