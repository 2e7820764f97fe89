package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/stepup/internal/pkg/idempotency"
)

type ConsumeOTPChallengeIssuedInput struct {
	ChallengeID    int64  `validate:"required,gt=0"`
	UserID         int64  `validate:"required,gt=0"`
	Email          string `validate:"required,email"`
	Code           string `validate:"required,otpcode"`
	ExpiresMinutes int    `validate:"required,gt=0"`
}

// ConsumeOTPChallengeIssued emails the code for a freshly issued
// challenge. Redelivered messages for the same challenge are dropped
// through the idempotency tracker so a user never receives the code twice.
func (s *Usecase) ConsumeOTPChallengeIssued(ctx context.Context, in ConsumeOTPChallengeIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPChallengeIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	key := "otp_challenge_issued:" + strconv.FormatInt(in.ChallengeID, 10)
	err := s.idemp.Exec(ctx, key, func(execCtx context.Context) error {
		s.sendOTPEmail(execCtx, in)
		return nil
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "otp email already handled", "challenge_id", in.ChallengeID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to run idempotent otp email", "challenge_id", in.ChallengeID, "error", err)
		return err
	}

	return nil
}
