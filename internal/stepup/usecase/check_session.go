package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
)

type CheckSessionInput struct {
	UserID int64 `validate:"required,gt=0"`
	// Token optionally scopes the check to a single session token.
	Token string
}

type CheckSessionOutput struct {
	Verified bool
}

// CheckSession reports whether the user currently holds a live elevated
// session. Expired rows are ignored, never deleted.
func (s *Usecase) CheckSession(ctx context.Context, in CheckSessionInput) (*CheckSessionOutput, error) {
	ctx, span := s.startSpan(ctx, "CheckSession")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var tokenHash string
	if in.Token != "" {
		hashed, err := s.hmac.Hash(in.Token)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash session token", "user_id", in.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
		tokenHash = string(hashed)
	}

	live, err := s.repoDB.HasLiveSession(ctx, in.UserID, tokenHash, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check live session", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CheckSessionOutput{Verified: live}, nil
}
