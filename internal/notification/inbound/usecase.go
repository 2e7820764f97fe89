package inbound

import (
	"context"

	"github.com/shandysiswandi/stepup/internal/notification/usecase"
)

type uc interface {
	ConsumeOTPChallengeIssued(ctx context.Context, in usecase.ConsumeOTPChallengeIssuedInput) error
}
