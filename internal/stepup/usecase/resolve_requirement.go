package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
)

type ResolveRequirementInput struct {
	UserID int64 `validate:"required,gt=0"`
}

type ResolveRequirementOutput struct {
	RequiresOTP bool
}

// ResolveRequirement answers whether the user must complete an OTP
// challenge. Unknown users resolve to false so the endpoint does not leak
// which accounts exist.
func (s *Usecase) ResolveRequirement(ctx context.Context, in ResolveRequirementInput) (*ResolveRequirementOutput, error) {
	ctx, span := s.startSpan(ctx, "ResolveRequirement")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	profile, err := s.loadProfile(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp requirement resolved for unknown user", "user_id", in.UserID)
		return &ResolveRequirementOutput{RequiresOTP: false}, nil
	}
	if err != nil {
		return nil, err
	}

	global, err := s.getGlobalSetting(ctx)
	if err != nil {
		return nil, err
	}

	return &ResolveRequirementOutput{RequiresOTP: RequiresOTP(*profile, *global)}, nil
}
