package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

type SetGlobalEnabledInput struct {
	Enabled bool
}

// SetGlobalEnabled flips the system-wide OTP switch and drops the cached
// copy so the change is visible on the next resolution.
func (s *Usecase) SetGlobalEnabled(ctx context.Context, in SetGlobalEnabledInput) error {
	ctx, span := s.startSpan(ctx, "SetGlobalEnabled")
	defer span.End()

	if err := s.repoDB.UpsertGlobalSetting(ctx, in.Enabled, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert global setting", "enabled", in.Enabled, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoCache.DeleteGlobalSetting(ctx); err != nil {
		slog.WarnContext(ctx, "failed to invalidate global setting cache", "error", err)
	}

	return nil
}

type SetUserOverrideInput struct {
	UserID int64 `validate:"required,gt=0"`
	// Enabled is the forced decision; nil clears the override.
	Enabled *bool
}

// SetUserOverride records, replaces, or clears an admin decision on a
// single user. Superadmins cannot be targeted.
func (s *Usecase) SetUserOverride(ctx context.Context, in SetUserOverrideInput) error {
	ctx, span := s.startSpan(ctx, "SetUserOverride")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.ensureNotSuperadmin(ctx, in.UserID); err != nil {
		return err
	}

	if err := s.repoDB.SetUserAdminOverride(ctx, in.UserID, in.Enabled); err != nil {
		slog.ErrorContext(ctx, "failed to repo set user admin override", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

type SetUserPersonalToggleInput struct {
	UserID  int64 `validate:"required,gt=0"`
	Enabled bool
}

// SetUserPersonalToggle updates the user's own OTP preference.
func (s *Usecase) SetUserPersonalToggle(ctx context.Context, in SetUserPersonalToggleInput) error {
	ctx, span := s.startSpan(ctx, "SetUserPersonalToggle")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.ensureNotSuperadmin(ctx, in.UserID); err != nil {
		return err
	}

	if err := s.repoDB.SetUserPersonalToggle(ctx, in.UserID, in.Enabled); err != nil {
		slog.ErrorContext(ctx, "failed to repo set user personal toggle", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) ensureNotSuperadmin(ctx context.Context, userID int64) error {
	profile, err := s.loadProfile(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp setting change for unknown user", "user_id", userID)
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		return err
	}

	if profile.Role == entity.RoleSuperadmin {
		slog.WarnContext(ctx, "otp setting change targeted a superadmin", "user_id", userID)
		return goerror.NewBusiness("Superadmin accounts cannot be targeted", goerror.CodeForbidden)
	}

	return nil
}
