package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

func TestResolveRequirement(t *testing.T) {
	t.Run("KnownUserWithToggleOn", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Role: entity.RoleUser, PersonalToggle: true}
		db.global = &entity.GlobalSetting{OTPEnabled: true}
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.ResolveRequirement(context.Background(), ResolveRequirementInput{UserID: 7})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.RequiresOTP {
			t.Fatalf("expected OTP to be required")
		}
	})

	t.Run("UnknownUserResolvesToFalse", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.ResolveRequirement(context.Background(), ResolveRequirementInput{UserID: 404})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.RequiresOTP {
			t.Fatalf("unknown user must not require OTP")
		}
	})

	t.Run("MissingGlobalRowDisablesEnforcement", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Role: entity.RoleUser, PersonalToggle: true}
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.ResolveRequirement(context.Background(), ResolveRequirementInput{UserID: 7})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.RequiresOTP {
			t.Fatalf("a missing global setting row must not require OTP")
		}
	})

	t.Run("GlobalSettingServedFromCache", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Role: entity.RoleUser, PersonalToggle: true}
		env := newTestEnv(t, db, "")
		env.cache.global = &entity.GlobalSetting{OTPEnabled: false}

		// Act
		out, err := env.uc.ResolveRequirement(context.Background(), ResolveRequirementInput{UserID: 7})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.RequiresOTP {
			t.Fatalf("cached kill switch must win")
		}
		if db.calls["GetGlobalSetting"] != 0 {
			t.Fatalf("cache hit must not reach the database")
		}
	})

	t.Run("CacheMissFillsCache", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Role: entity.RoleUser}
		db.global = &entity.GlobalSetting{OTPEnabled: true}
		env := newTestEnv(t, db, "")

		// Act
		_, err := env.uc.ResolveRequirement(context.Background(), ResolveRequirementInput{UserID: 7})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if env.cache.sets != 1 {
			t.Fatalf("cache miss must be followed by a cache fill, sets=%d", env.cache.sets)
		}
	})

	t.Run("ProfileStoreFailure", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profileErr = errors.New("connection refused")
		env := newTestEnv(t, db, "")

		// Act
		_, err := env.uc.ResolveRequirement(context.Background(), ResolveRequirementInput{UserID: 7})

		// Assert
		if err == nil {
			t.Fatalf("expected error")
		}
	})
}
