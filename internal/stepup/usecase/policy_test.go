package usecase

import (
	"testing"

	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

func TestRequiresOTP(t *testing.T) {
	cases := []struct {
		name    string
		profile entity.UserOTPProfile
		global  entity.GlobalSetting
		want    bool
	}{
		{
			name:    "SuperadminAlwaysExempt",
			profile: entity.UserOTPProfile{Role: entity.RoleSuperadmin, PersonalToggle: true, AdminOverride: boolPtr(true)},
			global:  entity.GlobalSetting{OTPEnabled: true},
			want:    false,
		},
		{
			name:    "GlobalKillSwitchWinsOverOverride",
			profile: entity.UserOTPProfile{Role: entity.RoleUser, AdminOverride: boolPtr(true)},
			global:  entity.GlobalSetting{OTPEnabled: false},
			want:    false,
		},
		{
			name:    "OverrideEnabledBeatsToggleOff",
			profile: entity.UserOTPProfile{Role: entity.RoleUser, PersonalToggle: false, AdminOverride: boolPtr(true)},
			global:  entity.GlobalSetting{OTPEnabled: true},
			want:    true,
		},
		{
			name:    "OverrideDisabledBeatsToggleOn",
			profile: entity.UserOTPProfile{Role: entity.RoleUser, PersonalToggle: true, AdminOverride: boolPtr(false)},
			global:  entity.GlobalSetting{OTPEnabled: true},
			want:    false,
		},
		{
			name:    "NoOverrideFallsBackToToggleOn",
			profile: entity.UserOTPProfile{Role: entity.RoleUser, PersonalToggle: true},
			global:  entity.GlobalSetting{OTPEnabled: true},
			want:    true,
		},
		{
			name:    "NoOverrideFallsBackToToggleOff",
			profile: entity.UserOTPProfile{Role: entity.RoleAdmin, PersonalToggle: false},
			global:  entity.GlobalSetting{OTPEnabled: true},
			want:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RequiresOTP(tc.profile, tc.global); got != tc.want {
				t.Fatalf("RequiresOTP() = %v, want %v", got, tc.want)
			}
		})
	}
}
