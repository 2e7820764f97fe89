package usecase

import "github.com/shandysiswandi/stepup/internal/stepup/entity"

// RequiresOTP decides whether a user must pass an OTP challenge before a
// sensitive operation. Precedence, highest first:
//
//  1. superadmins are always exempt
//  2. the global kill switch disables OTP for everyone
//  3. a recorded admin override wins over the personal toggle
//  4. the personal toggle
func RequiresOTP(profile entity.UserOTPProfile, global entity.GlobalSetting) bool {
	if profile.Role == entity.RoleSuperadmin {
		return false
	}

	if !global.OTPEnabled {
		return false
	}

	if profile.AdminOverride != nil {
		return *profile.AdminOverride
	}

	return profile.PersonalToggle
}
