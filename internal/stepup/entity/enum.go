package entity

// Role classifies an account for the step-up policy.
type Role int16

const (
	// RoleUnknown is mean role is not known / not set.
	RoleUnknown Role = 0

	// RoleUser is a regular dashboard account.
	RoleUser Role = 1

	// RoleAdmin can manage other accounts but is still subject to OTP.
	RoleAdmin Role = 2

	// RoleSuperadmin is exempt from OTP and cannot be targeted by
	// admin override operations.
	RoleSuperadmin Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAdmin:
		return "Admin"
	case RoleSuperadmin:
		return "Superadmin"
	default:
		return "Unknown"
	}
}

func RoleFromString(s string) Role {
	switch s {
	case "User", "user":
		return RoleUser
	case "Admin", "admin":
		return RoleAdmin
	case "Superadmin", "superadmin":
		return RoleSuperadmin
	default:
		return RoleUnknown
	}
}

// ChallengeStatus is the lifecycle state of an OTP challenge.
type ChallengeStatus int16

const (
	// ChallengeStatusUnknown is mean status is not known / not set.
	ChallengeStatusUnknown ChallengeStatus = 0

	// ChallengeStatusPending mean the code was issued and may still be verified.
	ChallengeStatusPending ChallengeStatus = 1

	// ChallengeStatusUsed mean the code was verified successfully.
	ChallengeStatusUsed ChallengeStatus = 2

	// ChallengeStatusExpired mean the code lapsed, was superseded, or ran
	// out of attempts.
	ChallengeStatusExpired ChallengeStatus = 3
)

func (cs ChallengeStatus) String() string {
	switch cs {
	case ChallengeStatusPending:
		return "Pending"
	case ChallengeStatusUsed:
		return "Used"
	case ChallengeStatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}
