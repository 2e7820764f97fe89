package entity

import "time"

// UserOTPProfile is the slice of a user account that drives the
// step-up decision.
type UserOTPProfile struct {
	UserID         int64
	Email          string
	Role           Role
	PersonalToggle bool
	AdminOverride  *bool // nil when no admin decision is recorded
	UpdatedAt      time.Time
}

// GlobalSetting is the single system-wide switch for OTP enforcement.
type GlobalSetting struct {
	OTPEnabled bool
	UpdatedAt  time.Time
}

// Challenge is one issued OTP code. CodeHash holds the HMAC of the
// six-digit code; the plaintext never touches storage.
type Challenge struct {
	ID         int64
	UserID     int64
	CodeHash   string
	Status     ChallengeStatus
	Attempts   int32
	ExpiresAt  time.Time
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

// RateLimitWindow is one per-user issuance bucket, keyed by the
// hour-truncated window start.
type RateLimitWindow struct {
	UserID       int64
	WindowStart  time.Time
	RequestCount int32
}

// VerifiedSession is the elevated grant produced by a successful
// verification. TokenHash holds the HMAC of the opaque token.
type VerifiedSession struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
