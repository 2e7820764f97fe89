package inbound

import "time"

type ResolveRequirementRequest struct {
	UserID int64 `json:"user_id,string"`
}

type ResolveRequirementResponse struct {
	RequiresOTP bool `json:"requires_otp"`
}

type IssueChallengeRequest struct {
	UserID int64 `json:"user_id,string"`
}

type IssueChallengeResponse struct {
	ExpiresInMinutes  int   `json:"expires_in_minutes"`
	RemainingRequests int32 `json:"remaining_requests"`
}

func (IssueChallengeResponse) Message() string {
	return "If the account exists, a verification code has been sent."
}

type VerifyChallengeRequest struct {
	UserID int64  `json:"user_id,string"`
	Code   string `json:"code"`
}

type VerifyChallengeResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type CheckSessionResponse struct {
	Verified bool `json:"verified"`
}

type SetGlobalEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type SetGlobalEnabledResponse struct{}

func (SetGlobalEnabledResponse) Message() string {
	return "Global OTP setting has been updated."
}

type SetUserOverrideRequest struct {
	// Enabled forces the OTP decision for the user; null clears the override.
	Enabled *bool `json:"enabled"`
}

type SetUserOverrideResponse struct{}

func (SetUserOverrideResponse) Message() string {
	return "User OTP override has been updated."
}

type SetUserPersonalToggleRequest struct {
	Enabled bool `json:"enabled"`
}

type SetUserPersonalToggleResponse struct{}

func (SetUserPersonalToggleResponse) Message() string {
	return "User OTP preference has been updated."
}
