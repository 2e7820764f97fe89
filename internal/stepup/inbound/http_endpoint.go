package inbound

import (
	"github.com/shandysiswandi/stepup/internal/pkg/router"
	"github.com/shandysiswandi/stepup/internal/stepup/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the step-up OTP workflows.
type HTTPEndpoint struct {
	uc uc
}

// ResolveRequirement reports whether the user must complete an OTP
// challenge before a sensitive operation.
func (h *HTTPEndpoint) ResolveRequirement(r *router.Request) (any, error) {
	var req ResolveRequirementRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResolveRequirement(r.Context(), usecase.ResolveRequirementInput{
		UserID: req.UserID,
	})
	if err != nil {
		return nil, err
	}

	return ResolveRequirementResponse{RequiresOTP: resp.RequiresOTP}, nil
}

// IssueChallenge creates a new OTP challenge and triggers code delivery.
func (h *HTTPEndpoint) IssueChallenge(r *router.Request) (any, error) {
	var req IssueChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.IssueChallenge(r.Context(), usecase.IssueChallengeInput{
		UserID: req.UserID,
	})
	if err != nil {
		return nil, err
	}

	return IssueChallengeResponse{
		ExpiresInMinutes:  resp.ExpiresInMinutes,
		RemainingRequests: resp.RemainingRequests,
	}, nil
}

// VerifyChallenge validates a submitted code and returns the elevated
// session token on success.
func (h *HTTPEndpoint) VerifyChallenge(r *router.Request) (any, error) {
	var req VerifyChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyChallenge(r.Context(), usecase.VerifyChallengeInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyChallengeResponse{
		SessionToken: resp.SessionToken,
		ExpiresAt:    resp.ExpiresAt,
	}, nil
}

// CheckSession reports whether the user holds a live elevated session.
func (h *HTTPEndpoint) CheckSession(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userID")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.CheckSession(r.Context(), usecase.CheckSessionInput{
		UserID: userID,
		Token:  r.GetQuery("token"),
	})
	if err != nil {
		return nil, err
	}

	return CheckSessionResponse{Verified: resp.Verified}, nil
}

// SetGlobalEnabled flips the system-wide OTP switch.
func (h *HTTPEndpoint) SetGlobalEnabled(r *router.Request) (any, error) {
	var req SetGlobalEnabledRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SetGlobalEnabled(r.Context(), usecase.SetGlobalEnabledInput{
		Enabled: req.Enabled,
	}); err != nil {
		return nil, err
	}

	return SetGlobalEnabledResponse{}, nil
}

// SetUserOverride records or clears an admin OTP decision for a user.
func (h *HTTPEndpoint) SetUserOverride(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userID")
	if err != nil {
		return nil, err
	}

	var req SetUserOverrideRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SetUserOverride(r.Context(), usecase.SetUserOverrideInput{
		UserID:  userID,
		Enabled: req.Enabled,
	}); err != nil {
		return nil, err
	}

	return SetUserOverrideResponse{}, nil
}

// SetUserPersonalToggle updates a user's own OTP preference.
func (h *HTTPEndpoint) SetUserPersonalToggle(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userID")
	if err != nil {
		return nil, err
	}

	var req SetUserPersonalToggleRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SetUserPersonalToggle(r.Context(), usecase.SetUserPersonalToggleInput{
		UserID:  userID,
		Enabled: req.Enabled,
	}); err != nil {
		return nil, err
	}

	return SetUserPersonalToggleResponse{}, nil
}
