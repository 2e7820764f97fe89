package inbound

import (
	"context"

	"github.com/shandysiswandi/stepup/internal/pkg/router"
	"github.com/shandysiswandi/stepup/internal/stepup/usecase"
)

type uc interface {
	ResolveRequirement(ctx context.Context, in usecase.ResolveRequirementInput) (*usecase.ResolveRequirementOutput, error)
	IssueChallenge(ctx context.Context, in usecase.IssueChallengeInput) (*usecase.IssueChallengeOutput, error)
	VerifyChallenge(ctx context.Context, in usecase.VerifyChallengeInput) (*usecase.VerifyChallengeOutput, error)
	CheckSession(ctx context.Context, in usecase.CheckSessionInput) (*usecase.CheckSessionOutput, error)

	SetGlobalEnabled(ctx context.Context, in usecase.SetGlobalEnabledInput) error
	SetUserOverride(ctx context.Context, in usecase.SetUserOverrideInput) error
	SetUserPersonalToggle(ctx context.Context, in usecase.SetUserPersonalToggleInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Step-up flow
	r.POST("/api/v1/stepup/requirement", end.ResolveRequirement)
	r.POST("/api/v1/stepup/challenges", end.IssueChallenge)
	r.POST("/api/v1/stepup/verifications", end.VerifyChallenge)
	r.GET("/api/v1/stepup/sessions/:userID", end.CheckSession)

	// Administration (need authenticated)
	r.PUT("/api/v1/admin/stepup/global", end.SetGlobalEnabled)
	r.PUT("/api/v1/admin/stepup/users/:userID/override", end.SetUserOverride)
	r.PUT("/api/v1/admin/stepup/users/:userID/toggle", end.SetUserPersonalToggle)
}
