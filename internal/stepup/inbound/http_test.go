package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/clock"
	"github.com/shandysiswandi/stepup/internal/pkg/config"
	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/pkg/instrument"
	"github.com/shandysiswandi/stepup/internal/pkg/jwt"
	"github.com/shandysiswandi/stepup/internal/pkg/router"
	"github.com/shandysiswandi/stepup/internal/pkg/uid"
	"github.com/shandysiswandi/stepup/internal/stepup/usecase"
)

type fakeUC struct {
	requires    bool
	verified    bool
	issueOut    *usecase.IssueChallengeOutput
	verifyOut   *usecase.VerifyChallengeOutput
	verifyErr   error
	adminCalled string

	lastCheckSession usecase.CheckSessionInput
}

func (f *fakeUC) ResolveRequirement(_ context.Context, _ usecase.ResolveRequirementInput) (*usecase.ResolveRequirementOutput, error) {
	return &usecase.ResolveRequirementOutput{RequiresOTP: f.requires}, nil
}

func (f *fakeUC) IssueChallenge(_ context.Context, _ usecase.IssueChallengeInput) (*usecase.IssueChallengeOutput, error) {
	return f.issueOut, nil
}

func (f *fakeUC) VerifyChallenge(_ context.Context, _ usecase.VerifyChallengeInput) (*usecase.VerifyChallengeOutput, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyOut, nil
}

func (f *fakeUC) CheckSession(_ context.Context, in usecase.CheckSessionInput) (*usecase.CheckSessionOutput, error) {
	f.lastCheckSession = in
	return &usecase.CheckSessionOutput{Verified: f.verified}, nil
}

func (f *fakeUC) SetGlobalEnabled(_ context.Context, _ usecase.SetGlobalEnabledInput) error {
	f.adminCalled = "global"
	return nil
}

func (f *fakeUC) SetUserOverride(_ context.Context, _ usecase.SetUserOverrideInput) error {
	f.adminCalled = "override"
	return nil
}

func (f *fakeUC) SetUserPersonalToggle(_ context.Context, _ usecase.SetUserPersonalToggleInput) error {
	f.adminCalled = "toggle"
	return nil
}

func newTestServer(t *testing.T, uc *fakeUC) (*router.Router, jwt.JWT) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: \"\"\n"))
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	tok, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(strings.Repeat("s", 64)),
		Issuer:     "test",
		Audiences:  []string{"test"},
		TTLMinutes: time.Hour,
		Clock:      clock.New(),
		UUID:       uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("failed to init jwt: %v", err)
	}

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		JWT:        tok,
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc)

	return r, tok
}

func doJSON(t *testing.T, r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStepupEndpoints(t *testing.T) {
	t.Run("ResolveRequirement", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{requires: true}
		r, _ := newTestServer(t, uc)

		// Act
		rec := doJSON(t, r, http.MethodPost, "/api/v1/stepup/requirement", `{"user_id":"7"}`, "")

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Data ResolveRequirementResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Data.RequiresOTP {
			t.Fatalf("expected requires_otp true")
		}
	})

	t.Run("IssueChallengeEnvelope", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{issueOut: &usecase.IssueChallengeOutput{ExpiresInMinutes: 5, RemainingRequests: 4}}
		r, _ := newTestServer(t, uc)

		// Act
		rec := doJSON(t, r, http.MethodPost, "/api/v1/stepup/challenges", `{"user_id":"7"}`, "")

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Message string                 `json:"message"`
			Data    IssueChallengeResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Message != "If the account exists, a verification code has been sent." {
			t.Fatalf("unexpected message %q", resp.Message)
		}
		if resp.Data.ExpiresInMinutes != 5 || resp.Data.RemainingRequests != 4 {
			t.Fatalf("unexpected data %+v", resp.Data)
		}
	})

	t.Run("VerifyChallengeFailureIs401", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{verifyErr: goerror.NewBusiness("Invalid or expired code", goerror.CodeUnauthorized)}
		r, _ := newTestServer(t, uc)

		// Act
		rec := doJSON(t, r, http.MethodPost, "/api/v1/stepup/verifications", `{"user_id":"7","code":"654321"}`, "")

		// Assert
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Message != "Invalid or expired code" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
	})

	t.Run("CheckSessionWithTokenQuery", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{verified: true}
		r, _ := newTestServer(t, uc)

		// Act
		rec := doJSON(t, r, http.MethodGet, "/api/v1/stepup/sessions/7?token=abc", "", "")

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if uc.lastCheckSession.UserID != 7 || uc.lastCheckSession.Token != "abc" {
			t.Fatalf("unexpected input %+v", uc.lastCheckSession)
		}
	})

	t.Run("AdminRequiresToken", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{}
		r, _ := newTestServer(t, uc)

		// Act
		rec := doJSON(t, r, http.MethodPut, "/api/v1/admin/stepup/global", `{"enabled":false}`, "")

		// Assert
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
		if uc.adminCalled != "" {
			t.Fatalf("handler must not run without a token")
		}
	})

	t.Run("AdminWithToken", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{}
		r, tok := newTestServer(t, uc)
		bearer, err := tok.Generate(1, "admin@example.com")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		// Act
		rec := doJSON(t, r, http.MethodPut, "/api/v1/admin/stepup/global", `{"enabled":false}`, bearer)

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if uc.adminCalled != "global" {
			t.Fatalf("expected the global handler to run, got %q", uc.adminCalled)
		}
	})

	t.Run("MalformedBodyIsRejected", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{}
		r, _ := newTestServer(t, uc)

		// Act
		rec := doJSON(t, r, http.MethodPost, "/api/v1/stepup/requirement", `{"user_id":"7","extra":true}`, "")

		// Assert
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown fields, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
