package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

func TestIssueChallenge(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Email: "user@example.com", Role: entity.RoleUser, PersonalToggle: true}
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})
		_ = env.goroutine.Wait()

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.ExpiresInMinutes != 5 {
			t.Fatalf("expected 5 minute ttl, got %d", out.ExpiresInMinutes)
		}
		if out.RemainingRequests != 4 {
			t.Fatalf("expected 4 remaining requests, got %d", out.RemainingRequests)
		}
		if db.calls["ReplacePendingChallenge"] != 1 {
			t.Fatalf("expected challenge to be stored once, got %d", db.calls["ReplacePendingChallenge"])
		}
		if db.pending == nil || db.pending.Status != entity.ChallengeStatusPending {
			t.Fatalf("expected a pending challenge in the store")
		}
		if !db.pending.ExpiresAt.Equal(testNow.Add(5 * time.Minute)) {
			t.Fatalf("unexpected challenge expiry %v", db.pending.ExpiresAt)
		}
		if len(env.messaging.published) != 1 {
			t.Fatalf("expected one published event, got %d", len(env.messaging.published))
		}
		msg := env.messaging.published[0]
		if msg.Email != "user@example.com" || !isValidOTPCode(msg.Code) || msg.ExpiresMinutes != 5 {
			t.Fatalf("unexpected published event %+v", msg)
		}
		if !env.hmac.Verify(db.pending.CodeHash, msg.Code) {
			t.Fatalf("stored hash does not match the published code")
		}
	})

	t.Run("RateLimited", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.rateCounts[testNow.Truncate(time.Hour)] = 5
		env := newTestEnv(t, db, "")

		// Act
		_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})

		// Assert
		var bizErr *goerror.Error
		if !errors.As(err, &bizErr) || bizErr.Code() != goerror.CodeTooManyRequest {
			t.Fatalf("expected too many requests error, got %v", err)
		}
		if db.calls["GetUserOTPProfile"] != 0 {
			t.Fatalf("rate limited request must not look up the user")
		}
	})

	t.Run("RemainingCountsDownToZero", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Email: "user@example.com", Role: entity.RoleUser, PersonalToggle: true}
		env := newTestEnv(t, db, "")

		// Act & Assert
		for want := int32(4); want >= 0; want-- {
			out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})
			if err != nil {
				t.Fatalf("unexpected error at remaining=%d: %v", want, err)
			}
			if out.RemainingRequests != want {
				t.Fatalf("expected %d remaining requests, got %d", want, out.RemainingRequests)
			}
		}

		_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})
		_ = env.goroutine.Wait()

		var bizErr *goerror.Error
		if !errors.As(err, &bizErr) || bizErr.Code() != goerror.CodeTooManyRequest {
			t.Fatalf("expected sixth request to be rate limited, got %v", err)
		}
	})

	t.Run("ConcurrentIssuanceNeverExceedsCeiling", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")
		window := testNow.Truncate(time.Hour)

		// Act
		const requests = 20
		results := make(chan error, requests)
		var wg sync.WaitGroup
		for i := 0; i < requests; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 404})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		// Assert
		var allowed, limited int
		for err := range results {
			switch {
			case err == nil:
				allowed++
			default:
				var bizErr *goerror.Error
				if !errors.As(err, &bizErr) || bizErr.Code() != goerror.CodeTooManyRequest {
					t.Fatalf("unexpected error: %v", err)
				}
				limited++
			}
		}
		if allowed != 5 || limited != requests-5 {
			t.Fatalf("expected 5 allowed and %d limited, got %d and %d", requests-5, allowed, limited)
		}
		if db.rateCounts[window] != 5 {
			t.Fatalf("bucket must stop at the ceiling, got %d", db.rateCounts[window])
		}
	})

	t.Run("ConflictWithConcurrentIssueRetriesOnce", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Email: "user@example.com", Role: entity.RoleUser, PersonalToggle: true}
		db.replaceErrOnce = goerror.ErrConflict
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})
		_ = env.goroutine.Wait()

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.RemainingRequests != 4 {
			t.Fatalf("expected 4 remaining requests, got %d", out.RemainingRequests)
		}
		if db.calls["ReplacePendingChallenge"] != 2 {
			t.Fatalf("expected one retry after the conflict, got %d calls", db.calls["ReplacePendingChallenge"])
		}
		if db.pending == nil {
			t.Fatalf("retry must leave a stored pending challenge")
		}
	})

	t.Run("UnknownUserLooksLikeSuccess", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 404})
		_ = env.goroutine.Wait()

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.ExpiresInMinutes != 5 || out.RemainingRequests != 4 {
			t.Fatalf("unknown user response differs from the known user one: %+v", out)
		}
		if db.calls["ReplacePendingChallenge"] != 0 {
			t.Fatalf("no challenge must be stored for an unknown user")
		}
		if len(env.messaging.published) != 0 {
			t.Fatalf("no event must be published for an unknown user")
		}
		if db.calls["ConsumeRateLimit"] != 1 {
			t.Fatalf("unknown user request must still burn rate limit quota")
		}
	})

	t.Run("RateLimitStoreDownFailsOpen", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Email: "user@example.com", Role: entity.RoleUser}
		db.rateErr = errors.New("connection refused")
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})
		_ = env.goroutine.Wait()

		// Assert
		if err != nil {
			t.Fatalf("expected fail open, got %v", err)
		}
		if out.RemainingRequests != 0 {
			t.Fatalf("fail open must report zero remaining requests, got %d", out.RemainingRequests)
		}
		if db.calls["ReplacePendingChallenge"] != 1 {
			t.Fatalf("fail open must still issue the challenge")
		}
	})

	t.Run("RateLimitStoreDownFailsClosed", func(t *testing.T) {
		// Arrange
		cfg := `
modules:
  stepup:
    rate_limit_fail_closed: true
`
		db := newFakeDB()
		db.rateErr = errors.New("connection refused")
		env := newTestEnv(t, db, cfg)

		// Act
		_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})

		// Assert
		var srvErr *goerror.Error
		if !errors.As(err, &srvErr) || srvErr.Type() != goerror.TypeServer {
			t.Fatalf("expected server error, got %v", err)
		}
		if db.calls["ReplacePendingChallenge"] != 0 {
			t.Fatalf("fail closed must not issue a challenge")
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")

		// Act
		_, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 0})

		// Assert
		if err == nil {
			t.Fatalf("expected validation error")
		}
		if db.calls["ConsumeRateLimit"] != 0 {
			t.Fatalf("invalid input must not touch the store")
		}
	})

	t.Run("TTLClampedToUpperBound", func(t *testing.T) {
		// Arrange
		cfg := `
modules:
  stepup:
    otp_ttl_minutes: 30
`
		db := newFakeDB()
		db.profile = &entity.UserOTPProfile{UserID: 7, Email: "user@example.com", Role: entity.RoleUser}
		env := newTestEnv(t, db, cfg)

		// Act
		out, err := env.uc.IssueChallenge(context.Background(), IssueChallengeInput{UserID: 7})
		_ = env.goroutine.Wait()

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.ExpiresInMinutes != 10 {
			t.Fatalf("expected ttl clamped to 10 minutes, got %d", out.ExpiresInMinutes)
		}
	})
}
