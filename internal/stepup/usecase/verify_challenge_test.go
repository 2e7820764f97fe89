package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

func assertInvalidCode(t *testing.T, err error) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a structured error, got %v", err)
	}
	if gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", gerr.Code())
	}
	if gerr.Msg() != "Invalid or expired code" {
		t.Fatalf("unexpected message %q", gerr.Msg())
	}
}

func TestVerifyChallenge(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.markUsedWon = true
		env := newTestEnv(t, db, "")
		db.pending = &entity.Challenge{
			ID:        11,
			UserID:    7,
			CodeHash:  mustHash(t, env.hmac, "123456"),
			Status:    entity.ChallengeStatusPending,
			ExpiresAt: testNow.Add(3 * time.Minute),
		}

		// Act
		out, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "123456"})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.SessionToken == "" {
			t.Fatalf("expected a session token")
		}
		if !out.ExpiresAt.Equal(testNow.Add(24 * time.Hour)) {
			t.Fatalf("unexpected session expiry %v", out.ExpiresAt)
		}
		if db.calls["CreateVerifiedSession"] != 1 {
			t.Fatalf("expected one session row, got %d", db.calls["CreateVerifiedSession"])
		}
	})

	t.Run("TrimsSurroundingWhitespace", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.markUsedWon = true
		env := newTestEnv(t, db, "")
		db.pending = &entity.Challenge{
			ID:        11,
			UserID:    7,
			CodeHash:  mustHash(t, env.hmac, "123456"),
			ExpiresAt: testNow.Add(3 * time.Minute),
		}

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "  123456  "})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("MalformedCodeNeverTouchesStore", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")

		for _, code := range []string{"12345", "1234567", "12345a", "abcdef"} {
			// Act
			_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: code})

			// Assert
			var gerr *goerror.Error
			if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeInvalidFormat {
				t.Fatalf("expected a format error for %q, got %v", code, err)
			}
		}
		if len(db.calls) != 0 {
			t.Fatalf("malformed codes must not reach the store, calls: %v", db.calls)
		}
	})

	t.Run("NoPendingChallenge", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "123456"})

		// Assert
		assertInvalidCode(t, err)
	})

	t.Run("LapsedChallengeIsExpired", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")
		db.pending = &entity.Challenge{
			ID:        11,
			UserID:    7,
			CodeHash:  mustHash(t, env.hmac, "123456"),
			ExpiresAt: testNow.Add(-time.Second),
		}

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "123456"})

		// Assert
		assertInvalidCode(t, err)
		if db.calls["ExpireChallenge"] != 1 {
			t.Fatalf("lapsed challenge must be transitioned to expired")
		}
		if db.calls["CreateVerifiedSession"] != 0 {
			t.Fatalf("lapsed challenge must not grant a session")
		}
	})

	t.Run("ExactExpiryBoundaryRejected", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")
		db.pending = &entity.Challenge{
			ID:        11,
			UserID:    7,
			CodeHash:  mustHash(t, env.hmac, "123456"),
			ExpiresAt: testNow,
		}

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "123456"})

		// Assert
		assertInvalidCode(t, err)
	})

	t.Run("WrongCodeCountsAttempt", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")
		db.pending = &entity.Challenge{
			ID:        11,
			UserID:    7,
			CodeHash:  mustHash(t, env.hmac, "123456"),
			ExpiresAt: testNow.Add(3 * time.Minute),
		}

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "654321"})

		// Assert
		assertInvalidCode(t, err)
		if db.calls["IncrementChallengeAttempts"] != 1 {
			t.Fatalf("a wrong code must count as an attempt")
		}
		if db.calls["ExpireChallenge"] != 0 {
			t.Fatalf("challenge must stay pending below the attempt ceiling")
		}
	})

	t.Run("AttemptCeilingExpiresChallenge", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.attempts = 4
		env := newTestEnv(t, db, "")
		db.pending = &entity.Challenge{
			ID:        11,
			UserID:    7,
			CodeHash:  mustHash(t, env.hmac, "123456"),
			ExpiresAt: testNow.Add(3 * time.Minute),
		}

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "654321"})

		// Assert
		assertInvalidCode(t, err)
		if db.calls["ExpireChallenge"] != 1 {
			t.Fatalf("fifth failure must expire the challenge")
		}
	})

	t.Run("SupersededDuringVerification", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.markUsedWon = false
		env := newTestEnv(t, db, "")
		db.pending = &entity.Challenge{
			ID:        11,
			UserID:    7,
			CodeHash:  mustHash(t, env.hmac, "123456"),
			ExpiresAt: testNow.Add(3 * time.Minute),
		}

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "123456"})

		// Assert
		assertInvalidCode(t, err)
		if db.calls["CreateVerifiedSession"] != 0 {
			t.Fatalf("a superseded challenge must not grant a session")
		}
	})

	t.Run("StoreFailureIsServerError", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.pendingErr = errors.New("connection refused")
		env := newTestEnv(t, db, "")

		// Act
		_, err := env.uc.VerifyChallenge(context.Background(), VerifyChallengeInput{UserID: 7, Code: "123456"})

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeServer {
			t.Fatalf("expected server error, got %v", err)
		}
	})
}
