package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestCheckSession(t *testing.T) {
	t.Run("LiveSession", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.liveSession = true
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.CheckSession(context.Background(), CheckSessionInput{UserID: 7})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.Verified {
			t.Fatalf("expected a verified session")
		}
	})

	t.Run("NoLiveSession", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		env := newTestEnv(t, db, "")

		// Act
		out, err := env.uc.CheckSession(context.Background(), CheckSessionInput{UserID: 7, Token: "abc"})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Verified {
			t.Fatalf("expected no verified session")
		}
	})

	t.Run("StoreFailure", func(t *testing.T) {
		// Arrange
		db := newFakeDB()
		db.liveErr = errors.New("connection refused")
		env := newTestEnv(t, db, "")

		// Act
		_, err := env.uc.CheckSession(context.Background(), CheckSessionInput{UserID: 7})

		// Assert
		if err == nil {
			t.Fatalf("expected error")
		}
	})
}
