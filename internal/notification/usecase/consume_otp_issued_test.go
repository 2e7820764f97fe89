package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/stepup/internal/notification/entity"
	"github.com/shandysiswandi/stepup/internal/pkg/config"
	"github.com/shandysiswandi/stepup/internal/pkg/idempotency"
	"github.com/shandysiswandi/stepup/internal/pkg/instrument"
	"github.com/shandysiswandi/stepup/internal/pkg/mail"
	"github.com/shandysiswandi/stepup/internal/pkg/validator"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeNumberID struct{ next int64 }

func (f *fakeNumberID) Generate() int64 {
	f.next++
	return f.next
}

type fakeDB struct {
	created []entity.CreateDeliveryLog
	updated []entity.UpdateDeliveryLog

	createErr error
	updateErr error
}

func (f *fakeDB) CreateDeliveryLog(_ context.Context, dl entity.CreateDeliveryLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, dl)
	return nil
}

func (f *fakeDB) UpdateDeliveryLogStatus(_ context.Context, u entity.UpdateDeliveryLog) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, u)
	return nil
}

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

const testConfigYAML = `
app:
  company_name: "Stepup Bank"
modules:
  notification:
    support_email: "support@stepup.local"
    retry_delay_minutes: 2
`

var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	uc   *Usecase
	db   *fakeDB
	mail *fakeMail
}

func newTestEnv(t *testing.T, db *fakeDB, m *fakeMail) *testEnv {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to init validator: %v", err)
	}

	uc := NewNotification(Dependency{
		RepoDB:      db,
		RepoMail:    m,
		Idempotency: idempotency.New(client),
		Config:      cfg,
		UID:         &fakeNumberID{},
		Clock:       fixedClock{now: testNow},
		Validator:   v10,
		Instrument:  instrument.NewNoop(),
	})

	return &testEnv{uc: uc, db: db, mail: m}
}

func validInput() ConsumeOTPChallengeIssuedInput {
	return ConsumeOTPChallengeIssuedInput{
		ChallengeID:    11,
		UserID:         7,
		Email:          "user@example.com",
		Code:           "123456",
		ExpiresMinutes: 5,
	}
}

func TestConsumeOTPChallengeIssued(t *testing.T) {
	t.Run("SendsEmailAndLogsDelivery", func(t *testing.T) {
		// Arrange
		db := &fakeDB{}
		m := &fakeMail{}
		env := newTestEnv(t, db, m)

		// Act
		err := env.uc.ConsumeOTPChallengeIssued(context.Background(), validInput())

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(m.sent) != 1 {
			t.Fatalf("expected one email, got %d", len(m.sent))
		}
		msg := m.sent[0]
		if msg.To[0] != "user@example.com" || msg.Subject != "Your verification code" {
			t.Fatalf("unexpected email %+v", msg)
		}
		if !strings.Contains(msg.HTMLBody, "123456") || !strings.Contains(msg.HTMLBody, "5 minutes") {
			t.Fatalf("email body missing code or expiry: %s", msg.HTMLBody)
		}
		if !strings.Contains(msg.HTMLBody, "support@stepup.local") || !strings.Contains(msg.HTMLBody, "Stepup Bank") {
			t.Fatalf("email body missing support details: %s", msg.HTMLBody)
		}
		if len(db.created) != 1 || db.created[0].Status != entity.DeliveryStatusQueued {
			t.Fatalf("expected a queued delivery log, got %+v", db.created)
		}
		if len(db.updated) != 1 || db.updated[0].Status != entity.DeliveryStatusSent {
			t.Fatalf("expected the log marked sent, got %+v", db.updated)
		}
	})

	t.Run("RedeliveryIsDropped", func(t *testing.T) {
		// Arrange
		db := &fakeDB{}
		m := &fakeMail{}
		env := newTestEnv(t, db, m)

		// Act
		err1 := env.uc.ConsumeOTPChallengeIssued(context.Background(), validInput())
		err2 := env.uc.ConsumeOTPChallengeIssued(context.Background(), validInput())

		// Assert
		if err1 != nil || err2 != nil {
			t.Fatalf("unexpected errors: %v, %v", err1, err2)
		}
		if len(m.sent) != 1 {
			t.Fatalf("redelivery must not send a second email, sent %d", len(m.sent))
		}
	})

	t.Run("MailFailureRecordsRetry", func(t *testing.T) {
		// Arrange
		db := &fakeDB{}
		m := &fakeMail{err: errors.New("smtp unavailable")}
		env := newTestEnv(t, db, m)

		// Act
		err := env.uc.ConsumeOTPChallengeIssued(context.Background(), validInput())

		// Assert
		if err != nil {
			t.Fatalf("mail failure must not surface to the consumer: %v", err)
		}
		if len(db.updated) != 1 || db.updated[0].Status != entity.DeliveryStatusFailed {
			t.Fatalf("expected the log marked failed, got %+v", db.updated)
		}
		u := db.updated[0]
		if u.NextRetryAt == nil || !u.NextRetryAt.Equal(testNow.Add(2*time.Minute)) {
			t.Fatalf("expected a retry two minutes out, got %+v", u.NextRetryAt)
		}
		if u.ProviderResponse["error"] != "smtp unavailable" {
			t.Fatalf("expected the provider error recorded, got %+v", u.ProviderResponse)
		}
	})

	t.Run("InvalidPayloadIsDroppedSilently", func(t *testing.T) {
		// Arrange
		db := &fakeDB{}
		m := &fakeMail{}
		env := newTestEnv(t, db, m)
		in := validInput()
		in.Code = "not-a-code"

		// Act
		err := env.uc.ConsumeOTPChallengeIssued(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("invalid payload must be dropped, not retried: %v", err)
		}
		if len(m.sent) != 0 {
			t.Fatalf("invalid payload must not send an email")
		}
	})
}
