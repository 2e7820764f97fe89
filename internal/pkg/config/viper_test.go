package config

import (
	"testing"
	"time"
)

const testYAML = `
app:
  name: "stepup"
  workers: 8
  ratio: 0.5
  enabled: true
  tags: "a,b"
timeouts:
  read_seconds: 15
  retry_minutes: 2
  session_hours: 24
`

func newTestViper(t *testing.T) *Viper {
	t.Helper()

	v, err := NewViperFromBytes("yaml", []byte(testYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = v.Close() })

	return v
}

func TestViperGetters(t *testing.T) {
	// Arrange
	v := newTestViper(t)

	// Assert
	if got := v.GetString("app.name"); got != "stepup" {
		t.Errorf("GetString = %q, want stepup", got)
	}
	if got := v.GetInt("app.workers"); got != 8 {
		t.Errorf("GetInt = %d, want 8", got)
	}
	if got := v.GetInt32("app.workers"); got != 8 {
		t.Errorf("GetInt32 = %d, want 8", got)
	}
	if got := v.GetFloat64("app.ratio"); got != 0.5 {
		t.Errorf("GetFloat64 = %v, want 0.5", got)
	}
	if !v.GetBool("app.enabled") {
		t.Errorf("GetBool = false, want true")
	}
	if got := v.GetArray("app.tags"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("GetArray = %v, want [a b]", got)
	}
}

func TestViperDurations(t *testing.T) {
	// Arrange
	v := newTestViper(t)

	// Assert
	if got := v.GetSecond("timeouts.read_seconds"); got != 15*time.Second {
		t.Errorf("GetSecond = %v, want 15s", got)
	}
	if got := v.GetMinute("timeouts.retry_minutes"); got != 2*time.Minute {
		t.Errorf("GetMinute = %v, want 2m", got)
	}
	if got := v.GetHour("timeouts.session_hours"); got != 24*time.Hour {
		t.Errorf("GetHour = %v, want 24h", got)
	}
}

func TestViperMissingKeysAreZero(t *testing.T) {
	// Arrange
	v := newTestViper(t)

	// Assert
	if got := v.GetString("missing.key"); got != "" {
		t.Errorf("GetString = %q, want empty", got)
	}
	if got := v.GetInt("missing.key"); got != 0 {
		t.Errorf("GetInt = %d, want 0", got)
	}
	if v.GetBool("missing.key") {
		t.Errorf("GetBool = true, want false")
	}
	if got := v.GetSecond("missing.key"); got != 0 {
		t.Errorf("GetSecond = %v, want 0", got)
	}
}
