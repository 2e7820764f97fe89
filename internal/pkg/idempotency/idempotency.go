// Package idempotency tracks one-shot operation state in Redis so that
// redelivered messages do not repeat side effects.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid operation state")
)

// State describes what is known about an operation key.
type State string

const (
	StateNone       State = "none"        // key is free, operation can proceed
	StateInProgress State = "in_progress" // another caller holds the lock
	StateCompleted  State = "completed"   // operation finished successfully
	StateFailed     State = "failed"      // operation finished with an error
	StateError      State = "error"       // the tracker itself failed
)

func (s State) String() string {
	return string(s)
}

// Idempotency is the contract consumers depend on.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// Option configures a single Exec call.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration overrides how long the in-progress lock is held.
func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = lockDuration }
}

// WithStateTTL overrides how long terminal states are remembered.
func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = stateTTL }
}

// RedisTracker stores operation state as plain Redis strings under a
// shared prefix.
type RedisTracker struct {
	client *redis.Client
	prefix string
}

// New constructs a RedisTracker.
func New(client *redis.Client) *RedisTracker {
	return &RedisTracker{
		client: client,
		prefix: "idempotency:",
	}
}

// Acquire attempts to claim key for a new operation. StateNone means the
// caller now owns the lock; any other state means the operation must not run.
func (t *RedisTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := t.prefix + key

	acquired, err := t.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateError, err
	}
	if acquired {
		return StateNone, nil
	}

	result, err := t.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// The key expired between SetNX and Get. Retry the claim once.
		acquired, err = t.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if acquired {
			return StateNone, nil
		}
		return StateError, ErrInvalidState
	}
	if err != nil {
		return StateError, err
	}

	switch result {
	case StateInProgress.String():
		return StateInProgress, nil
	case StateCompleted.String():
		return StateCompleted, nil
	case StateFailed.String():
		return StateFailed, nil
	default:
		return StateError, ErrInvalidState
	}
}

// MarkCompleted records a successful outcome for key.
func (t *RedisTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return t.client.Set(ctx, t.prefix+key, StateCompleted.String(), ttl).Err()
}

// MarkFailed records a failed outcome for key.
func (t *RedisTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return t.client.Set(ctx, t.prefix+key, StateFailed.String(), ttl).Err()
}

// Exec runs fn exactly once per key. Repeated calls observe the recorded
// outcome instead of running fn again.
func (t *RedisTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	execOpt := &execOptions{
		lockDuration: defaultLockDuration,
		stateTTL:     defaultStateTTL,
	}
	for _, opt := range opts {
		opt(execOpt)
	}
	if execOpt.lockDuration <= 0 {
		execOpt.lockDuration = defaultLockDuration
	}
	if execOpt.stateTTL <= 0 {
		execOpt.stateTTL = defaultStateTTL
	}

	state, err := t.Acquire(ctx, key, execOpt.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		if markErr := t.MarkFailed(ctx, key, execOpt.stateTTL); markErr != nil {
			return markErr
		}
		return err
	}

	return t.MarkCompleted(ctx, key, execOpt.stateTTL)
}
