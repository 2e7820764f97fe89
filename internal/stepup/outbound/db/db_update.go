package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/goerror"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

// MarkChallengeUsed transitions a pending challenge to used. It reports
// false when the challenge is no longer pending, which happens when a
// concurrent re-issue superseded it first.
func (s *DB) MarkChallengeUsed(ctx context.Context, challengeID int64, verifiedAt time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkChallengeUsed")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE stepup_otp_challenges
		SET status = $1, verified_at = $2
		WHERE id = $3 AND status = $4`

	tag, err := s.conn.Exec(ctx, query, entity.ChallengeStatusUsed, verifiedAt, challengeID, entity.ChallengeStatusPending)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

// ExpireChallenge transitions a pending challenge to expired. It reports
// false when the challenge already left the pending state.
func (s *DB) ExpireChallenge(ctx context.Context, challengeID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ExpireChallenge")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE stepup_otp_challenges
		SET status = $1
		WHERE id = $2 AND status = $3`

	tag, err := s.conn.Exec(ctx, query, entity.ChallengeStatusExpired, challengeID, entity.ChallengeStatusPending)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

// IncrementChallengeAttempts bumps the failed attempt counter and returns
// the new value. Challenges that already left the pending state are not
// counted and surface as not found.
func (s *DB) IncrementChallengeAttempts(ctx context.Context, challengeID int64) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "IncrementChallengeAttempts")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE stepup_otp_challenges
		SET attempts = attempts + 1
		WHERE id = $1 AND status = $2
		RETURNING attempts`

	var attempts int32
	if err = s.conn.QueryRow(ctx, query, challengeID, entity.ChallengeStatusPending).Scan(&attempts); err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

func (s *DB) UpsertGlobalSetting(ctx context.Context, enabled bool, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertGlobalSetting")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO stepup_global_setting (id, otp_enabled, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET otp_enabled = EXCLUDED.otp_enabled, updated_at = EXCLUDED.updated_at`

	_, err = s.conn.Exec(ctx, query, enabled, now)
	return s.mapError(err)
}

func (s *DB) SetUserAdminOverride(ctx context.Context, userID int64, enabled *bool) (err error) {
	ctx, span := s.startSpan(ctx, "SetUserAdminOverride")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE stepup_user_profiles
		SET admin_override = $1, updated_at = NOW()
		WHERE user_id = $2`

	tag, err := s.conn.Exec(ctx, query, enabled, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) SetUserPersonalToggle(ctx context.Context, userID int64, enabled bool) (err error) {
	ctx, span := s.startSpan(ctx, "SetUserPersonalToggle")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE stepup_user_profiles
		SET personal_toggle = $1, updated_at = NOW()
		WHERE user_id = $2`

	tag, err := s.conn.Exec(ctx, query, enabled, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
