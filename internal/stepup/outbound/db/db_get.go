package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

func (s *DB) GetUserOTPProfile(ctx context.Context, userID int64) (_ *entity.UserOTPProfile, err error) {
	ctx, span := s.startSpan(ctx, "GetUserOTPProfile")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT user_id, email, role, personal_toggle, admin_override, updated_at
		FROM stepup_user_profiles
		WHERE user_id = $1`

	var p entity.UserOTPProfile
	err = s.conn.QueryRow(ctx, query, userID).
		Scan(&p.UserID, &p.Email, &p.Role, &p.PersonalToggle, &p.AdminOverride, &p.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}

func (s *DB) GetGlobalSetting(ctx context.Context) (_ *entity.GlobalSetting, err error) {
	ctx, span := s.startSpan(ctx, "GetGlobalSetting")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT otp_enabled, updated_at
		FROM stepup_global_setting
		WHERE id = 1`

	var gs entity.GlobalSetting
	err = s.conn.QueryRow(ctx, query).Scan(&gs.OTPEnabled, &gs.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &gs, nil
}

func (s *DB) GetPendingChallenge(ctx context.Context, userID int64) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "GetPendingChallenge")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, user_id, code_hash, status, attempts, expires_at, created_at, verified_at
		FROM stepup_otp_challenges
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var ch entity.Challenge
	err = s.conn.QueryRow(ctx, query, userID, entity.ChallengeStatusPending).
		Scan(&ch.ID, &ch.UserID, &ch.CodeHash, &ch.Status, &ch.Attempts, &ch.ExpiresAt, &ch.CreatedAt, &ch.VerifiedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &ch, nil
}

func (s *DB) HasLiveSession(ctx context.Context, userID int64, tokenHash string, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "HasLiveSession")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM stepup_verified_sessions
			WHERE user_id = $1
			  AND expires_at > $2
			  AND ($3 = '' OR token_hash = $3)
		)`

	var live bool
	if err = s.conn.QueryRow(ctx, query, userID, now, tokenHash).Scan(&live); err != nil {
		return false, s.mapError(err)
	}

	return live, nil
}
