package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/stepup/internal/stepup/entity"
)

// ReplacePendingChallenge expires every pending challenge the user still
// has and inserts the new one, in a single transaction. Together with the
// partial unique index on pending rows this keeps at most one live
// challenge per user.
func (s *DB) ReplacePendingChallenge(ctx context.Context, ch entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "ReplacePendingChallenge")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	const expireQuery = `
		UPDATE stepup_otp_challenges
		SET status = $1
		WHERE user_id = $2 AND status = $3`

	if _, err = tx.Exec(ctx, expireQuery, entity.ChallengeStatusExpired, ch.UserID, entity.ChallengeStatusPending); err != nil {
		return s.mapError(err)
	}

	const insertQuery = `
		INSERT INTO stepup_otp_challenges (id, user_id, code_hash, status, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)`

	if _, err = tx.Exec(ctx, insertQuery, ch.ID, ch.UserID, ch.CodeHash, ch.Status, ch.ExpiresAt, ch.CreatedAt); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) CreateVerifiedSession(ctx context.Context, vs entity.VerifiedSession) (err error) {
	ctx, span := s.startSpan(ctx, "CreateVerifiedSession")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO stepup_verified_sessions (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = s.conn.Exec(ctx, query, vs.ID, vs.UserID, vs.TokenHash, vs.ExpiresAt, vs.CreatedAt)
	return s.mapError(err)
}
