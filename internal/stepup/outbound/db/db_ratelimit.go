package db

import (
	"context"
	"time"
)

// ConsumeRateLimit takes one slot from the user's issuance bucket in a
// single atomic statement. The guarded upsert only returns a row while the
// counter stays at or below the ceiling, so no rows means the bucket is
// exhausted and the caller sees goerror.ErrNotFound. Concurrent callers
// cannot overshoot the ceiling because the increment and the check happen
// in the same statement.
func (s *DB) ConsumeRateLimit(ctx context.Context, userID int64, windowStart time.Time, ceiling int32) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeRateLimit")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO stepup_rate_limit_windows (user_id, window_start, request_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, window_start) DO UPDATE
		SET request_count = stepup_rate_limit_windows.request_count + 1
		WHERE stepup_rate_limit_windows.request_count < $3
		RETURNING request_count`

	var count int32
	if err = s.conn.QueryRow(ctx, query, userID, windowStart, ceiling).Scan(&count); err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}
