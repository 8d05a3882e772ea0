package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// RetentionSweeper deletes read notifications older than the retention window.
type RetentionSweeper struct {
	pool          *pgxpool.Pool
	retentionDays int
}

// NewRetentionSweeper creates a sweeper with the given retention window.
func NewRetentionSweeper(pool *pgxpool.Pool, retentionDays int) *RetentionSweeper {
	return &RetentionSweeper{pool: pool, retentionDays: retentionDays}
}

// Run performs one sweep. Unread notifications are never removed.
func (rs *RetentionSweeper) Run(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -rs.retentionDays)

	tag, err := rs.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE is_read = TRUE AND created_at < $1
	`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to sweep notifications: %w", err)
	}

	if tag.RowsAffected() > 0 {
		log.Info().
			Int64("deleted", tag.RowsAffected()).
			Time("cutoff", cutoff).
			Msg("Notification retention sweep completed")
	}

	return nil
}

// RunScheduled is the cron entrypoint. Errors are logged, not propagated,
// so one failed sweep never stops the schedule.
func (rs *RetentionSweeper) RunScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := rs.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Notification retention sweep failed")
	}
}
