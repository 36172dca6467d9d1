package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ListScheduleConfigs returns every user's trigger definition.
func (s *Store) ListScheduleConfigs(ctx context.Context) ([]ScheduleConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, cron_expression, timezone, last_run_at
		FROM schedule_configs
	`)
	if err != nil {
		return nil, fmt.Errorf("query schedule configs: %w", err)
	}
	defer rows.Close()

	var configs []ScheduleConfig
	for rows.Next() {
		var c ScheduleConfig
		var lastRun sql.NullTime
		if err := rows.Scan(&c.UserID, &c.CronExpression, &c.Timezone, &lastRun); err != nil {
			return nil, err
		}
		if lastRun.Valid {
			t := lastRun.Time
			c.LastRunAt = &t
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// SaveScheduleConfig inserts or updates a user's trigger definition.
func (s *Store) SaveScheduleConfig(ctx context.Context, c *ScheduleConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_configs (user_id, cron_expression, timezone, last_run_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			cron_expression = excluded.cron_expression,
			timezone = excluded.timezone
	`, c.UserID, c.CronExpression, c.Timezone, nullableTime(c.LastRunAt))
	if err != nil {
		return fmt.Errorf("save schedule config: %w", err)
	}
	return nil
}

// TouchScheduleLastRun records that the scheduler fired for a user.
func (s *Store) TouchScheduleLastRun(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE schedule_configs SET last_run_at = ? WHERE user_id = ?
	`, at, userID)
	if err != nil {
		return fmt.Errorf("touch schedule last run: %w", err)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
