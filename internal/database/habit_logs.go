package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/habitosecreto/habito-api/internal/history"
	"github.com/habitosecreto/habito-api/internal/models"
)

// HabitLogRepository handles the per-date completion log table. It is the
// remote source and sink the history engine reconciles against.
type HabitLogRepository struct {
	db *DB
}

// NewHabitLogRepository creates a new habit log repository
func NewHabitLogRepository(db *DB) *HabitLogRepository {
	return &HabitLogRepository{db: db}
}

// Append inserts one completion row. The date is stored at day granularity.
func (r *HabitLogRepository) Append(ctx context.Context, log *models.HabitLog) error {
	query := `
		INSERT INTO habit_logs (id, user_id, habit_id, date, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query,
		log.ID,
		log.UserID,
		log.HabitID,
		log.Date,
		log.Completed,
		time.Now(),
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append habit log: %w", err)
	}

	return nil
}

// ListByUser returns the complete log set for a user as history rows, the
// form the history engine consumes. No pagination: the table holds at most
// one meaningful row per user per day.
func (r *HabitLogRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]history.LogRow, error) {
	query := `
		SELECT user_id, date, completed
		FROM habit_logs
		WHERE user_id = $1
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habit logs: %w", err)
	}
	defer rows.Close()

	var logs []history.LogRow
	for rows.Next() {
		var row history.LogRow
		var date time.Time
		if err := rows.Scan(&row.UserID, &date, &row.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan habit log: %w", err)
		}
		row.Date = history.Normalize(date)
		logs = append(logs, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habit logs: %w", err)
	}

	return logs, nil
}
