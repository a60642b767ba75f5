package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/habitosecreto/habito-api/internal/models"
)

// HabitRepository handles the habit catalog and per-user selections.
type HabitRepository struct {
	db *DB
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *DB) *HabitRepository {
	return &HabitRepository{db: db}
}

// ListCatalog returns all catalog habits ordered by category and name.
func (r *HabitRepository) ListCatalog(ctx context.Context) ([]*models.Habit, error) {
	query := `
		SELECT id, name, category, image_url, created_at, updated_at
		FROM habits
		ORDER BY category, name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		h := &models.Habit{}
		if err := rows.Scan(&h.ID, &h.Name, &h.Category, &h.ImageURL, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	return habits, nil
}

// GetByID retrieves one catalog habit.
func (r *HabitRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	h := &models.Habit{}
	query := `
		SELECT id, name, category, image_url, created_at, updated_at
		FROM habits
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Name, &h.Category, &h.ImageURL, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("habit not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	return h, nil
}

// Upsert inserts or updates a catalog habit by name. Used by the seed
// command so re-seeding stays idempotent.
func (r *HabitRepository) Upsert(ctx context.Context, h *models.Habit) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habits (id, name, category, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at
	`, h.ID, h.Name, h.Category, h.ImageURL, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert habit: %w", err)
	}
	return nil
}

// ListSelection returns the habits a user currently tracks.
func (r *HabitRepository) ListSelection(ctx context.Context, userID uuid.UUID) ([]*models.Habit, error) {
	query := `
		SELECT h.id, h.name, h.category, h.image_url, h.created_at, h.updated_at
		FROM habit_selections s
		JOIN habits h ON h.id = s.habit_id
		WHERE s.user_id = $1
		ORDER BY s.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habit selection: %w", err)
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		h := &models.Habit{}
		if err := rows.Scan(&h.ID, &h.Name, &h.Category, &h.ImageURL, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selected habit: %w", err)
		}
		habits = append(habits, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habit selection: %w", err)
	}

	return habits, nil
}

// ReplaceSelection atomically swaps a user's habit selection. Callers
// enforce the selection cap; the repository only guarantees atomicity.
func (r *HabitRepository) ReplaceSelection(ctx context.Context, userID uuid.UUID, habitIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin selection transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_selections WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear habit selection: %w", err)
	}

	now := time.Now()
	for _, habitID := range habitIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO habit_selections (user_id, habit_id, created_at)
			VALUES ($1, $2, $3)
		`, userID, habitID, now)
		if err != nil {
			return fmt.Errorf("failed to insert habit selection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit habit selection: %w", err)
	}
	return nil
}
