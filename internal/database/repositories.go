package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/habitosecreto/habito-api/internal/history"
	"github.com/habitosecreto/habito-api/internal/models"
)

// HabitLogRepositoryInterface defines the log table operations the history
// engine's callers depend on. The interface enables mock implementations in
// handler and session tests.
type HabitLogRepositoryInterface interface {
	Append(ctx context.Context, log *models.HabitLog) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]history.LogRow, error)
}

// HabitRepositoryInterface defines the catalog and selection operations the
// habit handler depends on.
type HabitRepositoryInterface interface {
	ListCatalog(ctx context.Context) ([]*models.Habit, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Habit, error)
	Upsert(ctx context.Context, h *models.Habit) error
	ListSelection(ctx context.Context, userID uuid.UUID) ([]*models.Habit, error)
	ReplaceSelection(ctx context.Context, userID uuid.UUID, habitIDs []uuid.UUID) error
}

// NotificationRepositoryInterface defines notification operations used by
// handlers and workers.
type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// UserRepositoryInterface defines the user operations used outside the
// auth middleware.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Ensure concrete types implement the interfaces
var (
	_ HabitLogRepositoryInterface     = (*HabitLogRepository)(nil)
	_ HabitRepositoryInterface        = (*HabitRepository)(nil)
	_ NotificationRepositoryInterface = (*NotificationRepository)(nil)
	_ UserRepositoryInterface         = (*UserRepository)(nil)
)
