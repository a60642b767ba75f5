package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxSelectedHabits is the most habits a user can track at once.
const MaxSelectedHabits = 5

// MinSelectedHabits is the smallest selection that starts a challenge.
const MinSelectedHabits = 3

// Habit catalog categories. Custom habits created by users always land in
// CategoryCustom.
const (
	CategoryPhysicalHealth = "Saúde Física"
	CategoryMind           = "Mente"
	CategoryProductivity   = "Produtividade"
	CategoryCustom         = "Personalizado"
)

// Habit is one entry of the curated habit catalog.
type Habit struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitSelection links a user to one chosen catalog habit.
type HabitSelection struct {
	UserID    uuid.UUID `json:"user_id"`
	HabitID   uuid.UUID `json:"habit_id"`
	CreatedAt time.Time `json:"created_at"`
}
