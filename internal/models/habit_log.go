package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyGoalHabitID is the log key for the single undifferentiated daily
// goal. The challenge tracks one completion flag per day, not one per
// selected habit.
const DailyGoalHabitID = "daily_goal"

// HabitLog is one per-date completion row. Date carries day granularity;
// consumers must normalize it before comparing (see internal/history).
type HabitLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	HabitID   string    `json:"habit_id"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}
