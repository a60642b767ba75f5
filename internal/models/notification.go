package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification for presentation.
type NotificationType string

const (
	// NotificationSuccess confirms a user action (goal completed, profile saved).
	NotificationSuccess NotificationType = "success"
	// NotificationInfo is a neutral informational message.
	NotificationInfo NotificationType = "info"
	// NotificationMilestone marks challenge events (partner sync, reveal unlocked).
	NotificationMilestone NotificationType = "milestone"
)

// Notification is one message shown to a user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
