package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypePartnerSync is a job for syncing a day's completion with the
	// user's anonymous partner
	JobTypePartnerSync JobType = "partner_sync"
	// JobTypeAvatarGeneration is a job for rendering a profile avatar
	JobTypeAvatarGeneration JobType = "avatar_generation"
)

// Metadata keys used by job producers and workers.
const (
	// MetadataDate carries the completion date for partner sync jobs ("2006-01-02")
	MetadataDate = "date"
	// MetadataStreak carries the streak count at enqueue time
	MetadataStreak = "streak"
	// MetadataDisplayName carries the name avatar jobs render for
	MetadataDisplayName = "display_name"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`   // Job-specific data
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	// Check NotBefore
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	// Check NotAfter
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// MetadataString returns a string metadata value, or "" when absent.
func (j *Job) MetadataString(key string) string {
	if j.Metadata == nil {
		return ""
	}
	if v, ok := j.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// MetadataInt returns an integer metadata value, or 0 when absent. JSON
// round-trips land numbers as float64, so both forms are accepted.
func (j *Job) MetadataInt(key string) int {
	if j.Metadata == nil {
		return 0
	}
	switch v := j.Metadata[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
