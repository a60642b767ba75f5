package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/habitosecreto/habito-api/internal/logger"
	"github.com/habitosecreto/habito-api/internal/queue"
	"github.com/habitosecreto/habito-api/internal/services/ai"
)

// JobProcessor handles one job of a registered type.
type JobProcessor func(ctx context.Context, job *queue.Job) error

type processorEntry struct {
	proc JobProcessor
	// aiBacked enables quota and rate limit aware retries for processors
	// that call the AI provider
	aiBacked bool
}

// Dispatcher routes queue messages to registered processors and owns the
// ack/nack and retry decisions.
type Dispatcher struct {
	jobQueue queue.JobQueue // for re-enqueueing jobs with delays
	logger   *zap.Logger
	registry map[queue.JobType]processorEntry
}

// NewDispatcher creates a dispatcher with an empty processor registry.
func NewDispatcher(jobQueue queue.JobQueue, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		jobQueue: jobQueue,
		logger:   logger,
		registry: make(map[queue.JobType]processorEntry),
	}
}

// Register registers a processor for a job type. Processors that talk to the
// AI provider should set aiBacked so quota and rate limit errors are retried
// with a delay instead of hammering the API.
func (d *Dispatcher) Register(typ queue.JobType, proc JobProcessor, aiBacked bool) {
	d.registry[typ] = processorEntry{proc: proc, aiBacked: aiBacked}
}

// ProcessJob processes a single message based on its job type.
func (d *Dispatcher) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		d.logger.Info("dropping_expired_job",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("job_type", string(job.Type)),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			d.logger.Warn("failed_to_ack_expired_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	if !job.ShouldProcess() {
		fields := []zap.Field{zap.String("job_id", logpkg.SanitizeUserID(job.ID.String()))}
		if job.NotBefore != nil {
			fields = append(fields, zap.Time("not_before", *job.NotBefore))
		}
		d.logger.Debug("job_not_ready", fields...)
		if ackErr := msg.Ack(); ackErr != nil {
			d.logger.Warn("failed_to_ack_job_for_later_processing",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	ent, ok := d.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := ent.proc(ctx, job); err != nil {
		return d.handleJobError(ctx, msg, job, err, ent.aiBacked)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError decides between delayed re-enqueue, immediate requeue and
// the DLQ for a failed job.
func (d *Dispatcher) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, aiBacked bool) error {
	if aiBacked && (ai.IsQuotaError(err) || ai.IsRateLimitError(err)) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && d.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayed := d.delayedRetry(job, notBefore)

			if ackErr := msg.Ack(); ackErr != nil {
				d.logger.Warn("failed_to_ack_job_before_reenqueue",
					zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
					zap.String("error", logpkg.SanitizeError(ackErr)),
				)
			}

			if enqueueErr := d.jobQueue.Enqueue(ctx, delayed); enqueueErr != nil {
				d.logger.Error("failed_to_reenqueue_job",
					zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
					zap.String("error", logpkg.SanitizeError(enqueueErr)),
				)
				return fmt.Errorf("failed to re-enqueue throttled job: %w", enqueueErr)
			}

			d.logger.Info("reenqueued_throttled_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.Time("not_before", notBefore),
				zap.Duration("delay", retryDelay),
			)
			return nil
		}

		// No retries left or no queue access, dead-letter instead of spamming
		// the provider
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed_to_nack_throttled_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("provider throttled (job %s): %w", job.ID, err)
	}

	if job.CanRetry() {
		job.IncrementRetry()
		d.logger.Warn("job_failed_will_retry",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("job_type", string(job.Type)),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			d.logger.Warn("failed_to_nack_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	d.logger.Error("job_failed_max_retries",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("job_type", string(job.Type)),
		zap.Int("max_retries", job.MaxRetries),
		zap.String("error", logpkg.SanitizeError(err)),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		d.logger.Warn("failed_to_nack_job_to_dlq",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("error", logpkg.SanitizeError(nackErr)),
		)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

func (d *Dispatcher) delayedRetry(job *queue.Job, notBefore time.Time) *queue.Job {
	return &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}
}
