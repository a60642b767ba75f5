package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/history"
	logpkg "github.com/habitosecreto/habito-api/internal/logger"
	"github.com/habitosecreto/habito-api/internal/models"
	"github.com/habitosecreto/habito-api/internal/queue"
)

// PartnerSyncWorker reacts to a user's completed day by posting the partner
// side of the challenge: a milestone notification that the secret partner
// also finished, and the reveal notification once the count reaches the
// challenge length.
type PartnerSyncWorker struct {
	notificationRepo database.NotificationRepositoryInterface
	logger           *zap.Logger
}

// NewPartnerSyncWorker creates a partner sync worker.
func NewPartnerSyncWorker(notificationRepo database.NotificationRepositoryInterface, logger *zap.Logger) *PartnerSyncWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerSyncWorker{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Register wires the worker into a dispatcher.
func (w *PartnerSyncWorker) Register(d *Dispatcher) {
	d.Register(queue.JobTypePartnerSync, w.ProcessPartnerSyncJob, false)
}

// ProcessPartnerSyncJob creates the "partner also completed" notification for
// the day recorded in the job metadata. The notification never names the
// partner; identity stays hidden until the reveal.
func (w *PartnerSyncWorker) ProcessPartnerSyncJob(ctx context.Context, job *queue.Job) error {
	date := job.MetadataString(queue.MetadataDate)
	if date == "" {
		return fmt.Errorf("date is required for partner sync job")
	}
	streak := job.MetadataInt(queue.MetadataStreak)

	n := &models.Notification{
		UserID:  job.UserID,
		Title:   "Parceiro em dia!",
		Message: fmt.Sprintf("Seu parceiro secreto também completou a meta de %s. Já são %d dias de desafio!", date, streak),
		Type:    models.NotificationMilestone,
	}
	if err := w.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create partner sync notification: %w", err)
	}

	if streak == history.WindowSize {
		reveal := &models.Notification{
			UserID:  job.UserID,
			Title:   "Revelação desbloqueada!",
			Message: fmt.Sprintf("Vocês completaram %d dias juntos. A identidade do seu parceiro secreto está disponível.", history.WindowSize),
			Type:    models.NotificationMilestone,
		}
		if err := w.notificationRepo.Create(ctx, reveal); err != nil {
			return fmt.Errorf("failed to create reveal notification: %w", err)
		}
	}

	w.logger.Info("partner_sync_completed",
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.String("date", date),
		zap.Int("streak", streak),
	)
	return nil
}
