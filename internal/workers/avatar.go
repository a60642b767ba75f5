package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/habitosecreto/habito-api/internal/database"
	logpkg "github.com/habitosecreto/habito-api/internal/logger"
	"github.com/habitosecreto/habito-api/internal/models"
	"github.com/habitosecreto/habito-api/internal/queue"
	"github.com/habitosecreto/habito-api/internal/services/ai"
)

// AvatarWorker renders profile avatars through the image provider and stores
// the result on the user row.
type AvatarWorker struct {
	generator        ai.AvatarGenerator
	userRepo         database.UserRepositoryInterface
	notificationRepo database.NotificationRepositoryInterface
	logger           *zap.Logger
}

// NewAvatarWorker creates an avatar worker.
func NewAvatarWorker(
	generator ai.AvatarGenerator,
	userRepo database.UserRepositoryInterface,
	notificationRepo database.NotificationRepositoryInterface,
	logger *zap.Logger,
) *AvatarWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvatarWorker{
		generator:        generator,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Register wires the worker into a dispatcher. Avatar jobs call the image
// API, so they get the quota-aware retry path.
func (w *AvatarWorker) Register(d *Dispatcher) {
	d.Register(queue.JobTypeAvatarGeneration, w.ProcessAvatarGenerationJob, true)
}

// ProcessAvatarGenerationJob generates an avatar for the job's user and saves
// it on the profile. An empty result from the generator means the provider
// declined; the user keeps the default icon and the job still succeeds.
func (w *AvatarWorker) ProcessAvatarGenerationJob(ctx context.Context, job *queue.Job) error {
	user, err := w.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	displayName := job.MetadataString(queue.MetadataDisplayName)
	if displayName == "" {
		displayName = user.DisplayName()
	}

	genCtx, cancel := context.WithTimeout(ctx, ai.AvatarTimeout)
	defer cancel()

	avatarURL, err := w.generator.GenerateAvatar(genCtx, displayName)
	if err != nil {
		return fmt.Errorf("failed to generate avatar: %w", err)
	}
	if avatarURL == "" {
		w.logger.Info("avatar_generation_declined",
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		)
		return nil
	}

	user.AvatarURL = &avatarURL
	if err := w.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to save avatar: %w", err)
	}

	if w.notificationRepo != nil {
		n := &models.Notification{
			UserID:  user.ID,
			Title:   "Avatar pronto!",
			Message: "Seu novo avatar foi gerado e já aparece no seu perfil.",
			Type:    models.NotificationSuccess,
		}
		if err := w.notificationRepo.Create(ctx, n); err != nil {
			// The avatar is saved, the notification is best effort
			w.logger.Warn("failed_to_create_avatar_notification",
				zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	w.logger.Info("avatar_generated",
		zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
	)
	return nil
}
