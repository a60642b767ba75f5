package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/models"
	"github.com/habitosecreto/habito-api/internal/queue"
	"github.com/habitosecreto/habito-api/internal/services/ai"
)

// mockUserRepo is a mock implementation of UserRepositoryInterface
type mockUserRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*models.User, error)
	updateFunc  func(ctx context.Context, user *models.User) error
	updated     []*models.User
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &models.User{ID: id, Email: "ana@example.com"}, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	m.updated = append(m.updated, user)
	return nil
}

var _ database.UserRepositoryInterface = (*mockUserRepo)(nil)

// mockAvatarGenerator is a mock implementation of AvatarGenerator
type mockAvatarGenerator struct {
	generateFunc func(ctx context.Context, displayName string) (string, error)
	lastName     string
}

func (m *mockAvatarGenerator) GenerateAvatar(ctx context.Context, displayName string) (string, error) {
	m.lastName = displayName
	if m.generateFunc != nil {
		return m.generateFunc(ctx, displayName)
	}
	return "data:image/png;base64,ZmFrZQ==", nil
}

func (m *mockAvatarGenerator) Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatResponse, error) {
	return nil, errors.New("not implemented")
}

var _ ai.AvatarGenerator = (*mockAvatarGenerator)(nil)

func avatarJob(userID uuid.UUID, displayName string) *queue.Job {
	job := queue.NewJob(queue.JobTypeAvatarGeneration, userID)
	if displayName != "" {
		job.Metadata[queue.MetadataDisplayName] = displayName
	}
	return job
}

func TestAvatarWorker_SavesGeneratedAvatar(t *testing.T) {
	t.Parallel()

	users := &mockUserRepo{}
	notifications := &mockNotificationRepo{}
	gen := &mockAvatarGenerator{}
	w := NewAvatarWorker(gen, users, notifications, nil)

	userID := uuid.New()
	if err := w.ProcessAvatarGenerationJob(context.Background(), avatarJob(userID, "Ana")); err != nil {
		t.Fatalf("ProcessAvatarGenerationJob failed: %v", err)
	}

	if gen.lastName != "Ana" {
		t.Errorf("generator called with %q, want Ana", gen.lastName)
	}
	if len(users.updated) != 1 {
		t.Fatalf("expected 1 user update, got %d", len(users.updated))
	}
	saved := users.updated[0]
	if saved.AvatarURL == nil || *saved.AvatarURL != "data:image/png;base64,ZmFrZQ==" {
		t.Errorf("avatar URL not saved: %v", saved.AvatarURL)
	}
	if len(notifications.created) != 1 {
		t.Errorf("expected avatar-ready notification, got %d", len(notifications.created))
	}
}

func TestAvatarWorker_FallsBackToProfileName(t *testing.T) {
	t.Parallel()

	name := "Beatriz"
	users := &mockUserRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, Email: "bia@example.com", Name: &name}, nil
		},
	}
	gen := &mockAvatarGenerator{}
	w := NewAvatarWorker(gen, users, nil, nil)

	if err := w.ProcessAvatarGenerationJob(context.Background(), avatarJob(uuid.New(), "")); err != nil {
		t.Fatalf("ProcessAvatarGenerationJob failed: %v", err)
	}
	if gen.lastName != "Beatriz" {
		t.Errorf("generator called with %q, want profile name Beatriz", gen.lastName)
	}
}

func TestAvatarWorker_DeclinedGenerationKeepsDefaultIcon(t *testing.T) {
	t.Parallel()

	users := &mockUserRepo{}
	gen := &mockAvatarGenerator{
		generateFunc: func(ctx context.Context, displayName string) (string, error) {
			return "", nil
		},
	}
	w := NewAvatarWorker(gen, users, &mockNotificationRepo{}, nil)

	if err := w.ProcessAvatarGenerationJob(context.Background(), avatarJob(uuid.New(), "Ana")); err != nil {
		t.Fatalf("declined generation should not error: %v", err)
	}
	if len(users.updated) != 0 {
		t.Errorf("expected no user update for declined generation, got %d", len(users.updated))
	}
}

func TestAvatarWorker_GeneratorError(t *testing.T) {
	t.Parallel()

	users := &mockUserRepo{}
	gen := &mockAvatarGenerator{
		generateFunc: func(ctx context.Context, displayName string) (string, error) {
			return "", &ai.APIError{StatusCode: 429, Message: "rate limited"}
		},
	}
	w := NewAvatarWorker(gen, users, nil, nil)

	err := w.ProcessAvatarGenerationJob(context.Background(), avatarJob(uuid.New(), "Ana"))
	if err == nil {
		t.Fatal("expected error from failed generation")
	}
	if !ai.IsRateLimitError(err) {
		t.Errorf("wrapped error should still classify as rate limit: %v", err)
	}
	if len(users.updated) != 0 {
		t.Errorf("expected no user update after failure, got %d", len(users.updated))
	}
}

func TestAvatarWorker_UnknownUser(t *testing.T) {
	t.Parallel()

	users := &mockUserRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return nil, errors.New("user not found")
		},
	}
	w := NewAvatarWorker(&mockAvatarGenerator{}, users, nil, nil)

	if err := w.ProcessAvatarGenerationJob(context.Background(), avatarJob(uuid.New(), "Ana")); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestAvatarWorker_NotificationFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	users := &mockUserRepo{}
	notifications := &mockNotificationRepo{
		createFunc: func(ctx context.Context, n *models.Notification) error {
			return errors.New("insert failed")
		},
	}
	w := NewAvatarWorker(&mockAvatarGenerator{}, users, notifications, nil)

	if err := w.ProcessAvatarGenerationJob(context.Background(), avatarJob(uuid.New(), "Ana")); err != nil {
		t.Fatalf("notification failure must not fail the job: %v", err)
	}
	if len(users.updated) != 1 {
		t.Errorf("avatar should still be saved, got %d updates", len(users.updated))
	}
}
