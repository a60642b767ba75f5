package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/models"
	"github.com/habitosecreto/habito-api/internal/queue"
)

type mockUserRepo struct {
	updateErr error
	updated   []*models.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, Email: "ana@example.com"}, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, user)
	return nil
}

var _ database.UserRepositoryInterface = (*mockUserRepo)(nil)

func TestGetProfile(t *testing.T) {
	t.Parallel()

	h := NewProfileHandler(&mockUserRepo{}, nil, nil)
	rec := httptest.NewRecorder()
	h.GetProfile(rec, authedRequest("GET", "/api/v1/profile", testUser()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeData(t, rec)
	if data["email"] != "ana@example.com" {
		t.Errorf("email = %v, want ana@example.com", data["email"])
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{}
	h := NewProfileHandler(repo, nil, nil)

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, authedJSONRequest("PATCH", "/api/v1/profile", `{"name":"  Ana Paula  "}`, testUser()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(repo.updated) != 1 {
		t.Fatalf("expected 1 update, got %d", len(repo.updated))
	}
	if repo.updated[0].Name == nil || *repo.updated[0].Name != "Ana Paula" {
		t.Errorf("name = %v, want trimmed Ana Paula", repo.updated[0].Name)
	}
}

func TestUpdateProfile_InvalidName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty after sanitization", body: `{"name":"   "}`},
		{name: "too long", body: `{"name":"` + strings.Repeat("a", MaxProfileNameLength+1) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockUserRepo{}
			h := NewProfileHandler(repo, nil, nil)
			rec := httptest.NewRecorder()
			h.UpdateProfile(rec, authedJSONRequest("PATCH", "/api/v1/profile", tt.body, testUser()))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(repo.updated) != 0 {
				t.Errorf("expected no updates, got %d", len(repo.updated))
			}
		})
	}
}

func TestGenerateAvatar_Queues(t *testing.T) {
	t.Parallel()

	q := &mockQueue{}
	h := NewProfileHandler(&mockUserRepo{}, q, nil)

	rec := httptest.NewRecorder()
	h.GenerateAvatar(rec, authedRequest("POST", "/api/v1/profile/avatar", testUser()))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 avatar job, got %d", len(q.jobs))
	}
	job := q.jobs[0]
	if job.Type != queue.JobTypeAvatarGeneration {
		t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeAvatarGeneration)
	}
	if job.MetadataString(queue.MetadataDisplayName) == "" {
		t.Error("avatar job must carry the display name")
	}
}

func TestGenerateAvatar_QueueUnavailable(t *testing.T) {
	t.Parallel()

	h := NewProfileHandler(&mockUserRepo{}, nil, nil)
	rec := httptest.NewRecorder()
	h.GenerateAvatar(rec, authedRequest("POST", "/api/v1/profile/avatar", testUser()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGenerateAvatar_EnqueueFailure(t *testing.T) {
	t.Parallel()

	q := &mockQueue{enqueueErr: errors.New("broker down")}
	h := NewProfileHandler(&mockUserRepo{}, q, nil)

	rec := httptest.NewRecorder()
	h.GenerateAvatar(rec, authedRequest("POST", "/api/v1/profile/avatar", testUser()))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
