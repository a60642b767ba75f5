package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/middleware"
	"github.com/habitosecreto/habito-api/internal/queue"
	"github.com/habitosecreto/habito-api/internal/validation"
)

// ProfileHandler handles profile requests
type ProfileHandler struct {
	userRepo database.UserRepositoryInterface
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userRepo database.UserRepositoryInterface, jobQueue queue.JobQueue, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{userRepo: userRepo, jobQueue: jobQueue, logger: logger}
}

// RegisterRoutes registers profile routes on the given router
// The router should already have the /profile prefix
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProfile).Methods("GET")
	r.HandleFunc("", h.UpdateProfile).Methods("PATCH")
	r.HandleFunc("/avatar", h.GenerateAvatar).Methods("POST")
}

// MaxProfileNameLength caps the profile name
const MaxProfileNameLength = 100

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty"`
}

// GetProfile returns the authenticated user's profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the profile name
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpdateProfileRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.Name != nil {
		sanitized := validation.SanitizeText(*req.Name)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxProfileNameLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Name exceeds maximum length of %d characters", MaxProfileNameLength))
			return
		}
		user.Name = &sanitized
	}

	if err := h.userRepo.Update(r.Context(), user); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// GenerateAvatar queues avatar generation for the user. The image is rendered
// asynchronously by the worker and lands on the profile when done.
func (h *ProfileHandler) GenerateAvatar(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Avatar generation is not available")
		return
	}

	job := queue.NewJob(queue.JobTypeAvatarGeneration, user.ID)
	job.Metadata[queue.MetadataDisplayName] = user.DisplayName()

	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Warn("failed to enqueue avatar job",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to queue avatar generation")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"status": "queued",
		"job_id": job.ID,
	})
}
