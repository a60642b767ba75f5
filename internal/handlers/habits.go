package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/middleware"
	"github.com/habitosecreto/habito-api/internal/models"
	"github.com/habitosecreto/habito-api/internal/validation"
)

// HabitHandler handles habit catalog and selection requests
type HabitHandler struct {
	habitRepo database.HabitRepositoryInterface
}

// NewHabitHandler creates a new habit handler
func NewHabitHandler(habitRepo database.HabitRepositoryInterface) *HabitHandler {
	return &HabitHandler{habitRepo: habitRepo}
}

// RegisterRoutes registers habit routes on the given router
// The router should already have the /habits prefix
func (h *HabitHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCatalog).Methods("GET")
	r.HandleFunc("/custom", h.CreateCustomHabit).Methods("POST")
	r.HandleFunc("/selection", h.GetSelection).Methods("GET")
	r.HandleFunc("/selection", h.ReplaceSelection).Methods("PUT")
}

const (
	// MaxHabitNameLength is the maximum length for a custom habit name
	MaxHabitNameLength = 100
)

// CreateCustomHabitRequest represents a custom habit creation request
type CreateCustomHabitRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// ReplaceSelectionRequest represents a habit selection replacement
type ReplaceSelectionRequest struct {
	HabitIDs []uuid.UUID `json:"habit_ids" validate:"required"`
}

// SelectionResponse represents the current habit selection
type SelectionResponse struct {
	Habits []*models.Habit `json:"habits"`
	Min    int             `json:"min"`
	Max    int             `json:"max"`
}

// ListCatalog lists the habit catalog
func (h *HabitHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	habits, err := h.habitRepo.ListCatalog(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve habits")
		return
	}

	respondJSON(w, http.StatusOK, habits)
}

// CreateCustomHabit adds a user-named habit to the catalog. Custom habits
// always land in the custom category.
func (h *HabitHandler) CreateCustomHabit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateCustomHabitRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}
	if len(req.Name) > MaxHabitNameLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Name exceeds maximum length of %d characters", MaxHabitNameLength))
		return
	}

	habit := &models.Habit{
		ID:       uuid.New(),
		Name:     req.Name,
		Category: models.CategoryCustom,
	}
	if err := h.habitRepo.Upsert(r.Context(), habit); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create habit")
		return
	}

	respondJSON(w, http.StatusCreated, habit)
}

// GetSelection returns the authenticated user's tracked habits
func (h *HabitHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	habits, err := h.habitRepo.ListSelection(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve habit selection")
		return
	}

	respondJSON(w, http.StatusOK, SelectionResponse{
		Habits: habits,
		Min:    models.MinSelectedHabits,
		Max:    models.MaxSelectedHabits,
	})
}

// ReplaceSelection swaps the user's tracked habits. The selection cap and
// floor are enforced here, the repository only guarantees atomicity.
func (h *HabitHandler) ReplaceSelection(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ReplaceSelectionRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if len(req.HabitIDs) < models.MinSelectedHabits {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("At least %d habits must be selected", models.MinSelectedHabits))
		return
	}
	if len(req.HabitIDs) > models.MaxSelectedHabits {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("At most %d habits can be selected", models.MaxSelectedHabits))
		return
	}

	seen := make(map[uuid.UUID]bool, len(req.HabitIDs))
	ctx := r.Context()
	for _, id := range req.HabitIDs {
		if seen[id] {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Duplicate habit in selection")
			return
		}
		seen[id] = true
		if _, err := h.habitRepo.GetByID(ctx, id); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Unknown habit: %s", id))
			return
		}
	}

	if err := h.habitRepo.ReplaceSelection(ctx, user.ID, req.HabitIDs); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update habit selection")
		return
	}

	habits, err := h.habitRepo.ListSelection(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve habit selection")
		return
	}

	respondJSON(w, http.StatusOK, SelectionResponse{
		Habits: habits,
		Min:    models.MinSelectedHabits,
		Max:    models.MaxSelectedHabits,
	})
}
