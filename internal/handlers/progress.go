package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/habitosecreto/habito-api/internal/history"
	"github.com/habitosecreto/habito-api/internal/middleware"
	"github.com/habitosecreto/habito-api/internal/queue"
	"github.com/habitosecreto/habito-api/internal/session"
)

// SessionManager is the slice of the session manager the progress handlers
// depend on. It enables mock implementations in tests.
type SessionManager interface {
	State(ctx context.Context, userID uuid.UUID) (session.State, error)
	Refresh(ctx context.Context, userID uuid.UUID) (session.State, error)
	Complete(ctx context.Context, userID uuid.UUID) (session.State, bool, error)
}

// ProgressHandler serves the daily goal state, the trailing window and the
// calendar projection.
type ProgressHandler struct {
	sessions SessionManager
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(sessions SessionManager, jobQueue queue.JobQueue, logger *zap.Logger) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHandler{sessions: sessions, jobQueue: jobQueue, logger: logger}
}

// RegisterRoutes registers progress routes on the given router
// The router should already have the /progress prefix
func (h *ProgressHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProgress).Methods("GET")
	r.HandleFunc("/refresh", h.RefreshProgress).Methods("POST")
	r.HandleFunc("/complete", h.Complete).Methods("POST")
	r.HandleFunc("/calendar", h.GetCalendar).Methods("GET")
}

// ProgressResponse represents the user's current history state
type ProgressResponse struct {
	Today     string          `json:"today"`
	Window    []history.Entry `json:"window"`
	Streak    int             `json:"streak"`
	DoneToday bool            `json:"done_today"`
}

// CompleteResponse is a ProgressResponse plus whether this call applied the
// completion. Completed is false when today was already done.
type CompleteResponse struct {
	ProgressResponse
	Completed bool `json:"completed"`
}

// CalendarResponse represents a classified month grid
type CalendarResponse struct {
	Month int            `json:"month"`
	Year  int            `json:"year"`
	Cells []history.Cell `json:"cells"`
}

func progressResponse(state session.State) ProgressResponse {
	return ProgressResponse{
		Today:     state.Today.String(),
		Window:    state.Window,
		Streak:    state.Streak,
		DoneToday: state.DoneToday,
	}
}

// GetProgress returns the current window, streak and daily goal state
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	state, err := h.sessions.State(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load progress")
		return
	}

	respondJSON(w, http.StatusOK, progressResponse(state))
}

// RefreshProgress forces a reload from the log table
func (h *ProgressHandler) RefreshProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	state, err := h.sessions.Refresh(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to refresh progress")
		return
	}

	respondJSON(w, http.StatusOK, progressResponse(state))
}

// Complete marks today's goal done. A duplicate completion is answered with
// the current state and completed=false rather than an error, so retries and
// double taps stay harmless.
func (h *ProgressHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	state, completed, err := h.sessions.Complete(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record completion")
		return
	}

	if completed {
		h.enqueuePartnerSync(ctx, user.ID, state)
	}

	respondJSON(w, http.StatusOK, CompleteResponse{
		ProgressResponse: progressResponse(state),
		Completed:        completed,
	})
}

// enqueuePartnerSync schedules the async partner notification. Queue failures
// are logged and swallowed: the completion is already durable.
func (h *ProgressHandler) enqueuePartnerSync(ctx context.Context, userID uuid.UUID, state session.State) {
	if h.jobQueue == nil {
		return
	}

	job := queue.NewJob(queue.JobTypePartnerSync, userID)
	job.Metadata[queue.MetadataDate] = state.Today.String()
	job.Metadata[queue.MetadataStreak] = state.Streak
	expiry := time.Now().Add(24 * time.Hour)
	job.NotAfter = &expiry

	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Warn("failed to enqueue partner sync job",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// GetCalendar returns the classified grid for a displayed month. Month and
// year default to today's.
func (h *ProgressHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	state, err := h.sessions.State(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load progress")
		return
	}

	month := state.Today.Month
	year := state.Today.Year

	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil || parsed < 1 || parsed > 12 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "month must be between 1 and 12")
			return
		}
		month = time.Month(parsed)
	}
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil || parsed < 1970 || parsed > 9999 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "year is out of range")
			return
		}
		year = parsed
	}

	cells := history.ProjectMonth(month, year, state.Window, state.Today)

	respondJSON(w, http.StatusOK, CalendarResponse{
		Month: int(month),
		Year:  year,
		Cells: cells,
	})
}
