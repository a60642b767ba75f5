package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/middleware"
)

// NotificationHandler handles notification requests
type NotificationHandler struct {
	notificationRepo database.NotificationRepositoryInterface
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationRepo database.NotificationRepositoryInterface) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// RegisterRoutes registers notification routes on the given router
// The router should already have the /notifications prefix
func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListNotifications).Methods("GET")
	r.HandleFunc("/{id}/read", h.MarkRead).Methods("POST")
}

const (
	// DefaultNotificationLimit is how many notifications are returned by default
	DefaultNotificationLimit = 50
	// MaxNotificationLimit caps the limit query parameter
	MaxNotificationLimit = 200
)

// ListNotifications lists the user's notifications, newest first
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := DefaultNotificationLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > MaxNotificationLimit {
				limit = MaxNotificationLimit
			} else {
				limit = parsed
			}
		}
	}

	notifications, err := h.notificationRepo.ListByUser(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve notifications")
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

// MarkRead flags one notification as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid notification ID")
		return
	}

	// MarkRead is scoped to the owner, so a foreign ID comes back not found.
	if err := h.notificationRepo.MarkRead(r.Context(), user.ID, id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Notification not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
