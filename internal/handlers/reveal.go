package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/habitosecreto/habito-api/internal/history"
	"github.com/habitosecreto/habito-api/internal/middleware"
)

// RevealThreshold is the completed-day count that unlocks the partner's
// identity. The count is cumulative, missed days delay the reveal but never
// reset it.
const RevealThreshold = history.WindowSize

// PartnerName is the identity unlocked at the end of the challenge. Until
// then the chat persona keeps it secret.
const PartnerName = "Alexandre Silva"

// RevealHandler serves the partner identity reveal
type RevealHandler struct {
	sessions SessionManager
}

// NewRevealHandler creates a new reveal handler
func NewRevealHandler(sessions SessionManager) *RevealHandler {
	return &RevealHandler{sessions: sessions}
}

// RegisterRoutes registers reveal routes on the given router
func (h *RevealHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/reveal", h.GetReveal).Methods("GET")
}

// PartnerInfo is the revealed identity
type PartnerInfo struct {
	Name string `json:"name"`
}

// RevealResponse reports reveal progress, with the partner identity included
// only once unlocked.
type RevealResponse struct {
	Unlocked      bool         `json:"unlocked"`
	DaysCompleted int          `json:"days_completed"`
	DaysRemaining int          `json:"days_remaining"`
	Partner       *PartnerInfo `json:"partner,omitempty"`
}

// GetReveal returns reveal progress for the authenticated user
func (h *RevealHandler) GetReveal(w http.ResponseWriter, r *http.Request) {
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

	resp := RevealResponse{
		DaysCompleted: state.Streak,
	}
	if state.Streak >= RevealThreshold {
		resp.Unlocked = true
		resp.Partner = &PartnerInfo{Name: PartnerName}
	} else {
		resp.DaysRemaining = RevealThreshold - state.Streak
	}

	respondJSON(w, http.StatusOK, resp)
}
