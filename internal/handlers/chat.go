package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/habitosecreto/habito-api/internal/middleware"
	"github.com/habitosecreto/habito-api/internal/services/ai"
	"github.com/habitosecreto/habito-api/internal/validation"
)

// ChatHandler handles partner chat requests
type ChatHandler struct {
	chatService *ai.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *ai.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.StartChat).Methods("POST")
	r.HandleFunc("/chat/message", h.SendMessage).Methods("POST")
}

// MaxChatMessageLength caps a single chat message
const MaxChatMessageLength = 2000

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// StartChat starts a chat session and returns SSE stream
func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	// Set up SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Get or create chat session
	session := h.chatService.GetOrCreateSession(user.ID)

	// Send initial connection message
	if _, err := fmt.Fprintf(w, "data: %s\n\n", h.formatSSEMessage("connected", map[string]any{
		"message":    "Chat session started",
		"session_id": session.UserID.String(),
	})); err != nil {
		log.Printf("Failed to write SSE message: %v", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if ok {
		flusher.Flush()
	}

	// Keep connection alive with ping every 30 seconds
	ctx := r.Context()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	}()

	// Wait for context cancellation (client disconnect)
	<-ctx.Done()

	h.chatService.CloseSession(user.ID)
}

// SendMessage sends a message to the anonymous partner and returns the reply.
// Provider failures surface as a canned reply, never as an error status.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChatMessageRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	req.Message = validation.SanitizeText(req.Message)
	if req.Message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required and cannot be empty after sanitization")
		return
	}
	if len(req.Message) > MaxChatMessageLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Message exceeds maximum length of %d characters", MaxChatMessageLength))
		return
	}

	// Get or create session
	session := h.chatService.GetOrCreateSession(user.ID)

	// Add user message
	h.chatService.AddMessage(session, "user", req.Message)

	// Get the partner's reply
	response := h.chatService.GetPartnerReply(r.Context(), session)

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  response.Message,
		"fallback": response.Fallback,
	})
}

// formatSSEMessage formats a message for SSE
func (h *ChatHandler) formatSSEMessage(event string, data any) string {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`{"event":"%s","data":%s}`, event, string(jsonData))
}
