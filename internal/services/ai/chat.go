package ai

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxSessionMessages caps the conversation window sent to the model. Older
// messages fall off the front.
const MaxSessionMessages = 40

// ChatService manages partner chat sessions
type ChatService struct {
	provider AIProvider
	sessions map[uuid.UUID]*ChatSession
	mu       sync.RWMutex // Protects concurrent access to sessions map
}

// ChatSession represents an active chat session with the anonymous partner
type ChatSession struct {
	UserID       uuid.UUID
	Messages     []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
}

// NewChatService creates a new chat service
func NewChatService(provider AIProvider) *ChatService {
	return &ChatService{
		provider: provider,
		sessions: make(map[uuid.UUID]*ChatSession),
	}
}

// GetOrCreateSession gets or creates a chat session for a user
func (s *ChatService) GetOrCreateSession(userID uuid.UUID) *ChatSession {
	// Try read lock first for fast path
	s.mu.RLock()
	if session, exists := s.sessions[userID]; exists {
		s.mu.RUnlock()
		session.LastActivity = time.Now()
		return session
	}
	s.mu.RUnlock()

	// Need to create new session, acquire write lock
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine might have created it)
	if session, exists := s.sessions[userID]; exists {
		session.LastActivity = time.Now()
		return session
	}

	session := &ChatSession{
		UserID:       userID,
		Messages:     make([]ChatMessage, 0),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}

	s.sessions[userID] = session
	return session
}

// AddMessage adds a message to the session
func (s *ChatService) AddMessage(session *ChatSession, role string, content string) {
	session.Messages = append(session.Messages, ChatMessage{
		Role:    role,
		Content: content,
	})
	if len(session.Messages) > MaxSessionMessages {
		session.Messages = session.Messages[len(session.Messages)-MaxSessionMessages:]
	}
	session.LastActivity = time.Now()
}

// GetPartnerReply sends the session to the provider and returns the partner's
// reply. Provider failures degrade to a canned reply rather than an error so
// the conversation never stalls.
func (s *ChatService) GetPartnerReply(ctx context.Context, session *ChatSession) *ChatResponse {
	response, err := s.provider.Chat(ctx, session.Messages)
	if err != nil {
		response = &ChatResponse{Message: FallbackErrorReply, Fallback: true}
	}

	s.AddMessage(session, "assistant", response.Message)

	return response
}

// CloseSession closes a chat session
func (s *ChatService) CloseSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
