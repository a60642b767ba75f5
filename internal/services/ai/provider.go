package ai

import (
	"context"
)

// AIProvider is the interface for AI providers
type AIProvider interface {
	// Chat handles a chat message and returns the AI response
	Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error)
}

// AvatarGenerator is an optional interface for providers that can render
// profile avatars.
type AvatarGenerator interface {
	AIProvider
	// GenerateAvatar renders an abstract profile avatar for the given display
	// name and returns it as a data URL. An empty string with a nil error
	// means the provider produced no image and the caller should fall back to
	// the default icon.
	GenerateAvatar(ctx context.Context, displayName string) (string, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents a response from the AI chat
type ChatResponse struct {
	Message  string `json:"message"`
	Fallback bool   `json:"fallback,omitempty"` // true when a canned reply was substituted
}

// ProviderFactory creates an AI provider based on the provider type
type ProviderFactory func(config map[string]string) (AIProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (AIProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
