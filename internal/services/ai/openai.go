package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultAvatarModel is the default image model for avatar generation
	DefaultAvatarModel = "dall-e-3"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// AvatarTimeout is the timeout for avatar generation, image models are slow
	AvatarTimeout = 120 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// partnerSystemPrompt is the persona the chat provider speaks with. The
// partner's real name must never surface in a reply before the reveal.
const partnerSystemPrompt = "Você é um parceiro anônimo em um desafio de 30 dias de hábitos saudáveis. " +
	"Você está no dia 12 e seu objetivo é motivar o usuário. " +
	"Não revele seu nome (Alexandre) em hipótese alguma. " +
	"Fale em Português do Brasil. Seja amigável, use emojis e aja como se você também " +
	"estivesse lutando para manter os hábitos de beber água, ler e exercitar."

// Canned partner replies, used when the upstream model returns nothing or is
// unreachable. The chat must never go silent mid-challenge.
const (
	// FallbackEmptyReply substitutes an empty model response.
	FallbackEmptyReply = "Estou focado aqui também! Vamos juntos nessa."
	// FallbackErrorReply substitutes a failed API call.
	FallbackErrorReply = "Tive uma queda na conexão, mas o foco continua! Como está seu progresso hoje?"
)

// avatarPromptTemplate shapes abstract avatars in the app's palette. The
// strict rules keep image models from drawing faces or text.
const avatarPromptTemplate = `Generate a high-quality, professional, and minimalist abstract profile avatar for a user named %q.
Style: Modern geometric abstraction, smooth gradients, soft shadows.
Palette: Emerald green (#13ec5b), deep forest greens, and dark slate backgrounds.
Composition: Centered artistic shapes or patterns.
Strict Rules: NO text, NO realistic faces, NO humans, NO letters. Only abstract shapes.`

// OpenAIProvider implements the AIProvider interface using OpenAI's API
type OpenAIProvider struct {
	client      openai.Client
	model       string
	avatarModel string
	logger      *zap.Logger
	debugMode   bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: AvatarTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:      client,
		model:       model,
		avatarModel: DefaultAvatarModel,
		logger:      logger,
		debugMode:   debugMode,
	}
}

// NewOpenAIProviderWithConfig creates a new OpenAI provider with custom configuration
func NewOpenAIProviderWithConfig(apiKey string, baseURL string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, baseURL, model, nil, false)
}

// Chat sends the conversation to the model under the partner persona and
// returns the reply.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	requestID := ExtractRequestID(ctx)
	userIDStr := ExtractUserID(ctx)

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	openAIMessages = append(openAIMessages, openai.SystemMessage(partnerSystemPrompt))

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}

	if p.logger != nil && p.debugMode {
		messagePreviews := make([]string, 0, len(messages))
		for _, msg := range messages {
			messagePreviews = append(messagePreviews, SanitizePrompt(msg.Content, false))
		}
		p.logger.Debug("llm_api_request",
			zap.String("operation", "partner_chat"),
			zap.String("model", p.model),
			zap.Int("message_count", len(openAIMessages)),
			zap.Strings("message_previews", messagePreviews),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
		)
	}

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: openAIMessages,
		// Temperature omitted - use model default to avoid "unsupported_value" errors
		// Some models only support their default temperature value
	}

	startTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(startTime)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "partner_chat"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("user_id", userIDStr),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to chat: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "partner_chat"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	if content == "" {
		return &ChatResponse{Message: FallbackEmptyReply, Fallback: true}, nil
	}

	return &ChatResponse{Message: content}, nil
}

// GenerateAvatar renders an abstract avatar for the display name and returns
// it as a base64 data URL.
func (p *OpenAIProvider) GenerateAvatar(ctx context.Context, displayName string) (string, error) {
	requestID := ExtractRequestID(ctx)
	userIDStr := ExtractUserID(ctx)

	prompt := fmt.Sprintf(avatarPromptTemplate, displayName)

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "generate_avatar"),
			zap.String("model", p.avatarModel),
			zap.Int("prompt_length", len(prompt)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
		)
	}

	startTime := time.Now()
	resp, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(p.avatarModel),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	latency := time.Since(startTime)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "generate_avatar"),
				zap.String("model", p.avatarModel),
				zap.Error(err),
				zap.String("user_id", userIDStr),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to generate avatar: %w", apiErr)
		}
		return "", fmt.Errorf("failed to generate avatar: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		// No image produced; the caller keeps the default icon.
		return "", nil
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "generate_avatar"),
			zap.String("model", p.avatarModel),
			zap.Int("response_length", len(resp.Data[0].B64JSON)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (AIProvider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		model := config["model"]
		baseURL := config["base_url"]

		return NewOpenAIProviderWithConfig(apiKey, baseURL, model), nil
	})
}
