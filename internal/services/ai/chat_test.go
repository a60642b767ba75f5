package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

// stubProvider returns a fixed response or error.
type stubProvider struct {
	response *ChatResponse
	err      error
	calls    int
}

func (p *stubProvider) Chat(_ context.Context, _ []ChatMessage) (*ChatResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func TestGetOrCreateSession_ReusesSession(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&stubProvider{response: &ChatResponse{Message: "oi"}})
	userID := uuid.New()

	first := svc.GetOrCreateSession(userID)
	second := svc.GetOrCreateSession(userID)

	if first != second {
		t.Error("expected the same session for the same user")
	}

	other := svc.GetOrCreateSession(uuid.New())
	if other == first {
		t.Error("expected a distinct session for a different user")
	}
}

func TestGetPartnerReply_AppendsAssistantMessage(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&stubProvider{response: &ChatResponse{Message: "Bora! 💪"}})
	session := svc.GetOrCreateSession(uuid.New())
	svc.AddMessage(session, "user", "consegui beber 2L hoje")

	resp := svc.GetPartnerReply(context.Background(), session)

	if resp.Fallback {
		t.Error("expected a real reply, got fallback")
	}
	if resp.Message != "Bora! 💪" {
		t.Errorf("unexpected reply: %q", resp.Message)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("expected 2 messages in session, got %d", len(session.Messages))
	}
	if session.Messages[1].Role != "assistant" || session.Messages[1].Content != "Bora! 💪" {
		t.Errorf("assistant message not recorded: %+v", session.Messages[1])
	}
}

func TestGetPartnerReply_FallbackOnProviderError(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&stubProvider{err: errors.New("connection reset")})
	session := svc.GetOrCreateSession(uuid.New())
	svc.AddMessage(session, "user", "tudo bem?")

	resp := svc.GetPartnerReply(context.Background(), session)

	if !resp.Fallback {
		t.Error("expected fallback flag on provider error")
	}
	if resp.Message != FallbackErrorReply {
		t.Errorf("expected canned error reply, got %q", resp.Message)
	}
	// The fallback still lands in the transcript so the conversation flows.
	if len(session.Messages) != 2 {
		t.Fatalf("expected fallback recorded in session, got %d messages", len(session.Messages))
	}
}

func TestAddMessage_TrimsToWindow(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&stubProvider{response: &ChatResponse{Message: "ok"}})
	session := svc.GetOrCreateSession(uuid.New())

	for i := 0; i < MaxSessionMessages+10; i++ {
		svc.AddMessage(session, "user", fmt.Sprintf("mensagem %d", i))
	}

	if len(session.Messages) != MaxSessionMessages {
		t.Fatalf("expected window of %d messages, got %d", MaxSessionMessages, len(session.Messages))
	}
	// Oldest messages fall off the front.
	want := fmt.Sprintf("mensagem %d", 10)
	if session.Messages[0].Content != want {
		t.Errorf("expected oldest surviving message %q, got %q", want, session.Messages[0].Content)
	}
}

func TestCloseSession(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&stubProvider{response: &ChatResponse{Message: "ok"}})
	userID := uuid.New()

	first := svc.GetOrCreateSession(userID)
	svc.AddMessage(first, "user", "oi")
	svc.CloseSession(userID)

	second := svc.GetOrCreateSession(userID)
	if second == first {
		t.Error("expected a fresh session after close")
	}
	if len(second.Messages) != 0 {
		t.Errorf("expected empty transcript after close, got %d messages", len(second.Messages))
	}
}
