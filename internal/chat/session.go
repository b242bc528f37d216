package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"notewise/internal/ai"
	"notewise/internal/logger"
	"notewise/internal/vectorize"
)

// ContextProvider enriches a user message with note context. A nil
// provider disables retrieval; the session then talks to the model
// directly.
type ContextProvider interface {
	RetrieveContext(ctx context.Context, query string, filter vectorize.Filter) string
}

// Session is a multi-turn conversation with the model. It keeps two
// histories: the transcript of what the user typed and saw, and the
// API history where user messages carry retrieved note context. Both
// are rolled back together when a turn fails, so a retry sends a
// clean history.
//
// Session is shell-agnostic: the interactive TUI and the one-shot
// CLI command drive the same type.
type Session struct {
	completer ai.Completer
	retriever ContextProvider
	log       *logger.Logger

	mu       sync.Mutex
	display  []ai.Message
	api      []ai.Message
	inFlight bool

	// now is swapped in tests to pin the system message date.
	now func() time.Time
}

// NewSession creates a session over the given completion client.
func NewSession(completer ai.Completer, retriever ContextProvider, log *logger.Logger) (*Session, error) {
	if completer == nil {
		return nil, ai.NewConfigurationError("chat", "completer", "chat session requires a completion client")
	}
	return &Session{
		completer: completer,
		retriever: retriever,
		log:       log.WithComponent("chat"),
		now:       time.Now,
	}, nil
}

// Send runs one turn: enrich the message with note context, call the
// model with the full API history, and commit both histories on
// success. A blank message is a no-op. On failure the turn is rolled
// back and the error returned.
func (s *Session) Send(ctx context.Context, message string, filter vectorize.Filter) (string, error) {
	enriched, err := s.begin(ctx, message, filter)
	if err != nil || enriched == "" {
		return "", err
	}

	resp, err := s.completer.Complete(ctx, &ai.CompletionRequest{Messages: s.apiSnapshot()})
	if err != nil {
		s.rollback()
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	s.commit(resp.Content)
	return resp.Content, nil
}

// SendStream is Send with a streamed response. Chunks are forwarded
// as they arrive; the assistant message is committed only once the
// stream finishes cleanly, and rolled back otherwise.
func (s *Session) SendStream(ctx context.Context, message string, filter vectorize.Filter) (<-chan ai.StreamChunk, error) {
	enriched, err := s.begin(ctx, message, filter)
	if err != nil {
		return nil, err
	}
	if enriched == "" {
		empty := make(chan ai.StreamChunk)
		close(empty)
		return empty, nil
	}

	upstream, err := s.completer.CompleteStream(ctx, &ai.CompletionRequest{Messages: s.apiSnapshot(), Stream: true})
	if err != nil {
		s.rollback()
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	out := make(chan ai.StreamChunk)
	go func() {
		defer close(out)
		var content strings.Builder
		for chunk := range upstream {
			if chunk.Error != nil {
				s.rollback()
				out <- chunk
				return
			}
			content.WriteString(chunk.Content)
			out <- chunk
		}
		s.commit(content.String())
	}()

	return out, nil
}

// Clear drops both histories. The next Send starts a fresh
// conversation with a fresh system message.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = nil
	s.api = nil
}

// Transcript returns a copy of the user-visible history.
func (s *Session) Transcript() []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	transcript := make([]ai.Message, len(s.display))
	copy(transcript, s.display)
	return transcript
}

// begin validates the message, retrieves context, and stages the user
// turn in both histories. It returns the enriched message, or "" for
// a blank no-op message.
func (s *Session) begin(ctx context.Context, message string, filter vectorize.Filter) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return "", fmt.Errorf("a message is already being processed")
	}
	s.inFlight = true
	if len(s.api) == 0 {
		s.api = append(s.api, ai.Message{Role: ai.RoleSystem, Content: s.systemMessage()})
	}
	s.mu.Unlock()

	enriched := message
	if s.retriever != nil {
		enriched = s.retriever.RetrieveContext(ctx, message, filter)
	}

	s.mu.Lock()
	s.display = append(s.display, ai.Message{Role: ai.RoleUser, Content: message})
	s.api = append(s.api, ai.Message{Role: ai.RoleUser, Content: enriched})
	s.mu.Unlock()

	return enriched, nil
}

func (s *Session) apiSnapshot() []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]ai.Message, len(s.api))
	copy(snapshot, s.api)
	return snapshot
}

// commit records the assistant reply and ends the turn.
func (s *Session) commit(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply := ai.Message{Role: ai.RoleAssistant, Content: content}
	s.display = append(s.display, reply)
	s.api = append(s.api, reply)
	s.inFlight = false
}

// rollback removes the staged user turn so the histories match the
// last successful exchange.
func (s *Session) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.display) > 0 {
		s.display = s.display[:len(s.display)-1]
	}
	if len(s.api) > 0 {
		s.api = s.api[:len(s.api)-1]
	}
	s.inFlight = false
}

func (s *Session) systemMessage() string {
	return fmt.Sprintf(
		"You are a helpful AI assistant that analyzes notes and provides insights. Consider the context carefully before answering questions. The current date is %s.",
		s.now().Format("2006-01-02"))
}
