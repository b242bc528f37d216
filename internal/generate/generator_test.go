package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"notewise/internal/ai"
	"notewise/internal/logger"
)

type stubCompleter struct {
	reply    string
	err      error
	requests []*ai.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &ai.CompletionResponse{Content: s.reply}, nil
}

func (s *stubCompleter) CompleteStream(_ context.Context, req *ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	s.requests = append(s.requests, req)
	out := make(chan ai.StreamChunk)
	close(out)
	return out, nil
}

func (s *stubCompleter) ValidateConfig() error { return nil }

func newGenerator(t *testing.T, completer ai.Completer) *Generator {
	t.Helper()
	log := logger.New("test", logger.NewConfig("error"))
	gen, err := New(completer, log)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return gen
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"summarize", ModeSummarize, false},
		{"OUTLINE", ModeOutline, false},
		{" rewrite ", ModeRewrite, false},
		{"tags", ModeTags, false},
		{"haiku", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGeneratorRequiresCompleter(t *testing.T) {
	log := logger.New("test", logger.NewConfig("error"))
	if _, err := New(nil, log); err == nil {
		t.Fatal("New() with nil completer should fail")
	}
}

func TestGeneratorRejectsEmptyInput(t *testing.T) {
	gen := newGenerator(t, &stubCompleter{reply: "ignored"})
	if _, err := gen.Generate(context.Background(), ModeSummarize, "   \n"); err == nil {
		t.Fatal("Generate() with blank input should fail")
	}
}

func TestGeneratorSendsNoteAndSystemPrompt(t *testing.T) {
	completer := &stubCompleter{reply: "A short summary."}
	gen := newGenerator(t, completer)

	got, err := gen.Generate(context.Background(), ModeSummarize, "Meeting notes about the release.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "A short summary." {
		t.Errorf("Generate() = %q", got)
	}

	if len(completer.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(completer.requests))
	}
	messages := completer.requests[0].Messages
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	if messages[0].Role != ai.RoleSystem || messages[0].Content == "" {
		t.Errorf("first message should be a non-empty system prompt, got %+v", messages[0])
	}
	if messages[1].Role != ai.RoleUser {
		t.Errorf("second message role = %q, want user", messages[1].Role)
	}
	if !strings.Contains(messages[1].Content, "Meeting notes about the release.") {
		t.Errorf("user message should carry the note text:\n%s", messages[1].Content)
	}
}

func TestGeneratorPropagatesCompletionError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("model unavailable")}
	gen := newGenerator(t, completer)

	if _, err := gen.Generate(context.Background(), ModeRewrite, "some text"); err == nil {
		t.Fatal("Generate() should propagate completion errors")
	}
}

func TestGeneratorFormatsTagsFromJSON(t *testing.T) {
	completer := &stubCompleter{reply: `{"tags": ["release", "#planning", " q3 "]}`}
	gen := newGenerator(t, completer)

	got, err := gen.Generate(context.Background(), ModeTags, "Planning the Q3 release.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := "#release\n#planning\n#q3"
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestGeneratorTagsFallBackToRawReply(t *testing.T) {
	completer := &stubCompleter{reply: "release, planning"}
	gen := newGenerator(t, completer)

	got, err := gen.Generate(context.Background(), ModeTags, "Planning the Q3 release.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "release, planning" {
		t.Errorf("Generate() = %q, want raw reply", got)
	}
}
