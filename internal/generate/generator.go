package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/yildizm/go-promptfmt"

	"notewise/internal/ai"
	"notewise/internal/logger"
)

// Mode selects the transformation applied to the input text.
type Mode string

const (
	ModeSummarize Mode = "summarize"
	ModeOutline   Mode = "outline"
	ModeRewrite   Mode = "rewrite"
	ModeTags      Mode = "tags"
)

// ParseMode validates a mode name from user input.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSummarize:
		return ModeSummarize, nil
	case ModeOutline:
		return ModeOutline, nil
	case ModeRewrite:
		return ModeRewrite, nil
	case ModeTags:
		return ModeTags, nil
	default:
		return "", ai.NewValidationError("mode", s, "must be one of summarize, outline, rewrite, tags")
	}
}

// tagSuggestions is the response structure requested for tag mode.
type tagSuggestions struct {
	Tags []string `json:"tags"`
}

// Generator turns note text into summaries, outlines, rewrites, or tag
// suggestions using the completion model.
type Generator struct {
	completer ai.Completer
	log       *logger.Logger
}

// New creates a generator around a completion provider.
func New(completer ai.Completer, log *logger.Logger) (*Generator, error) {
	if completer == nil {
		return nil, ai.NewConfigurationError("generate", "completer", "completion provider is required")
	}
	return &Generator{
		completer: completer,
		log:       log.WithComponent("generate"),
	}, nil
}

// Generate applies the mode's transformation to the input text.
func (g *Generator) Generate(ctx context.Context, mode Mode, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ai.NewValidationError("input", "", "input text is empty")
	}

	prompt := buildPrompt(mode, input)
	g.log.Debug("generating: mode=%s input=%d chars", mode, len(input))

	resp, err := g.completer.Complete(ctx, &ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: prompt.SystemPrompt},
			{Role: ai.RoleUser, Content: prompt.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	content := strings.TrimSpace(resp.Content)
	if mode == ModeTags {
		return formatTags(content), nil
	}
	return content, nil
}

func buildPrompt(mode Mode, input string) *promptfmt.Prompt {
	pb := promptfmt.New().
		System("You are a writing assistant for a personal note vault. Work only with the text you are given and answer in markdown.")

	switch mode {
	case ModeOutline:
		pb.User("Turn the following note into a hierarchical outline. Keep the author's wording for headings where possible.")
	case ModeRewrite:
		pb.User("Rewrite the following note for clarity and flow. Preserve its meaning, structure, and markdown formatting.")
	case ModeTags:
		pb.User("Suggest up to eight short topic tags for the following note. Tags are single lowercase words or hyphenated phrases.")
		pb.ExpectJSON(&tagSuggestions{})
	default:
		pb.User("Summarize the following note in a few sentences. Lead with the main point.")
	}

	pb.AddContext("note", input)
	return pb.Build()
}

// formatTags renders the model's tag suggestions one per line with a
// leading '#'. Falls back to the raw response when it is not the
// requested JSON shape.
func formatTags(content string) string {
	response := promptfmt.NewResponse(content)
	var suggestions tagSuggestions
	if result := response.TryParseJSON(&suggestions); !result.Success || len(suggestions.Tags) == 0 {
		return content
	}

	tags := make([]string, 0, len(suggestions.Tags))
	for _, tag := range suggestions.Tags {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag != "" {
			tags = append(tags, "#"+tag)
		}
	}
	return strings.Join(tags, "\n")
}
