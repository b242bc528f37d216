package formatter

import (
	"fmt"
	"strings"

	"notewise/internal/syncer"
)

type markdownFormatter struct{}

// NewMarkdown creates a formatter that emits the sync result as Markdown
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(result *syncer.Result) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Vault Sync\n\n")

	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Synced | %d |\n", result.Successful)
	fmt.Fprintf(&b, "| Skipped | %d |\n", result.Skipped)
	fmt.Fprintf(&b, "| Failed | %d |\n", result.Failed)
	if result.Duration != "" {
		fmt.Fprintf(&b, "| Duration | %s |\n", result.Duration)
	}
	b.WriteString("\n")

	if len(result.Errors) > 0 {
		b.WriteString("## Failures\n\n")
		for _, syncErr := range result.Errors {
			fmt.Fprintf(&b, "- `%s`: %s\n", syncErr.File, syncErr.Error)
		}
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}
