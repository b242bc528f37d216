package formatter

import (
	"fmt"

	"notewise/internal/syncer"
)

// Formatter defines the interface for sync result output formatting
type Formatter interface {
	Format(result *syncer.Result) ([]byte, error)
}

// New creates a formatter for the named output format.
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
