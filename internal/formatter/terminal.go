package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"

	"notewise/internal/syncer"
)

// terminalFormatter formats sync results as plain text for terminal
// display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = true
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(result *syncer.Result) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)
	f.writeSummary(&b, result)

	if len(result.Errors) > 0 {
		f.writeFailures(&b, result.Errors)
	}

	return []byte(b.String()), nil
}

// writeSummary writes the run counters with tree-style formatting
func (f *terminalFormatter) writeSummary(b *strings.Builder, result *syncer.Result) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	b.WriteString(symbol + " Sync Summary\n")

	total := result.Successful + result.Failed + result.Skipped
	failRate := 0.0
	if total > 0 {
		failRate = float64(result.Failed) / float64(total) * 100
	}

	items := []termfmt.TreeItem{
		{Label: "Notes Seen", Value: fmt.Sprintf("%d", total)},
		{Label: "Synced", Value: fmt.Sprintf("%d", result.Successful)},
		{Label: "Skipped (empty)", Value: fmt.Sprintf("%d", result.Skipped)},
		{Label: "Failed", Value: fmt.Sprintf("%d (%.1f%%)", result.Failed, failRate)},
	}
	if result.Duration != "" {
		items = append(items, termfmt.TreeItem{Label: "Duration", Value: result.Duration, Last: true})
	} else {
		items[len(items)-1].Last = true
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

// writeFailures lists each note that failed and why
func (f *terminalFormatter) writeFailures(b *strings.Builder, errors []syncer.SyncError) {
	symbol := termfmt.GetEmoji("error", f.opts)
	b.WriteString(symbol + " Failures\n")

	items := make([]termfmt.TreeItem, 0, len(errors))
	for i, syncErr := range errors {
		items = append(items, termfmt.TreeItem{
			Label: syncErr.File,
			Value: syncErr.Error,
			Last:  i == len(errors)-1,
		})
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n")
}

func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "Vault Sync"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}
