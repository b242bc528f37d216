package formatter

import (
	"encoding/json"

	"notewise/internal/syncer"
)

type jsonFormatter struct{}

// NewJSON creates a formatter that emits the sync result as indented JSON
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(result *syncer.Result) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
