package vault

import (
	"time"
)

// Note describes one Markdown file in the vault. Paths are always
// vault-relative and slash-separated, regardless of platform.
type Note struct {
	// Path is the vault-relative path, e.g. "projects/roadmap.md"
	Path string `json:"path"`

	// Name is the file name including extension, e.g. "roadmap.md"
	Name string `json:"name"`

	// Extension without the leading dot, e.g. "md"
	Extension string `json:"extension"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// EventType classifies a vault change.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is one change to a note, reported by the watcher.
type Event struct {
	Type EventType
	Path string
}
