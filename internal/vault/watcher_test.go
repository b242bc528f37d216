package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, events <-chan Event, wantType EventType, wantPath string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type == wantType && event.Path == wantPath {
				return
			}
			// Editors and filesystems produce extra events; keep draining.
		case <-deadline:
			t.Fatalf("timed out waiting for %s event on %s", wantType, wantPath)
		}
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "existing.md", "before")

	scanner := NewScanner(root, testLogger(t))
	watcher, err := NewWatcher(scanner, testLogger(t))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	writeNote(t, root, "fresh.md", "new note")
	waitForEvent(t, watcher.Events(), EventCreated, "fresh.md")

	writeNote(t, root, "existing.md", "after")
	waitForEvent(t, watcher.Events(), EventModified, "existing.md")

	if err := os.Remove(filepath.Join(root, "existing.md")); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, watcher.Events(), EventDeleted, "existing.md")
}

func TestWatcherIgnoresNonNotes(t *testing.T) {
	root := t.TempDir()
	scanner := NewScanner(root, testLogger(t))
	watcher, err := NewWatcher(scanner, testLogger(t))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	writeNote(t, root, "attachment.png", "binary-ish")

	select {
	case event := <-watcher.Events():
		t.Fatalf("unexpected event %s for %s", event.Type, event.Path)
	case <-time.After(300 * time.Millisecond):
	}
}
