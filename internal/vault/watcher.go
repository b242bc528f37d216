package vault

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"notewise/internal/logger"
)

// Watcher reports note changes in a vault as they happen. New
// subdirectories are added to the watch as they appear, so a watcher
// started once covers the whole tree for its lifetime.
type Watcher struct {
	scanner *Scanner
	fs      *fsnotify.Watcher
	events  chan Event
	log     *logger.Logger
}

// NewWatcher creates a recursive watcher over the scanner's vault.
func NewWatcher(scanner *Scanner, log *logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		scanner: scanner,
		fs:      fsw,
		events:  make(chan Event, 64),
		log:     log.WithComponent("watcher"),
	}

	if err := w.addTree(scanner.Root()); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// Events returns the channel of note changes. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run pumps filesystem events until the context is canceled or the
// underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error: %v", err)
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	rel, err := filepath.Rel(w.scanner.Root(), event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		if w.scanner.Contains(rel) {
			w.emit(ctx, Event{Type: EventCreated, Path: rel})
			return
		}
		// A created path may be a new directory that needs watching.
		if err := w.addTree(event.Name); err != nil {
			w.log.Debug("not watching %s: %v", rel, err)
		}

	case event.Op&fsnotify.Write == fsnotify.Write:
		if w.scanner.Contains(rel) {
			w.emit(ctx, Event{Type: EventModified, Path: rel})
		}

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		if w.scanner.Contains(rel) {
			w.emit(ctx, Event{Type: EventDeleted, Path: rel})
		}
	}
}

func (w *Watcher) emit(ctx context.Context, event Event) {
	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}

// addTree watches a directory and everything below it, skipping
// hidden directories the scanner would also skip.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
