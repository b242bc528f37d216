package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"notewise/internal/emoji"
	"notewise/internal/syncer"
	"notewise/internal/vault"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and sync changes as they happen",
		Long: `Run a full sync, then keep watching the vault for note changes.

Created and modified notes are re-embedded individually; deleted notes
are removed from the index and the sync state. A periodic full sync
catches anything the watcher missed. Press Ctrl+C to stop.

Examples:
  notewise watch
  notewise watch --verbose`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.teardown()

	if !a.cfg.Sync.Enabled {
		return fmt.Errorf("sync is disabled in configuration")
	}

	engine, err := a.newEngine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial full pass so the watcher only has to keep up.
	if result, err := engine.Sync(ctx); err != nil {
		return err
	} else if isVerbose() {
		fmt.Fprintf(os.Stderr, "%s initial sync: %d synced, %d skipped, %d failed\n",
			emoji.GetEmoji("sync"), result.Successful, result.Skipped, result.Failed)
	}

	watcher, err := vault.NewWatcher(a.scanner, a.log)
	if err != nil {
		return err
	}
	defer watcher.Close()

	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "watcher stopped: %v\n", err)
		}
	}()

	fmt.Printf("%s watching %s (Ctrl+C to stop)\n", emoji.GetEmoji("watch"), a.scanner.Root())

	return watchLoop(ctx, engine, watcher, a.cfg.Sync.AutoInterval)
}

// debounceWindow coalesces the bursts of write events editors produce
// while saving a note.
const debounceWindow = 500 * time.Millisecond

func watchLoop(ctx context.Context, engine *syncer.Engine, watcher *vault.Watcher, interval time.Duration) error {
	var ticker *time.Ticker
	var tick <-chan time.Time
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	pending := make(map[string]vault.EventType)
	flush := time.NewTimer(debounceWindow)
	if !flush.Stop() {
		<-flush.C
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n%s stopped watching\n", emoji.GetEmoji("door"))
			return nil

		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			// Last event per path wins; a recreate supersedes an
			// earlier delete and vice versa.
			pending[event.Path] = event.Type
			flush.Reset(debounceWindow)

		case <-flush.C:
			for notePath, eventType := range pending {
				handleVaultEvent(ctx, engine, vault.Event{Type: eventType, Path: notePath})
			}
			clear(pending)

		case <-tick:
			if result, err := engine.Sync(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "periodic sync failed: %v\n", err)
			} else if result.Successful > 0 || result.Failed > 0 {
				fmt.Printf("%s periodic sync: %d synced, %d failed\n",
					emoji.GetEmoji("sync"), result.Successful, result.Failed)
			}
		}
	}
}

func handleVaultEvent(ctx context.Context, engine *syncer.Engine, event vault.Event) {
	switch event.Type {
	case vault.EventCreated, vault.EventModified:
		synced, err := engine.SyncNote(ctx, event.Path)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "%s failed to sync %s: %v\n", emoji.GetEmoji("error"), event.Path, err)
		case synced:
			fmt.Printf("%s synced %s\n", emoji.GetEmoji("success"), event.Path)
		}

	case vault.EventDeleted:
		name := path.Base(event.Path)
		if err := engine.Delete(ctx, name); err != nil {
			fmt.Fprintf(os.Stderr, "%s failed to remove %s: %v\n", emoji.GetEmoji("error"), event.Path, err)
		} else {
			fmt.Printf("%s removed %s\n", emoji.GetEmoji("success"), event.Path)
		}
	}
}
