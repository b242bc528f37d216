package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"notewise/internal/ai"
	"notewise/internal/logger"
	"notewise/internal/syncstate"
	"notewise/internal/vault"
	"notewise/internal/vectorize"
)

// DefaultBatchSize is how many notes are synced concurrently before
// the engine moves to the next batch.
const DefaultBatchSize = 5

// Index is the slice of the vector index API the engine needs.
type Index interface {
	Upsert(ctx context.Context, vectors []vectorize.Vector) (bool, error)
	DeleteByIDs(ctx context.Context, ids []string) (bool, error)
}

// Options tune a sync engine. Zero values fall back to defaults.
type Options struct {
	// BatchSize is the number of notes synced concurrently.
	BatchSize int

	// MaxChunkSize is the chunking threshold in characters.
	MaxChunkSize int

	// IgnoredFolders are vault-relative folder prefixes excluded from
	// syncing, matched case-insensitively.
	IgnoredFolders []string

	// Namespace scopes vectors on the index, usually the vault name.
	Namespace string
}

// SyncError names one note that failed during a run.
type SyncError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Result summarizes one sync run. Up-to-date notes count as
// successful; Skipped counts only empty notes.
type Result struct {
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Skipped    int         `json:"skipped"`
	Duration   string      `json:"duration"`
	Errors     []SyncError `json:"errors,omitempty"`
}

// Engine pushes vault notes into the vector index and records what it
// has synced. One note failing never aborts the run; failures are
// collected and reported in the Result.
type Engine struct {
	scanner  *vault.Scanner
	embedder ai.Embedder
	index    Index
	store    *syncstate.Store
	opts     Options
	log      *logger.Logger

	running sync.Mutex
}

// New creates a sync engine. The embedder and index are required; a
// nil dependency is a configuration error, not a latent panic.
func New(scanner *vault.Scanner, embedder ai.Embedder, index Index, store *syncstate.Store, opts Options, log *logger.Logger) (*Engine, error) {
	if scanner == nil {
		return nil, ai.NewConfigurationError("syncer", "vault", "sync engine requires a vault scanner")
	}
	if embedder == nil {
		return nil, ai.NewConfigurationError("syncer", "embedder", "sync engine requires an embedding client")
	}
	if index == nil {
		return nil, ai.NewConfigurationError("syncer", "index", "sync engine requires a vector index client")
	}
	if store == nil {
		return nil, ai.NewConfigurationError("syncer", "store", "sync engine requires a sync state store")
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultMaxChunkSize
	}

	return &Engine{
		scanner:  scanner,
		embedder: embedder,
		index:    index,
		store:    store,
		opts:     opts,
		log:      log.WithComponent("syncer"),
	}, nil
}

// Sync runs one full pass over the vault: scan, drop ignored folders,
// and upsert stale notes in concurrent batches. Up-to-date notes
// resolve as successful without any network call, so re-running over
// an unchanged vault is a cheap no-op. Only one Sync runs at a time; a
// second caller waits.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	e.running.Lock()
	defer e.running.Unlock()

	start := time.Now()

	if err := e.store.Ensure(); err != nil {
		return nil, err
	}

	notes, err := e.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate vault: %w", err)
	}

	eligible := notes[:0]
	for _, note := range notes {
		if e.ignored(note.Path) {
			e.log.Debug("ignoring %s: excluded folder", note.Path)
			continue
		}
		eligible = append(eligible, note)
	}
	e.log.Info("syncing vault: %d notes eligible", len(eligible))

	result := &Result{}
	var mu sync.Mutex

	for batchStart := 0; batchStart < len(eligible); batchStart += e.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batchEnd := batchStart + e.opts.BatchSize
		if batchEnd > len(eligible) {
			batchEnd = len(eligible)
		}

		var wg sync.WaitGroup
		for _, note := range eligible[batchStart:batchEnd] {
			wg.Add(1)
			go func(note vault.Note) {
				defer wg.Done()

				status, err := e.syncNote(ctx, note)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					result.Failed++
					result.Errors = append(result.Errors, SyncError{File: note.Path, Error: err.Error()})
					e.log.Error("failed to sync %s: %v", note.Path, err)
				case status == statusEmpty:
					result.Skipped++
				default:
					// Up-to-date notes count as successful; the run is
					// an idempotent no-op for them.
					result.Successful++
				}
			}(note)
		}
		wg.Wait()
	}

	result.Duration = time.Since(start).Round(time.Millisecond).String()
	e.log.Info("sync finished: %d synced, %d skipped, %d failed in %s",
		result.Successful, result.Skipped, result.Failed, result.Duration)

	return result, nil
}

// SyncNote syncs a single note by vault-relative path, used by the
// watch loop to react to individual changes.
func (e *Engine) SyncNote(ctx context.Context, relPath string) (bool, error) {
	if e.ignored(relPath) {
		return false, nil
	}
	note, err := e.scanner.Stat(relPath)
	if err != nil {
		return false, err
	}
	if err := e.store.Ensure(); err != nil {
		return false, err
	}
	status, err := e.syncNote(ctx, note)
	return status == statusSynced, err
}

// syncStatus classifies the outcome of syncing one note.
type syncStatus int

const (
	statusSynced syncStatus = iota // upserted and recorded
	statusFresh                    // up to date, nothing sent
	statusEmpty                    // whitespace-only, skipped
)

// syncNote pushes one note to the index if it is stale.
func (e *Engine) syncNote(ctx context.Context, note vault.Note) (syncStatus, error) {
	id := syncstate.VectorID(note.Name)

	record, err := e.store.Read(id)
	if err != nil {
		return statusFresh, err
	}
	// Strict equality: a restored older copy has an earlier modification
	// time than the record and must be re-synced too.
	if record != nil && record.LastModified.Equal(note.Modified) {
		e.log.Debug("%s is up to date", note.Path)
		return statusFresh, nil
	}

	content, err := e.scanner.Read(note.Path)
	if err != nil {
		return statusFresh, err
	}
	if strings.TrimSpace(content) == "" {
		e.log.Debug("skipping %s: empty", note.Path)
		return statusEmpty, nil
	}

	chunks := Chunk(content, e.opts.MaxChunkSize)
	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		embedded, err := e.embedder.Embed(ctx, chunk)
		if err != nil {
			return statusFresh, fmt.Errorf("embedding failed: %w", err)
		}
		if len(embedded) == 0 {
			return statusFresh, fmt.Errorf("embedding returned no vectors for %s", note.Path)
		}
		vectors = append(vectors, embedded[0])
	}

	metadata := DerivedMetadata(note)

	upserted, err := e.index.Upsert(ctx, []vectorize.Vector{{
		ID:        id,
		Values:    vectors[0],
		Metadata:  metadata,
		Namespace: e.opts.Namespace,
	}})
	if err != nil {
		return statusFresh, fmt.Errorf("upsert failed: %w", err)
	}
	if !upserted {
		return statusFresh, fmt.Errorf("index did not acknowledge upsert for %s", note.Path)
	}

	if err := e.store.Write(&syncstate.Record{
		ID:           id,
		Path:         note.Path,
		LastSync:     time.Now().UTC(),
		LastModified: note.Modified,
		Metadata:     metadata,
		Vectors:      vectors,
	}); err != nil {
		return statusFresh, err
	}

	e.log.Debug("synced %s (%d chunks)", note.Path, len(chunks))
	return statusSynced, nil
}

// Delete removes a note's vector and its sync record. Both removals
// are attempted even when one fails, and a missing state file is not
// an error.
func (e *Engine) Delete(ctx context.Context, name string) error {
	id := syncstate.VectorID(name)

	_, indexErr := e.index.DeleteByIDs(ctx, []string{id})
	stateErr := e.store.Delete(id)

	if err := errors.Join(indexErr, stateErr); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	e.log.Debug("deleted %s from index and state", name)
	return nil
}

// ignored reports whether a vault-relative path sits under one of the
// ignored folders. Matching is case-insensitive and tolerant of both
// separator styles.
func (e *Engine) ignored(relPath string) bool {
	if len(e.opts.IgnoredFolders) == 0 {
		return false
	}

	path := strings.ToLower(strings.ReplaceAll(relPath, "\\", "/"))
	for _, folder := range e.opts.IgnoredFolders {
		prefix := strings.ToLower(strings.ReplaceAll(folder, "\\", "/"))
		prefix = strings.Trim(prefix, "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
