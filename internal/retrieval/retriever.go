package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"notewise/internal/ai"
	"notewise/internal/logger"
	"notewise/internal/syncstate"
	"notewise/internal/vectorize"
)

const (
	// DefaultTopK is how many nearest neighbors are requested per query.
	DefaultTopK = 3

	// DefaultMinScore is the similarity threshold below which a match
	// is not considered relevant.
	DefaultMinScore = 0.7
)

// Querier is the slice of the vector index API the retriever needs.
type Querier interface {
	Query(ctx context.Context, req *vectorize.QueryRequest) (*vectorize.QueryResult, error)
}

// Reader resolves a vault-relative path to note content.
type Reader interface {
	Read(relPath string) (string, error)
}

// Options tune a retriever. Zero values fall back to defaults.
type Options struct {
	TopK      int
	MinScore  float64
	Namespace string
}

// NoteContext is one retrieved piece of context, ordered by relevance.
type NoteContext struct {
	Path    string
	Link    string
	Score   float64
	Content string
}

// Retriever enriches a query with relevant note content from the
// vector index. Retrieval is best-effort: any failure along the way
// degrades to the original query so the conversation can continue
// without context.
type Retriever struct {
	embedder ai.Embedder
	index    Querier
	store    *syncstate.Store
	reader   Reader
	opts     Options
	log      *logger.Logger
}

// New creates a retriever over the given clients and state.
func New(embedder ai.Embedder, index Querier, store *syncstate.Store, reader Reader, opts Options, log *logger.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, ai.NewConfigurationError("retrieval", "embedder", "retriever requires an embedding client")
	}
	if index == nil {
		return nil, ai.NewConfigurationError("retrieval", "index", "retriever requires a vector index client")
	}
	if store == nil {
		return nil, ai.NewConfigurationError("retrieval", "store", "retriever requires a sync state store")
	}
	if reader == nil {
		return nil, ai.NewConfigurationError("retrieval", "reader", "retriever requires a note reader")
	}

	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}

	return &Retriever{
		embedder: embedder,
		index:    index,
		store:    store,
		reader:   reader,
		opts:     opts,
		log:      log.WithComponent("retrieval"),
	}, nil
}

// RetrieveContext returns the query enriched with relevant note
// content, or the query unchanged when nothing relevant is found or
// retrieval fails.
func (r *Retriever) RetrieveContext(ctx context.Context, query string, filter vectorize.Filter) string {
	contexts := r.Retrieve(ctx, query, filter)
	if len(contexts) == 0 {
		return query
	}
	return buildPrompt(query, contexts)
}

// Retrieve runs the embed-query-resolve pipeline and returns the
// surviving contexts sorted by descending score. An empty slice means
// no usable context; failures are logged, never returned.
func (r *Retriever) Retrieve(ctx context.Context, query string, filter vectorize.Filter) []NoteContext {
	vectors, err := r.embedder.Embed(ctx, query)
	if err != nil || len(vectors) == 0 {
		r.log.Warn("query embedding failed, continuing without context: %v", err)
		return nil
	}

	result, err := r.index.Query(ctx, &vectorize.QueryRequest{
		Vector:    vectors[0],
		TopK:      r.opts.TopK,
		Namespace: r.opts.Namespace,
		Filter:    filter,
	})
	if err != nil {
		r.log.Warn("vector query failed, continuing without context: %v", err)
		return nil
	}

	var contexts []NoteContext
	for _, match := range result.Matches {
		if match.Score < r.opts.MinScore {
			continue
		}
		noteCtx, ok := r.resolve(match)
		if !ok {
			continue
		}
		contexts = append(contexts, noteCtx)
	}

	// Stable keeps the index-provided order for equal scores.
	sort.SliceStable(contexts, func(i, j int) bool {
		return contexts[i].Score > contexts[j].Score
	})

	r.log.Debug("retrieved %d contexts for query", len(contexts))
	return contexts
}

// resolve maps a match back to current note content. Notes that have
// moved or vanished since indexing are dropped silently.
func (r *Retriever) resolve(match vectorize.Match) (NoteContext, bool) {
	record, err := r.store.Read(match.ID)
	if err != nil || record == nil {
		return NoteContext{}, false
	}

	content, err := r.reader.Read(record.Path)
	if err != nil {
		r.log.Debug("dropping stale match %s: %v", match.ID, err)
		return NoteContext{}, false
	}

	return NoteContext{
		Path:    record.Path,
		Link:    fmt.Sprintf("[[%s]]", record.Path),
		Score:   match.Score,
		Content: content,
	}, true
}

// buildPrompt wraps the query with the retrieved note content and
// instructions to cite the source notes.
func buildPrompt(query string, contexts []NoteContext) string {
	blocks := make([]string, len(contexts))
	links := make([]string, len(contexts))
	for i, c := range contexts {
		blocks[i] = fmt.Sprintf("[%d%% relevant from %s]:\n%s", int(math.Round(c.Score*100)), c.Link, c.Content)
		links[i] = c.Link
	}

	return fmt.Sprintf(`Context from my notes:

%s

Question: %s

Instructions: Please reference the source notes using their links (%s) when they are relevant to your response. Format your response in markdown.`,
		strings.Join(blocks, "\n\n"), query, strings.Join(links, ", "))
}
