package tests

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"notewise/internal/ai"
	"notewise/internal/chat"
	"notewise/internal/logger"
	"notewise/internal/retrieval"
	"notewise/internal/syncer"
	"notewise/internal/syncstate"
	"notewise/internal/vault"
	"notewise/internal/vectorize"
)

// vocabulary for the deterministic mock embedder. Each note and query
// is embedded as a term-count vector so cosine similarity behaves the
// way a real embedding model would for on-topic and off-topic text.
var vocabulary = []string{"release", "planning", "roadmap", "gardening", "sourdough"}

type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([][]float32, error) {
	vec := make([]float32, len(vocabulary))
	lower := strings.ToLower(text)
	for i, term := range vocabulary {
		vec[i] = float32(strings.Count(lower, term))
	}
	return [][]float32{vec}, nil
}

// mockIndex is an in-memory stand-in for the hosted vector index with
// real cosine-similarity queries.
type mockIndex struct {
	mu      sync.Mutex
	vectors map[string]vectorize.Vector
	upserts int
}

func newMockIndex() *mockIndex {
	return &mockIndex{vectors: make(map[string]vectorize.Vector)}
}

func (m *mockIndex) Upsert(_ context.Context, vectors []vectorize.Vector) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		m.vectors[v.ID] = v
	}
	m.upserts++
	return true, nil
}

func (m *mockIndex) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

func (m *mockIndex) DeleteByIDs(_ context.Context, ids []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.vectors, id)
	}
	return true, nil
}

func (m *mockIndex) Query(_ context.Context, req *vectorize.QueryRequest) (*vectorize.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &vectorize.QueryResult{}
	for _, v := range m.vectors {
		result.Matches = append(result.Matches, vectorize.Match{
			ID:       v.ID,
			Score:    cosine(req.Vector, v.Values),
			Metadata: v.Metadata,
		})
	}

	for i := 0; i < len(result.Matches); i++ {
		for j := i + 1; j < len(result.Matches); j++ {
			if result.Matches[j].Score > result.Matches[i].Score {
				result.Matches[i], result.Matches[j] = result.Matches[j], result.Matches[i]
			}
		}
	}
	if req.TopK > 0 && len(result.Matches) > req.TopK {
		result.Matches = result.Matches[:req.TopK]
	}
	return result, nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type mockCompleter struct {
	requests []*ai.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	m.requests = append(m.requests, req)
	return &ai.CompletionResponse{Content: "The release ships in May."}, nil
}

func (m *mockCompleter) CompleteStream(_ context.Context, req *ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	m.requests = append(m.requests, req)
	out := make(chan ai.StreamChunk, 1)
	out <- ai.StreamChunk{Content: "The release ships in May.", Done: true}
	close(out)
	return out, nil
}

func (m *mockCompleter) ValidateConfig() error { return nil }

type pipeline struct {
	scanner   *vault.Scanner
	store     *syncstate.Store
	index     *mockIndex
	engine    *syncer.Engine
	retriever *retrieval.Retriever
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	log := logger.New("test", logger.NewConfig("error"))
	vaultDir := t.TempDir()

	notes := map[string]string{
		"release.md": "Release planning and roadmap for the next version. The release ships in May.",
		"garden.md":  "Notes about gardening and tomato seedlings.",
		"bread.md":   "Sourdough starter feeding schedule.",
	}
	for name, content := range notes {
		if err := os.WriteFile(filepath.Join(vaultDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	scanner := vault.NewScanner(vaultDir, log)
	store := syncstate.NewStore(filepath.Join(t.TempDir(), "state"), log)
	index := newMockIndex()
	embedder := &mockEmbedder{}

	engine, err := syncer.New(scanner, embedder, index, store, syncer.Options{
		Namespace: scanner.Name(),
	}, log)
	if err != nil {
		t.Fatalf("syncer.New() error = %v", err)
	}

	retriever, err := retrieval.New(embedder, index, store, scanner, retrieval.Options{
		Namespace: scanner.Name(),
	}, log)
	if err != nil {
		t.Fatalf("retrieval.New() error = %v", err)
	}

	return &pipeline{
		scanner:   scanner,
		store:     store,
		index:     index,
		engine:    engine,
		retriever: retriever,
	}
}

func TestSyncThenRetrieve(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	result, err := p.engine.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Successful != 3 || result.Failed != 0 {
		t.Fatalf("Sync() = %+v, want 3 successful", result)
	}

	contexts := p.retriever.Retrieve(ctx, "when is the release planned for the roadmap", nil)
	if len(contexts) == 0 {
		t.Fatal("Retrieve() returned no contexts for an on-topic query")
	}
	if contexts[0].Path != "release.md" {
		t.Errorf("top context = %q, want release.md", contexts[0].Path)
	}
	for _, nc := range contexts {
		if nc.Path == "garden.md" || nc.Path == "bread.md" {
			t.Errorf("off-topic note %q survived the similarity threshold", nc.Path)
		}
	}
}

func TestSecondSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	if _, err := p.engine.Sync(ctx); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	upserts := p.index.upsertCount()

	result, err := p.engine.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if result.Successful != 3 || result.Failed != 0 {
		t.Errorf("second Sync() = %+v, want all notes successful without rework", result)
	}
	if got := p.index.upsertCount(); got != upserts {
		t.Errorf("second Sync() re-upserted: %d upserts, want %d", got, upserts)
	}
}

func TestChatSessionUsesSyncedNotes(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	if _, err := p.engine.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	log := logger.New("test", logger.NewConfig("error"))
	completer := &mockCompleter{}
	session, err := chat.NewSession(completer, p.retriever, log)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	reply, err := session.Send(ctx, "when does the release ship according to my planning notes?", nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply == "" {
		t.Fatal("Send() returned an empty reply")
	}

	if len(completer.requests) != 1 {
		t.Fatalf("expected 1 completion request, got %d", len(completer.requests))
	}
	messages := completer.requests[0].Messages
	last := messages[len(messages)-1]
	if !strings.Contains(last.Content, "[[release.md]]") {
		t.Errorf("model prompt should cite the source note:\n%s", last.Content)
	}
	if !strings.Contains(last.Content, "Context from my notes:") {
		t.Errorf("model prompt should carry retrieved context:\n%s", last.Content)
	}

	transcript := session.Transcript()
	for _, msg := range transcript {
		if strings.Contains(msg.Content, "Context from my notes:") {
			t.Error("retrieved context leaked into the visible transcript")
		}
	}
}

func TestDeleteRemovesNoteFromRetrieval(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	if _, err := p.engine.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := p.engine.Delete(ctx, "release.md"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	contexts := p.retriever.Retrieve(ctx, "release planning roadmap", nil)
	for _, nc := range contexts {
		if nc.Path == "release.md" {
			t.Error("deleted note still retrievable")
		}
	}

	if record, err := p.store.Read(syncstate.VectorID("release.md")); err != nil || record != nil {
		t.Errorf("sync state should be gone after delete, got %v, %v", record, err)
	}
}
