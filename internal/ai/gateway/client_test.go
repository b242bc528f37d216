package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"notewise/internal/ai"
	"notewise/internal/logger"
)

func testConfig(baseURL string) *Config {
	return &Config{
		AccountID:      "acc",
		GatewayID:      "gw",
		APIKey:         "key",
		Model:          "@cf/meta/llama-3.3-70b-instruct-fp8-fast",
		EmbeddingModel: "@cf/baai/bge-base-en-v1.5",
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
	}
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log := logger.New("gateway", logger.NewConfig("error"))
	t.Cleanup(log.Close)

	c, err := New(testConfig(baseURL), log)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	c.backoff = ai.Backoff{Base: time.Millisecond, Max: 2 * time.Millisecond}
	return c
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing account id", mutate: func(c *Config) { c.AccountID = "" }},
		{name: "missing gateway id", mutate: func(c *Config) { c.GatewayID = "" }},
		{name: "missing api key", mutate: func(c *Config) { c.APIKey = "" }},
		{name: "missing model", mutate: func(c *Config) { c.Model = "" }},
		{name: "missing embedding model", mutate: func(c *Config) { c.EmbeddingModel = "" }},
		{name: "negative max tokens", mutate: func(c *Config) { c.MaxTokens = -1 }},
		{name: "temperature out of range", mutate: func(c *Config) { c.Temperature = 6 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://example.invalid")
			tt.mutate(cfg)

			_, err := New(cfg, nil)
			var confErr *ai.ConfigurationError
			if !errors.As(err, &confErr) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestEmbedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/acc/gw/workers-ai/@cf/baai/bge-base-en-v1.5" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	vectors, err := c.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != 3 {
		t.Errorf("unexpected vectors: %v", vectors)
	}
}

func TestEmbedRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[[1]]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	if _, err := c.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Embed() should succeed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestEmbedRetriesMalformedBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Type != ai.ErrTypeMalformed {
		t.Errorf("expected malformed error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts for an unparsable body, got %d", got)
	}
}

func TestEmbedRecoversFromMalformedBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[[1]]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	if _, err := c.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Embed() should succeed once the body parses: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestEmbedProviderErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"message":"model not found"}]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if ai.IsRetryable(err) {
		t.Error("provider-reported errors must be terminal")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("terminal errors must not be retried, got %d calls", got)
	}
}

func TestEmbedEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":{"response":"generated text"}}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	resp, err := c.Complete(context.Background(), &ai.CompletionRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if resp.Content != "generated text" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
}

func TestCompleteAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.Complete(context.Background(), &ai.CompletionRequest{Prompt: "hi"})
	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Type != ai.ErrTypeAuthentication {
		t.Errorf("expected authentication error, got %v", err)
	}
}

func TestCompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"response\":\"hello\"}\n\ndata: {\"response\":\" world\"}\n\ndata: [DONE]\n"))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	ch, err := c.CompleteStream(context.Background(), &ai.CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("CompleteStream() failed: %v", err)
	}

	var content string
	var done bool
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Error)
		}
		content += chunk.Content
		if chunk.Done {
			done = true
		}
	}

	if content != "hello world" {
		t.Errorf("unexpected streamed content: %q", content)
	}
	if !done {
		t.Error("expected a final done chunk")
	}
}
