package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"notewise/internal/ai"
	"notewise/internal/logger"
)

// Client talks to Cloudflare Workers AI models through an AI Gateway. It
// covers both text generation and text embeddings; transient failures are
// retried with the shared backoff policy.
type Client struct {
	config  *Config
	client  *http.Client
	log     *logger.Logger
	backoff ai.Backoff
}

var _ ai.Provider = (*Client)(nil)

// New creates a gateway client. Configuration problems surface here,
// before the first network call.
func New(config *Config, log *logger.Logger) (*Client, error) {
	if config == nil {
		return nil, ai.NewConfigurationError("gateway", "config", "configuration is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.withDefaults()

	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		log:     log,
		backoff: ai.DefaultBackoff,
	}, nil
}

// ValidateConfig validates the provider configuration
func (c *Client) ValidateConfig() error {
	return c.config.Validate()
}

// Embed generates embedding vectors for one text payload.
func (c *Client) Embed(ctx context.Context, text string) ([][]float32, error) {
	body := &workersAIRequest{Prompt: text}

	var resp embeddingResponse
	if err := c.post(ctx, c.config.EmbeddingModel, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ai.NewProviderError(ai.ErrTypeProvider, joinErrors(resp.Errors), "gateway")
	}
	if len(resp.Data) == 0 {
		return nil, ai.NewProviderError(ai.ErrTypeProvider, "no vectors returned", "gateway")
	}

	return resp.Data, nil
}

// Complete performs a blocking text completion
func (c *Client) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if req == nil {
		return nil, ai.NewValidationError("request", "nil", "completion request is required")
	}

	model, body := c.buildTextRequest(req)
	body.Stream = false

	var resp textResponse
	if err := c.post(ctx, model, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ai.NewProviderError(ai.ErrTypeProvider, joinErrors(resp.Errors), "gateway")
	}

	return &ai.CompletionResponse{
		Content: resp.Result.Response,
		Model:   model,
	}, nil
}

// CompleteStream performs streaming text completion
func (c *Client) CompleteStream(ctx context.Context, req *ai.CompletionRequest) (<-chan ai.StreamChunk, error) {
	if req == nil {
		return nil, ai.NewValidationError("request", "nil", "completion request is required")
	}

	model, body := c.buildTextRequest(req)
	body.Stream = true

	resp, err := c.send(ctx, model, body, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan ai.StreamChunk)

	go func() {
		defer close(ch)
		defer func() { _ = resp.Body.Close() }()

		if err := c.processStream(ctx, resp.Body, ch); err != nil {
			select {
			case ch <- ai.StreamChunk{Error: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

func (c *Client) buildTextRequest(req *ai.CompletionRequest) (string, *workersAIRequest) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}

	body := &workersAIRequest{
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	if len(req.Messages) > 0 {
		body.Messages = make([]apiMessage, 0, len(req.Messages))
		for _, m := range req.Messages {
			body.Messages = append(body.Messages, apiMessage{Role: m.Role, Content: m.Content})
		}
	} else {
		body.Prompt = req.Prompt
	}

	return model, body
}

// post sends a request, retrying transient failures, and decodes the
// response envelope into out. A body that does not parse is treated
// the same as a 5xx: the gateway occasionally emits truncated or HTML
// bodies on otherwise successful responses, and a fresh attempt
// usually returns the real envelope.
func (c *Client) post(ctx context.Context, model string, body *workersAIRequest, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal request", "gateway", err)
	}

	err = ai.Retry(ctx, c.config.MaxAttempts, c.backoff, func() error {
		resp, attemptErr := c.attempt(ctx, model, encoded, false)
		if attemptErr != nil {
			return attemptErr
		}
		defer func() { _ = resp.Body.Close() }()

		payload, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "failed to read response body", "gateway", readErr)
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return ai.NewRetryableError(ai.ErrTypeMalformed, "unparsable response body", "gateway")
		}
		return nil
	})
	if err != nil {
		if c.log != nil {
			c.log.Error("gateway request failed: %v", err)
		}
		return err
	}
	return nil
}

// send is the streaming counterpart of post: it retries up to the first
// byte of a good response and hands the open body back to the caller.
func (c *Client) send(ctx context.Context, model string, body *workersAIRequest, stream bool) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal request", "gateway", err)
	}

	var resp *http.Response
	err = ai.Retry(ctx, c.config.MaxAttempts, c.backoff, func() error {
		r, attemptErr := c.attempt(ctx, model, encoded, stream)
		if attemptErr != nil {
			return attemptErr
		}
		resp = r
		return nil
	})
	if err != nil {
		if c.log != nil {
			c.log.Error("gateway request failed: %v", err)
		}
		return nil, err
	}
	return resp, nil
}

// attempt performs one HTTP exchange. The response body is open on
// success and closed on error.
func (c *Client) attempt(ctx context.Context, model string, encoded []byte, stream bool) (*http.Response, error) {
	url := fmt.Sprintf("%s/%s/%s/workers-ai/%s",
		c.config.BaseURL, c.config.AccountID, c.config.GatewayID, model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to create request", "gateway", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed", "gateway", err)
	}
	if httpErr := c.classifyStatus(resp); httpErr != nil {
		_ = resp.Body.Close()
		return nil, httpErr
	}
	return resp, nil
}

// classifyStatus maps non-2xx statuses onto the error taxonomy: rate
// limits and upstream timeouts are retryable, everything else terminal.
func (c *Client) classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ai.ProviderError{
			Type:       ai.ErrTypeAuthentication,
			Message:    "invalid api key",
			Provider:   "gateway",
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ai.ProviderError{
			Type:       ai.ErrTypeRateLimit,
			Message:    "rate limited",
			Provider:   "gateway",
			StatusCode: resp.StatusCode,
			Retryable:  true,
		}
	case resp.StatusCode >= 500:
		return &ai.ProviderError{
			Type:       ai.ErrTypeTimeout,
			Message:    "upstream error",
			Provider:   "gateway",
			StatusCode: resp.StatusCode,
			Retryable:  true,
		}
	default:
		return &ai.ProviderError{
			Type:       ai.ErrTypeProvider,
			Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
			Provider:   "gateway",
			StatusCode: resp.StatusCode,
		}
	}
}

func (c *Client) processStream(ctx context.Context, body io.Reader, ch chan<- ai.StreamChunk) error {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}
		if line == "data: [DONE]" {
			return c.sendChunk(ctx, ch, ai.StreamChunk{Done: true})
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			continue // Skip malformed lines
		}
		if event.Response == "" {
			continue
		}

		if err := c.sendChunk(ctx, ch, ai.StreamChunk{Content: event.Response}); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "error reading stream", "gateway", err)
	}
	return c.sendChunk(ctx, ch, ai.StreamChunk{Done: true})
}

func (c *Client) sendChunk(ctx context.Context, ch chan<- ai.StreamChunk, chunk ai.StreamChunk) error {
	select {
	case ch <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func joinErrors(errs []apiError) string {
	if len(errs) == 0 {
		return "unknown provider error"
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, ", ")
}
