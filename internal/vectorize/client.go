package vectorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notewise/internal/ai"
	"notewise/internal/logger"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4/accounts"

// upstreamTimeoutCode is the provider error that marks a transient
// failure; it is the only provider-reported error worth retrying.
const upstreamTimeoutCode = "vectorize.upstream_timeout"

// Config holds the Cloudflare Vectorize settings.
type Config struct {
	AccountID   string
	APIKey      string
	IndexName   string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

// Validate checks required fields; failures are fatal configuration
// errors raised before any network call.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return ai.NewConfigurationError("vectorize", "account_id", "cloudflare account id is required")
	}
	if c.APIKey == "" {
		return ai.NewConfigurationError("vectorize", "api_key", "api key is required")
	}
	if c.IndexName == "" {
		return ai.NewConfigurationError("vectorize", "index_name", "index name is required")
	}
	return nil
}

func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
}

// Client talks to a Cloudflare Vectorize v2 index: vector upserts over
// NDJSON, similarity queries, and deletions.
type Client struct {
	config  *Config
	client  *http.Client
	log     *logger.Logger
	backoff ai.Backoff
}

// New creates a Vectorize client.
func New(config *Config, log *logger.Logger) (*Client, error) {
	if config == nil {
		return nil, ai.NewConfigurationError("vectorize", "config", "configuration is required")
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

// Upsert inserts or replaces vectors in the index. It reports true only
// when the provider acknowledged the mutation with an identifier.
func (c *Client) Upsert(ctx context.Context, vectors []Vector) (bool, error) {
	if len(vectors) == 0 {
		return false, ai.NewValidationError("vectors", "empty", "at least one vector is required")
	}

	// Upserts travel as NDJSON, one vector per line.
	var body bytes.Buffer
	encoder := json.NewEncoder(&body)
	for i := range vectors {
		if err := encoder.Encode(&vectors[i]); err != nil {
			return false, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to encode vector", "vectorize", err)
		}
	}

	payload, err := c.post(ctx, c.endpoint("upsert"), body.Bytes(), "application/x-ndjson")
	if err != nil {
		return false, err
	}

	var resp mutationResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return false, ai.NewProviderErrorWithCause(ai.ErrTypeMalformed, "unparsable upsert response", "vectorize", err)
	}
	if err := checkAPI(resp.Success, resp.Errors); err != nil {
		return false, err
	}

	return resp.Result.MutationID != "", nil
}

// Query runs a nearest-neighbor search. The filter is validated before
// the request leaves the process.
func (c *Client) Query(ctx context.Context, req *QueryRequest) (*QueryResult, error) {
	if req == nil {
		return nil, ai.NewValidationError("request", "nil", "query request is required")
	}
	if len(req.Vector) == 0 {
		return nil, ai.NewValidationError("vector", "empty", "query vector is required")
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}
	if req.ReturnMetadata == "" {
		req.ReturnMetadata = "all"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal query", "vectorize", err)
	}

	payload, err := c.post(ctx, c.endpoint("query"), body, "application/json")
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeMalformed, "unparsable query response", "vectorize", err)
	}
	if err := checkAPI(resp.Success, resp.Errors); err != nil {
		return nil, err
	}

	return &resp.Result, nil
}

// DeleteByIDs removes vectors from the index. It reports true only when
// the provider acknowledged the mutation with an identifier.
func (c *Client) DeleteByIDs(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return false, ai.NewValidationError("ids", "empty", "at least one id is required")
	}

	body, err := json.Marshal(&deleteRequest{IDs: ids})
	if err != nil {
		return false, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal delete request", "vectorize", err)
	}

	payload, err := c.post(ctx, c.endpoint("delete_by_ids"), body, "application/json")
	if err != nil {
		return false, err
	}

	var resp mutationResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return false, ai.NewProviderErrorWithCause(ai.ErrTypeMalformed, "unparsable delete response", "vectorize", err)
	}
	if err := checkAPI(resp.Success, resp.Errors); err != nil {
		return false, err
	}

	return resp.Result.MutationID != "", nil
}

func (c *Client) endpoint(operation string) string {
	return fmt.Sprintf("%s/%s/vectorize/v2/indexes/%s/%s",
		c.config.BaseURL, c.config.AccountID, c.config.IndexName, operation)
}

// post sends a request, retrying upstream timeouts, and returns the raw
// response body.
func (c *Client) post(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	var payload []byte

	err := ai.Retry(ctx, c.config.MaxAttempts, c.backoff, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if reqErr != nil {
			return ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to create request", "vectorize", reqErr)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		req.Header.Set("Content-Type", contentType)

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return &ai.ProviderError{
				Type:      ai.ErrTypeNetwork,
				Message:   "request failed",
				Provider:  "vectorize",
				Cause:     doErr,
				Retryable: true,
			}
		}
		defer func() { _ = resp.Body.Close() }()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "failed to read response body", "vectorize", readErr)
		}

		// The provider reports upstream timeouts inside a 2xx envelope
		// as well as through gateway statuses, so both paths are
		// checked before the body is handed back.
		if timeoutErr := detectUpstreamTimeout(data); timeoutErr != nil {
			return timeoutErr
		}

		if resp.StatusCode >= 300 {
			return &ai.ProviderError{
				Type:       ai.ErrTypeProvider,
				Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
				Provider:   "vectorize",
				StatusCode: resp.StatusCode,
			}
		}

		payload = data
		return nil
	})
	if err != nil {
		if c.log != nil {
			c.log.Error("vectorize request failed: %v", err)
		}
		return nil, err
	}
	return payload, nil
}

// detectUpstreamTimeout returns a retryable error when the response body
// carries the designated upstream timeout code.
func detectUpstreamTimeout(body []byte) error {
	var envelope struct {
		Success bool       `json:"success"`
		Errors  []apiError `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Success {
		return nil
	}
	for _, e := range envelope.Errors {
		if e.Message == upstreamTimeoutCode {
			return ai.NewRetryableError(ai.ErrTypeTimeout, upstreamTimeoutCode, "vectorize")
		}
	}
	return nil
}

func checkAPI(success bool, errs []apiError) error {
	if success {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "unknown provider error")
	}
	return ai.NewProviderError(ai.ErrTypeProvider, strings.Join(msgs, ", "), "vectorize")
}
