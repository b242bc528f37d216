package gateway

// apiError is one entry of the errors array in a gateway response body.
type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// workersAIRequest is the body sent to the workers-ai route. Messages and
// Prompt are mutually exclusive; the generation knobs are omitted for
// embedding models.
type workersAIRequest struct {
	Messages    []apiMessage `json:"messages,omitempty"`
	Prompt      string       `json:"prompt,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature,omitempty"`
	Stream      bool         `json:"stream,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// embeddingResponse is the gateway body for embedding models.
type embeddingResponse struct {
	Success bool        `json:"success"`
	Errors  []apiError  `json:"errors,omitempty"`
	Data    [][]float32 `json:"data"`
}

// textResponse is the gateway body for text models.
type textResponse struct {
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors,omitempty"`
	Result  struct {
		Response string `json:"response"`
	} `json:"result"`
}

// streamEvent is one SSE data payload of a streaming completion.
type streamEvent struct {
	Response string `json:"response"`
}
