package vectorize

// Vector is one (id, values, metadata, namespace) tuple upserted into the
// remote index.
type Vector struct {
	ID        string         `json:"id"`
	Values    []float32      `json:"values"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
}

// Match is one nearest-neighbor result. Score is assumed normalized to
// [0,1], higher meaning more similar.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryRequest describes a similarity query against the index.
type QueryRequest struct {
	Vector    []float32 `json:"vector"`
	TopK      int       `json:"topK,omitempty"`
	Namespace string    `json:"namespace,omitempty"`
	Filter    Filter    `json:"filter,omitempty"`

	// ReturnMetadata is "all", "indexed" or "none".
	ReturnMetadata string `json:"returnMetadata,omitempty"`
}

// QueryResult holds the matches of a similarity query.
type QueryResult struct {
	Matches []Match `json:"matches"`
}

// apiError is one entry of the errors array in a Vectorize response.
type apiError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// mutationResponse is the Cloudflare v4 envelope around upsert and
// delete results.
type mutationResponse struct {
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors,omitempty"`
	Result  struct {
		MutationID string `json:"mutationId"`
	} `json:"result"`
}

// queryResponse is the envelope around similarity query results.
type queryResponse struct {
	Success bool        `json:"success"`
	Errors  []apiError  `json:"errors,omitempty"`
	Result  QueryResult `json:"result"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}
