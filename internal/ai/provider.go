package ai

import (
	"context"
)

// Embedder turns one text payload into one or more embedding vectors.
type Embedder interface {
	// Embed generates embeddings for the given text
	Embed(ctx context.Context, text string) ([][]float32, error)
}

// Completer performs text generation against the configured model.
type Completer interface {
	// Complete performs a blocking text completion
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream performs streaming text completion
	CompleteStream(ctx context.Context, req *CompletionRequest) (<-chan StreamChunk, error)

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// Provider combines embedding and completion capabilities behind one
// gateway endpoint.
type Provider interface {
	Embedder
	Completer
}
