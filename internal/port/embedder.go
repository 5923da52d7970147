package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Init prepares the backend. It fails with a ConfigurationError when
	// required credentials or the model are missing.
	Init(ctx context.Context) error

	// Embed generates embeddings for the given texts, one vector per input,
	// in input order. An empty input yields an empty result without any
	// model or network call.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension. It fails if called
	// before Init.
	Dimension() (int, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}
