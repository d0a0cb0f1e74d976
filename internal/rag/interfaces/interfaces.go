package interfaces

import (
	"context"

	"insight-engine/internal/rag/schema"
)

// Splitter is the interface for splitting normalized document text into
// smaller chunks.
type Splitter interface {
	Split(ctx context.Context, text string) ([]*schema.Chunk, error)
}

// EmbeddingModel is the interface for a text embedding model. Query and
// corpus vectors must come from the same model configuration, otherwise
// similarity scores are meaningless.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a large language model that can generate text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
