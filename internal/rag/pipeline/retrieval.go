package pipeline

import (
	"context"
	"errors"
	"fmt"

	"insight-engine/internal/rag/index"
	"insight-engine/internal/rag/interfaces"
	"insight-engine/internal/rag/schema"
	"insight-engine/pkg/logger"
)

// ErrIndexUnavailable is returned when retrieval is attempted before any
// document has been ingested.
var ErrIndexUnavailable = errors.New("no index available, ingest a document first")

// RetrievalPipeline answers "which chunks are most relevant to this query"
// against the persisted corpus index. The query is embedded with the same
// model the corpus was embedded with.
type RetrievalPipeline struct {
	embedder interfaces.EmbeddingModel
	store    *index.Store
	log      *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline.
func NewRetrievalPipeline(embedder interfaces.EmbeddingModel, store *index.Store, log *logger.Logger) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder: embedder,
		store:    store,
		log:      log,
	}
}

// Run returns up to topK chunks ranked by descending cosine similarity to
// the query. Fewer than topK results mean the corpus is smaller than topK.
func (p *RetrievalPipeline) Run(ctx context.Context, query string, topK int) ([]schema.ScoredChunk, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	ix, err := p.store.Load()
	if err != nil {
		if errors.Is(err, index.ErrSnapshotNotFound) {
			return nil, ErrIndexUnavailable
		}
		return nil, fmt.Errorf("failed to load index: %w", err)
	}

	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", index.ErrEmbeddingService, err)
	}

	results := ix.Search(vector, topK)
	scored := make([]schema.ScoredChunk, len(results))
	for i, r := range results {
		scored[i] = schema.ScoredChunk{
			Chunk: &schema.Chunk{
				ID:        r.Entry.ID,
				Text:      r.Entry.Text,
				Embedding: r.Entry.Vector,
				Metadata: map[string]interface{}{
					schema.MetadataKeyFileName:    r.Entry.Source,
					schema.MetadataKeyChunkNumber: r.Entry.Ordinal + 1,
				},
			},
			Score: r.Score,
		}
	}

	p.log.WithPayload(map[string]interface{}{
		"query_len": len(query),
		"top_k":     topK,
		"returned":  len(scored),
	}).Info("retrieved chunks for query")

	return scored, nil
}
