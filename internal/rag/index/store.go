package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"insight-engine/internal/rag/interfaces"
	"insight-engine/internal/rag/schema"
	"insight-engine/pkg/logger"
	"insight-engine/pkg/ratelimiter"
)

// ErrEmbeddingService wraps failures of the external embedding model. A
// failed embedding aborts the whole CreateOrUpdate call with no partial
// merge applied.
var ErrEmbeddingService = errors.New("embedding service error")

// MergeResult reports the outcome of a CreateOrUpdate call.
type MergeResult struct {
	Success     bool   `json:"success"`
	Reason      string `json:"reason,omitempty"`
	ChunksAdded int    `json:"chunks_added"`
	SnapshotDir string `json:"snapshot_dir,omitempty"`
}

// Store owns the persistent vector index at one snapshot location: creation,
// incremental merge, and load. Writers are serialized per Store. Published
// indexes are immutable, so readers may search a loaded index concurrently
// with later merges and see either the previous or the new complete
// snapshot, never a partial one.
type Store struct {
	dir      string
	embedder interfaces.EmbeddingModel
	limiter  ratelimiter.RateLimiter // optional, paces embedding batches
	log      *logger.Logger

	mu      sync.RWMutex
	current *VectorIndex // cached view of the persisted snapshot
}

// NewStore creates a Store over the snapshot directory. limiter may be nil.
func NewStore(dir string, embedder interfaces.EmbeddingModel, limiter ratelimiter.RateLimiter, log *logger.Logger) *Store {
	return &Store{
		dir:      dir,
		embedder: embedder,
		limiter:  limiter,
		log:      log,
	}
}

// Dir returns the snapshot location this store owns.
func (s *Store) Dir() string {
	return s.dir
}

// CreateOrUpdate embeds the chunks in one batch and merges them into the
// persisted index, creating it when no snapshot exists yet. Empty input is
// recovered into a structured failure result, not an error. Embedding or
// snapshot failures leave the prior snapshot intact and authoritative.
// On success the freshly built entries are returned, so callers can record
// a per-document snapshot without re-reading the shared corpus index.
func (s *Store) CreateOrUpdate(ctx context.Context, chunks []*schema.Chunk) (MergeResult, []Entry, error) {
	if len(chunks) == 0 {
		s.log.Warn("no chunks to index, skipping")
		return MergeResult{Success: false, Reason: "empty input", ChunksAdded: 0}, nil, nil
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return MergeResult{Success: false, Reason: err.Error()}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Load-merge-save is a critical section: concurrent writers racing on
	// the same snapshot must not interleave.
	ix, err := s.loadLocked()
	if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		return MergeResult{Success: false, Reason: err.Error()}, nil, err
	}
	if ix == nil {
		ix = NewVectorIndex(nil)
	}

	base := ix.Len()
	entries := make([]Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = Entry{
			ID:      chunk.ID,
			Text:    chunk.Text,
			Source:  chunk.Source(),
			Ordinal: base + i,
			Vector:  vectors[i],
		}
	}

	// The merged index is a new value; indexes already handed out by Load
	// stay untouched for their readers.
	next := ix.extend(entries)

	if err := SaveSnapshot(s.dir, next); err != nil {
		// The snapshot on disk is still the previous complete pair.
		s.current = nil
		reason := fmt.Sprintf("snapshot write failed: %v", err)
		return MergeResult{Success: false, Reason: reason}, nil, err
	}
	s.current = next

	s.log.WithPayload(map[string]interface{}{
		"chunks_added": len(chunks),
		"total":        next.Len(),
		"dir":          s.dir,
	}).Info("merged chunks into index snapshot")

	return MergeResult{Success: true, ChunksAdded: len(chunks), SnapshotDir: s.dir}, entries, nil
}

// Load returns the current vector index, reading the snapshot pair from disk
// on first use. ErrSnapshotNotFound is returned when either artifact is
// missing; a half-written pair is surfaced as a warning, not used.
func (s *Store) Load() (*VectorIndex, error) {
	s.mu.RLock()
	if s.current != nil {
		ix := s.current
		s.mu.RUnlock()
		return ix, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// loadLocked reads and caches the snapshot. Callers must hold mu.
func (s *Store) loadLocked() (*VectorIndex, error) {
	if s.current != nil {
		return s.current, nil
	}

	ix, err := LoadSnapshot(s.dir)
	if err != nil {
		if errors.Is(err, ErrSnapshotCorrupt) {
			s.log.WithError(err).Warn("snapshot pair is incomplete or corrupt, treating as no index")
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	s.current = ix
	return ix, nil
}

// embedChunks runs one batch embedding call for all chunk texts, pacing it
// through the rate limiter when one is configured.
func (s *Store) embedChunks(ctx context.Context, chunks []*schema.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	if err := s.waitForToken(ctx); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingService, len(vectors), len(chunks))
	}
	return vectors, nil
}

// waitForToken blocks until the rate limiter admits the next embedding call
// or the context is cancelled.
func (s *Store) waitForToken(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	for !s.limiter.Allow() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}
