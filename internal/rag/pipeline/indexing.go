package pipeline

import (
	"context"
	"path/filepath"

	"github.com/djherbis/times"

	"insight-engine/internal/rag/cache"
	"insight-engine/internal/rag/extractors"
	"insight-engine/internal/rag/index"
	"insight-engine/internal/rag/interfaces"
	"insight-engine/internal/rag/schema"
	"insight-engine/pkg/logger"
)

// IngestResult reports the outcome of ingesting one document.
type IngestResult struct {
	Success     bool   `json:"success"`
	Reason      string `json:"reason,omitempty"`
	ChunksAdded int    `json:"chunks_added"`
	ContentKey  string `json:"content_key,omitempty"`
	CacheHit    bool   `json:"cache_hit"`
	SnapshotDir string `json:"snapshot_dir,omitempty"`
}

// IndexingPipeline orchestrates the process of extracting, splitting,
// embedding, and storing documents: raw file -> normalized text -> chunks ->
// corpus index merge, with a document-level content cache in front so the
// exact same text is never embedded twice.
type IndexingPipeline struct {
	splitter interfaces.Splitter
	store    *index.Store
	cache    *cache.ContentCache
	log      *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	store *index.Store,
	contentCache *cache.ContentCache,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		splitter: splitter,
		store:    store,
		cache:    contentCache,
		log:      log,
	}
}

// Run ingests one document file end to end. Unsupported or unreadable files
// produce a structured failure result; the error carries the cause for
// callers that distinguish failure classes.
func (p *IndexingPipeline) Run(ctx context.Context, path string) (IngestResult, error) {
	format, err := extractors.ParseFormat(path)
	if err != nil {
		return IngestResult{Success: false, Reason: err.Error()}, err
	}
	if err := extractors.Sniff(path, format); err != nil {
		return IngestResult{Success: false, Reason: err.Error()}, err
	}

	p.log.WithField("path", path).Info("extracting document text")
	text, err := extractors.Extract(ctx, path, format)
	if err != nil {
		return IngestResult{Success: false, Reason: "could not read document"}, err
	}

	meta := map[string]interface{}{
		schema.MetadataKeyFileName: filepath.Base(path),
	}
	if ts, err := times.Stat(path); err == nil {
		meta[schema.MetadataKeyModTime] = ts.ModTime().UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	return p.IngestText(ctx, text, meta)
}

// IngestText runs the core pipeline over already-extracted, normalized text.
// On a content-cache hit the document is already part of the corpus index
// and no embedding work happens; ChunksAdded is 0 and the result points at
// the reused snapshot.
func (p *IndexingPipeline) IngestText(ctx context.Context, text string, meta map[string]interface{}) (IngestResult, error) {
	key, handle := p.cache.Resolve(text)
	if handle != nil {
		p.log.WithField("content_key", key).Info("content already indexed, reusing existing snapshot")
		return IngestResult{
			Success:     true,
			Reason:      "content already indexed",
			ChunksAdded: 0,
			ContentKey:  key,
			CacheHit:    true,
			SnapshotDir: handle.Dir,
		}, nil
	}

	chunks, err := p.splitter.Split(ctx, text)
	if err != nil {
		return IngestResult{Success: false, Reason: err.Error(), ContentKey: key}, err
	}
	for _, chunk := range chunks {
		chunk.Metadata[schema.MetadataKeyContentKey] = key
		for k, v := range meta {
			chunk.Metadata[k] = v
		}
	}

	merge, entries, err := p.store.CreateOrUpdate(ctx, chunks)
	if err != nil || !merge.Success {
		return IngestResult{
			Success:     false,
			Reason:      merge.Reason,
			ChunksAdded: merge.ChunksAdded,
			ContentKey:  key,
		}, err
	}

	// Record the document's own snapshot under its ContentKey so the next
	// ingestion of identical text is a pure cache hit. Failure here only
	// costs a future re-embed, so it is logged and not propagated.
	if err := p.storeDocumentSnapshot(key, entries); err != nil {
		p.log.WithError(err).WithField("content_key", key).Warn("failed to record content cache snapshot")
	}

	return IngestResult{
		Success:     true,
		ChunksAdded: merge.ChunksAdded,
		ContentKey:  key,
		SnapshotDir: merge.SnapshotDir,
	}, nil
}

// storeDocumentSnapshot records the document's freshly embedded entries as a
// per-ContentKey snapshot, renumbered from zero so the document index stands
// on its own.
func (p *IndexingPipeline) storeDocumentSnapshot(key string, entries []index.Entry) error {
	doc := make([]index.Entry, len(entries))
	for i, e := range entries {
		doc[i] = e
		doc[i].Ordinal = i
	}
	return p.cache.Store(key, index.NewVectorIndex(doc))
}
