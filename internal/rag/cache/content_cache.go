package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"insight-engine/internal/rag/index"
	"insight-engine/pkg/logger"
	"insight-engine/pkg/util"
)

// loadedCapacity bounds how many per-document indexes stay resident.
const loadedCapacity = 32

// Key computes the ContentKey for a document's normalized text: a SHA-256
// fingerprint. Two documents with identical extracted text share a key and
// are treated as the same ingestion unit.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Handle points at a complete, reusable document snapshot. Loading through
// the handle skips embedding entirely.
type Handle struct {
	Key string
	Dir string

	cache *ContentCache
}

// Load reads the document's vector index, serving repeats from the in-memory
// LRU.
func (h *Handle) Load() (*index.VectorIndex, error) {
	return h.cache.load(h.Key, h.Dir)
}

// ContentCache is the document-level reuse layer: one snapshot directory per
// ContentKey. A hit means the exact same text has already been embedded and
// indexed, so the work can be skipped. The cache is purely an optimization:
// an incomplete snapshot is a miss, never an error.
type ContentCache struct {
	dir    string
	loaded *util.LRUCache[string, *index.VectorIndex]
	log    *logger.Logger
}

// NewContentCache creates a cache rooted at dir.
func NewContentCache(dir string, log *logger.Logger) (*ContentCache, error) {
	loaded, err := util.NewWithConfig[string, *index.VectorIndex](util.CacheConfig{
		Capacity: loadedCapacity,
		TTL:      30 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create loaded-index cache: %w", err)
	}
	return &ContentCache{dir: dir, loaded: loaded, log: log}, nil
}

// SnapshotDir returns the snapshot location for a ContentKey.
func (c *ContentCache) SnapshotDir(key string) string {
	return filepath.Join(c.dir, key)
}

// Resolve computes the ContentKey for the text and reports whether a
// complete snapshot pair already exists for it. The handle is nil on a miss;
// a directory holding only one artifact counts as a miss and is logged.
func (c *ContentCache) Resolve(text string) (string, *Handle) {
	key := Key(text)
	dir := c.SnapshotDir(key)

	if !index.SnapshotExists(dir) {
		if partialSnapshot(dir) {
			c.log.WithField("content_key", key).Warn("snapshot pair incomplete, rebuilding document index")
		}
		return key, nil
	}

	return key, &Handle{Key: key, Dir: dir, cache: c}
}

// partialSnapshot reports whether exactly one of the two snapshot artifacts
// is present.
func partialSnapshot(dir string) bool {
	_, vErr := os.Stat(filepath.Join(dir, index.VectorsFileName))
	_, mErr := os.Stat(filepath.Join(dir, index.MetaFileName))
	return (vErr == nil) != (mErr == nil)
}

// Store persists a document's entries as the per-key snapshot pair and
// retains the index in the LRU for immediate reuse.
func (c *ContentCache) Store(key string, ix *index.VectorIndex) error {
	dir := c.SnapshotDir(key)
	if err := index.SaveSnapshot(dir, ix); err != nil {
		return fmt.Errorf("failed to write content cache snapshot: %w", err)
	}
	c.loaded.Put(key, ix)
	return nil
}

// load reads a cached document index, consulting the LRU first. A snapshot
// that fails to load is treated as a miss: the entry is evicted so the next
// resolve rebuilds it.
func (c *ContentCache) load(key, dir string) (*index.VectorIndex, error) {
	if ix, ok := c.loaded.Get(key); ok {
		return ix, nil
	}

	ix, err := index.LoadSnapshot(dir)
	if err != nil {
		c.log.WithError(err).WithField("content_key", key).Warn("cached snapshot unreadable, treating as miss")
		c.loaded.Remove(key)
		return nil, err
	}
	c.loaded.Put(key, ix)
	return ix, nil
}
