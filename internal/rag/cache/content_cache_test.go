package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-engine/internal/rag/index"
	"insight-engine/pkg/logger"
)

func newTestCache(t *testing.T) *ContentCache {
	t.Helper()
	c, err := NewContentCache(t.TempDir(), logger.New("test", ""))
	require.NoError(t, err)
	return c
}

func testIndex() *index.VectorIndex {
	return index.NewVectorIndex([]index.Entry{
		{ID: "a", Text: "first chunk", Source: "doc.pdf", Ordinal: 0, Vector: []float32{1, 2}},
		{ID: "b", Text: "second chunk", Source: "doc.pdf", Ordinal: 1, Vector: []float32{3, 4}},
	})
}

func TestKey_Deterministic(t *testing.T) {
	assert.Equal(t, Key("same text"), Key("same text"))
	assert.NotEqual(t, Key("one document"), Key("another document"))
	assert.Len(t, Key("anything"), 64) // hex sha-256
}

func TestResolve_MissThenHit(t *testing.T) {
	c := newTestCache(t)
	text := "some normalized document text"

	key, handle := c.Resolve(text)
	assert.NotEmpty(t, key)
	assert.Nil(t, handle)

	require.NoError(t, c.Store(key, testIndex()))

	key2, handle := c.Resolve(text)
	assert.Equal(t, key, key2)
	require.NotNil(t, handle)
	assert.Equal(t, c.SnapshotDir(key), handle.Dir)

	ix, err := handle.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
}

func TestResolve_PartialPairIsMiss(t *testing.T) {
	c := newTestCache(t)
	text := "document with a torn snapshot"

	key, _ := c.Resolve(text)
	dir := c.SnapshotDir(key)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, index.MetaFileName), []byte(`{"entries":[]}`), 0o644))

	_, handle := c.Resolve(text)
	assert.Nil(t, handle)
}

func TestLoad_ServesFromMemoryAfterSnapshotRemoval(t *testing.T) {
	c := newTestCache(t)

	key, _ := c.Resolve("resident document")
	require.NoError(t, c.Store(key, testIndex()))

	// Store keeps the index resident, so the handle survives losing the
	// on-disk pair until eviction.
	handle := &Handle{Key: key, Dir: c.SnapshotDir(key), cache: c}
	require.NoError(t, os.RemoveAll(c.SnapshotDir(key)))

	ix, err := handle.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
}

func TestLoad_UnreadableSnapshotIsEvicted(t *testing.T) {
	c := newTestCache(t)

	key, _ := c.Resolve("doomed document")
	dir := c.SnapshotDir(key)
	require.NoError(t, c.Store(key, testIndex()))

	// Drop the resident copy, then corrupt the disk pair.
	c.loaded.Remove(key)
	require.NoError(t, os.WriteFile(filepath.Join(dir, index.VectorsFileName), []byte("garbage"), 0o644))

	handle := &Handle{Key: key, Dir: dir, cache: c}
	_, err := handle.Load()
	assert.Error(t, err)
}
