package index

import (
	"math"
	"sort"
)

// Entry is the unit stored in the persistent index: one chunk of text, its
// embedding vector, and an opaque source identifier.
type Entry struct {
	ID      string
	Text    string
	Source  string
	Ordinal int // insertion order, stable across save/load
	Vector  []float32
}

// SearchResult pairs an entry with its similarity score against a query
// vector.
type SearchResult struct {
	Entry *Entry
	Score float64
}

// VectorIndex is a flat, in-memory collection of entries supporting cosine
// nearest-neighbor search. An index is immutable once built: growing it
// produces a new index via extend, so a reader holding an older index keeps
// a complete, consistent view while writers publish newer ones.
type VectorIndex struct {
	entries []Entry
}

// NewVectorIndex builds an index over the given entries in one batch.
func NewVectorIndex(entries []Entry) *VectorIndex {
	return &VectorIndex{entries: entries}
}

// Len returns the number of entries in the index.
func (ix *VectorIndex) Len() int {
	return len(ix.entries)
}

// Entries returns the backing entries in insertion order. Callers must treat
// the slice as read-only.
func (ix *VectorIndex) Entries() []Entry {
	return ix.entries
}

// extend returns a new index holding the receiver's entries followed by the
// given ones. Extension is append-only over entry identity; duplicate chunk
// text is not collapsed here, document-level de-duplication is the content
// cache's job.
func (ix *VectorIndex) extend(entries []Entry) *VectorIndex {
	merged := make([]Entry, 0, len(ix.entries)+len(entries))
	merged = append(merged, ix.entries...)
	merged = append(merged, entries...)
	return NewVectorIndex(merged)
}

// Search returns the top-k entries by descending cosine similarity to the
// query vector. Ties are broken by insertion order, so results are
// deterministic for a fixed index.
func (ix *VectorIndex) Search(vector []float32, k int) []SearchResult {
	if k < 1 || len(ix.entries) == 0 {
		return nil
	}

	results := make([]SearchResult, 0, len(ix.entries))
	for i := range ix.entries {
		results = append(results, SearchResult{
			Entry: &ix.entries[i],
			Score: cosineSimilarity(vector, ix.entries[i].Vector),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions or a zero-norm vector score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
