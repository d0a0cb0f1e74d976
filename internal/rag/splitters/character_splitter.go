package splitters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"insight-engine/internal/rag/interfaces"
	"insight-engine/internal/rag/schema"
)

// ErrInvalidConfiguration is returned when the chunk size and overlap do not
// satisfy 0 < overlap < size. This is fatal at construction time and not
// recoverable by retry.
var ErrInvalidConfiguration = errors.New("invalid splitter configuration")

// CharacterSplitter implements the Splitter interface by sliding a
// fixed-size window over the text, advancing size-overlap characters per
// step. Splitting is deterministic: identical input always yields identical
// chunk text in identical order.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewCharacterSplitter creates a new CharacterSplitter.
// It requires 0 < chunkOverlap < chunkSize.
func NewCharacterSplitter(chunkSize, chunkOverlap int) (*CharacterSplitter, error) {
	if chunkOverlap <= 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: size=%d overlap=%d, need 0 < overlap < size",
			ErrInvalidConfiguration, chunkSize, chunkOverlap)
	}
	return &CharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

// Split splits text into overlapping windows. The final window may be
// shorter than the chunk size and is still emitted; windows whose trimmed
// content is empty are dropped. Empty or all-whitespace text yields an empty
// slice, which callers must treat as "nothing to ingest", not an error.
func (s *CharacterSplitter) Split(ctx context.Context, text string) ([]*schema.Chunk, error) {
	runes := []rune(text)
	step := s.ChunkSize - s.ChunkOverlap

	var chunks []*schema.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunkText := string(runes[start:end])
		if strings.TrimSpace(chunkText) == "" {
			if end == len(runes) {
				break
			}
			continue
		}

		chunks = append(chunks, &schema.Chunk{
			ID:   uuid.New().String(),
			Text: chunkText,
			Metadata: map[string]interface{}{
				schema.MetadataKeyChunkNumber: len(chunks) + 1,
			},
		})

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// compile-time check to ensure CharacterSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharacterSplitter)(nil)
