package schema

const (
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "file_name"
	// MetadataKeyChunkNumber is the key for the 1-based position of a chunk
	// within its source document.
	MetadataKeyChunkNumber = "chunk_number"
	// MetadataKeyContentKey is the key for the fingerprint of the source
	// document's normalized text.
	MetadataKeyContentKey = "content_key"
	// MetadataKeyModTime is the key for the source file's modification time.
	MetadataKeyModTime = "mod_time"
)

// Chunk is the central data structure representing a bounded window of a
// document's extracted text. It is the primary data carrier throughout the
// ingestion and retrieval pipelines.
type Chunk struct {
	// ID is the unique identifier for this chunk.
	ID string

	// Text is the string content of the chunk.
	Text string

	// Embedding is the vector representation of the text. It is empty until
	// the chunk has passed through the embedding model.
	Embedding []float32

	// Metadata holds arbitrary data about the chunk, like file_name and
	// chunk_number.
	Metadata map[string]interface{}
}

// ScoredChunk pairs a retrieved chunk with its similarity score against a
// query. Higher scores mean closer matches.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// Source returns the file name the chunk originated from, or an empty string
// when unknown.
func (c *Chunk) Source() string {
	if c.Metadata == nil {
		return ""
	}
	if name, ok := c.Metadata[MetadataKeyFileName].(string); ok {
		return name
	}
	return ""
}
