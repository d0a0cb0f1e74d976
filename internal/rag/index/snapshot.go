package index

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// VectorsFileName is the artifact holding entry IDs and their vectors.
	VectorsFileName = "vectors.gob"
	// MetaFileName is the artifact mapping entry IDs back to chunk text and
	// source.
	MetaFileName = "meta.json"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot pair exists at a
	// location. Querying before the first ingestion surfaces this.
	ErrSnapshotNotFound = errors.New("index snapshot not found")

	// ErrSnapshotCorrupt is returned when the two snapshot artifacts are
	// present but inconsistent with each other. A corrupt snapshot must be
	// treated as "no index", never silently used.
	ErrSnapshotCorrupt = errors.New("index snapshot is corrupt")
)

// vectorsArtifact is the gob-encoded on-disk form of the index vectors.
type vectorsArtifact struct {
	IDs     []string
	Vectors [][]float32
}

// entryMeta is the JSON on-disk form of one entry's text and provenance.
type entryMeta struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Source  string `json:"source"`
	Ordinal int    `json:"ordinal"`
}

// metaArtifact is the JSON-encoded on-disk form of the index metadata.
type metaArtifact struct {
	Entries []entryMeta `json:"entries"`
}

// SnapshotExists reports whether a complete snapshot pair is present at dir.
// A lone artifact does not count.
func SnapshotExists(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, VectorsFileName)); err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, MetaFileName)); err != nil {
		return false
	}
	return true
}

// SaveSnapshot writes the index to dir as the artifact pair. Each artifact is
// written to a temporary file and renamed into place, so a crash mid-write
// leaves either the previous pair or the new pair, never a torn file.
func SaveSnapshot(dir string, ix *VectorIndex) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	entries := ix.Entries()
	vectors := vectorsArtifact{
		IDs:     make([]string, len(entries)),
		Vectors: make([][]float32, len(entries)),
	}
	meta := metaArtifact{Entries: make([]entryMeta, len(entries))}
	for i, e := range entries {
		vectors.IDs[i] = e.ID
		vectors.Vectors[i] = e.Vector
		meta.Entries[i] = entryMeta{ID: e.ID, Text: e.Text, Source: e.Source, Ordinal: e.Ordinal}
	}

	vectorsPath := filepath.Join(dir, VectorsFileName)
	if err := writeAtomic(vectorsPath, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(&vectors)
	}); err != nil {
		return fmt.Errorf("failed to write vectors artifact: %w", err)
	}

	metaPath := filepath.Join(dir, MetaFileName)
	if err := writeAtomic(metaPath, func(f *os.File) error {
		return json.NewEncoder(f).Encode(&meta)
	}); err != nil {
		return fmt.Errorf("failed to write metadata artifact: %w", err)
	}

	return nil
}

// LoadSnapshot reads the artifact pair at dir and reconstructs the index.
// A missing artifact yields ErrSnapshotNotFound; artifacts that disagree
// with each other yield ErrSnapshotCorrupt.
func LoadSnapshot(dir string) (*VectorIndex, error) {
	vectorsPath := filepath.Join(dir, VectorsFileName)
	metaPath := filepath.Join(dir, MetaFileName)

	vf, err := os.Open(vectorsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to open vectors artifact: %w", err)
	}
	defer vf.Close()

	mf, err := os.Open(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to open metadata artifact: %w", err)
	}
	defer mf.Close()

	var vectors vectorsArtifact
	if err := gob.NewDecoder(vf).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("%w: decoding vectors: %v", ErrSnapshotCorrupt, err)
	}
	var meta metaArtifact
	if err := json.NewDecoder(mf).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata: %v", ErrSnapshotCorrupt, err)
	}

	if len(vectors.IDs) != len(vectors.Vectors) || len(vectors.IDs) != len(meta.Entries) {
		return nil, fmt.Errorf("%w: artifact entry counts disagree", ErrSnapshotCorrupt)
	}

	entries := make([]Entry, len(meta.Entries))
	for i, m := range meta.Entries {
		if vectors.IDs[i] != m.ID {
			return nil, fmt.Errorf("%w: artifact entry order disagrees at %d", ErrSnapshotCorrupt, i)
		}
		entries[i] = Entry{
			ID:      m.ID,
			Text:    m.Text,
			Source:  m.Source,
			Ordinal: m.Ordinal,
			Vector:  vectors.Vectors[i],
		}
	}

	return NewVectorIndex(entries), nil
}

// writeAtomic writes a file through a temporary sibling plus rename.
func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
