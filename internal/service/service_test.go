package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"insight-engine/internal/rag/cache"
	"insight-engine/internal/rag/index"
	"insight-engine/internal/rag/pipeline"
	"insight-engine/internal/rag/splitters"
	"insight-engine/pkg/logger"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return stubVector(text), nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = stubVector(t)
	}
	return vectors, nil
}

func stubVector(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r%31) + 1
	}
	return v
}

type stubLLM struct{}

func (stubLLM) Generate(_ context.Context, _ string) (string, error) {
	return "stub answer", nil
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	log := logger.New("test", "")

	splitter, err := splitters.NewCharacterSplitter(100, 20)
	require.NoError(t, err)

	store := index.NewStore(t.TempDir(), stubEmbedder{}, nil, log)
	contentCache, err := cache.NewContentCache(t.TempDir(), log)
	require.NoError(t, err)

	indexing := pipeline.NewIndexingPipeline(splitter, store, contentCache, log)
	retrieval := pipeline.NewRetrievalPipeline(stubEmbedder{}, store, log)
	qa := pipeline.NewQAPipeline(retrieval, stubLLM{}, nil, 3, log)

	uploadDir := t.TempDir()
	return New(indexing, qa, uploadDir, log), uploadDir
}

func writeWorkbook(t *testing.T, path, marker string) {
	t.Helper()

	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", marker))
	for row := 2; row < 10; row++ {
		cell, err := excelize.CoordinatesToCellName(1, row)
		require.NoError(t, err)
		require.NoError(t, wb.SetCellValue("Sheet1", cell, "padding text for chunking"))
	}
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())
}

func workbookBytes(t *testing.T, marker string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmp.xlsx")
	writeWorkbook(t, path, marker)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestIngestUpload_StagesAndCleansUp(t *testing.T) {
	svc, uploadDir := newTestService(t)

	data := workbookBytes(t, "upload marker")
	result, err := svc.IngestUpload(context.Background(), "report.xlsx", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Greater(t, result.ChunksAdded, 0)

	// The staged copy is gone once ingestion finishes.
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestFolder_MixedContent(t *testing.T) {
	svc, _ := newTestService(t)

	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "one.xlsx"), "first workbook")
	writeWorkbook(t, filepath.Join(dir, "two.xlsx"), "second workbook")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	results, err := svc.IngestFolder(context.Background(), dir, "")
	require.NoError(t, err)

	// Unsupported formats are skipped, not reported as failures.
	require.Len(t, results, 2)
	assert.True(t, results["one.xlsx"].Success)
	assert.True(t, results["two.xlsx"].Success)
}

func TestIngestFolder_GlobFilter(t *testing.T) {
	svc, _ := newTestService(t)

	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "keep.xlsx"), "kept workbook")
	writeWorkbook(t, filepath.Join(dir, "skip.xlsx"), "skipped workbook")

	results, err := svc.IngestFolder(context.Background(), dir, "keep.*")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results, "keep.xlsx")
}

func TestIngestFolder_BadPattern(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IngestFolder(context.Background(), t.TempDir(), "[unclosed")
	assert.Error(t, err)
}

func TestIngestFolder_MissingDirectory(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IngestFolder(context.Background(), filepath.Join(t.TempDir(), "absent"), "")
	assert.Error(t, err)
}

func TestIngestFile_Unsupported(t *testing.T) {
	svc, _ := newTestService(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	result, err := svc.IngestFile(context.Background(), path)
	assert.Error(t, err)
	assert.False(t, result.Success)
}
