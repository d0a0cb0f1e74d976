package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"insight-engine/internal/rag/cache"
	"insight-engine/internal/rag/index"
	"insight-engine/internal/rag/pipeline"
	"insight-engine/internal/rag/splitters"
	"insight-engine/internal/service"
	"insight-engine/pkg/logger"
	"insight-engine/pkg/ratelimiter"
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
	return "The warehouse holds 42 widgets.", nil
}

func newTestRouter(t *testing.T, limiter ratelimiter.RateLimiter) *gin.Engine {
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

	svc := service.New(indexing, qa, t.TempDir(), log)
	return NewRouter(svc, limiter, log)
}

// workbookUpload builds a small real XLSX workbook and wraps it as a
// multipart request body.
func workbookUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()

	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "item"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "count"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "widgets"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", 42))
	for row := 3; row < 12; row++ {
		cell := fmt.Sprintf("A%d", row)
		require.NoError(t, wb.SetCellValue("Sheet1", cell, "filler row content"))
	}
	content, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &body, w.FormDataContentType()
}

func doRequest(router *gin.Engine, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAsk_BeforeAnyDocument(t *testing.T) {
	router := newTestRouter(t, nil)

	body := bytes.NewBufferString(`{"question":"how many widgets?"}`)
	rec := doRequest(router, http.MethodPost, "/api/v1/ask", "application/json", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var result pipeline.AnswerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "ingest a document first")
}

func TestUploadThenAsk(t *testing.T) {
	router := newTestRouter(t, nil)

	body, contentType := workbookUpload(t, "inventory.xlsx")
	rec := doRequest(router, http.MethodPost, "/api/v1/documents", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ingest pipeline.IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingest))
	assert.True(t, ingest.Success)
	assert.False(t, ingest.CacheHit)
	assert.Greater(t, ingest.ChunksAdded, 0)

	ask := bytes.NewBufferString(`{"question":"how many widgets are in stock?"}`)
	rec = doRequest(router, http.MethodPost, "/api/v1/ask", "application/json", ask)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var answer pipeline.AnswerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.True(t, answer.Success)
	assert.Equal(t, "The warehouse holds 42 widgets.", answer.Answer)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "inventory.xlsx", answer.Sources[0].FileName)
}

func TestUpload_SameContentTwiceIsCacheHit(t *testing.T) {
	router := newTestRouter(t, nil)

	body, contentType := workbookUpload(t, "inventory.xlsx")
	first := doRequest(router, http.MethodPost, "/api/v1/documents", contentType, body)
	require.Equal(t, http.StatusOK, first.Code)

	var firstResult pipeline.IngestResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResult))

	// Re-extracted text is identical, so the second upload skips embedding.
	body2, contentType2 := workbookUpload(t, "renamed.xlsx")
	second := doRequest(router, http.MethodPost, "/api/v1/documents", contentType2, body2)
	require.Equal(t, http.StatusOK, second.Code)

	var secondResult pipeline.IngestResult
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResult))
	assert.True(t, secondResult.Success)
	assert.True(t, secondResult.CacheHit)
	assert.Zero(t, secondResult.ChunksAdded)
	assert.Equal(t, firstResult.ContentKey, secondResult.ContentKey)
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	router := newTestRouter(t, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := doRequest(router, http.MethodPost, "/api/v1/documents", w.FormDataContentType(), &body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_MissingFileField(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(router, http.MethodPost, "/api/v1/documents", "application/json", bytes.NewBufferString("{}"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_MissingQuestion(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(router, http.MethodPost, "/api/v1/ask", "application/json", bytes.NewBufferString("{}"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_BlankQuestion(t *testing.T) {
	router := newTestRouter(t, nil)

	body := bytes.NewBufferString(`{"question":"   "}`)
	rec := doRequest(router, http.MethodPost, "/api/v1/ask", "application/json", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question must not be empty")
}

func TestAsk_RateLimited(t *testing.T) {
	// One token, effectively no refill within the test window.
	limiter := ratelimiter.NewTokenBucket(0.001, 1)
	router := newTestRouter(t, limiter)

	first := doRequest(router, http.MethodPost, "/api/v1/ask", "application/json",
		bytes.NewBufferString(`{"question":"first"}`))
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := doRequest(router, http.MethodPost, "/api/v1/ask", "application/json",
		bytes.NewBufferString(`{"question":"second"}`))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
