package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"insight-engine/internal/rag/extractors"
	"insight-engine/internal/service"
	"insight-engine/pkg/logger"
)

type handler struct {
	svc *service.Service
	log *logger.Logger
}

func newHandler(svc *service.Service, log *logger.Logger) *handler {
	return &handler{svc: svc, log: log}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// uploadDocument accepts one document as multipart form field "file", stages
// it, and runs ingestion synchronously. Cache hits come back success=true
// with chunks_added=0.
func (h *handler) uploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field 'file'"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	result, err := h.svc.IngestUpload(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		h.log.WithError(err).WithField("file", fileHeader.Filename).Error("document ingestion failed")
		c.JSON(ingestStatus(err), result)
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

type folderRequest struct {
	Dir     string `json:"dir" binding:"required"`
	Pattern string `json:"pattern"`
}

// ingestFolder ingests every supported document under a server-local
// directory, optionally filtered by a glob pattern.
func (h *handler) ingestFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.svc.IngestFolder(c.Request.Context(), req.Dir, req.Pattern)
	if err != nil {
		h.log.WithError(err).WithField("dir", req.Dir).Error("folder ingestion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "results": results})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// ask answers a question against the ingested corpus. Failures are rendered
// from the structured result, never as a bare 500 with no body.
func (h *handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question must not be empty"})
		return
	}

	result := h.svc.Answer(c.Request.Context(), question)
	if !result.Success {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ingestStatus maps ingestion errors to HTTP status codes: client mistakes
// (wrong format, mismatched content) are 400s, everything else is a 500.
func ingestStatus(err error) int {
	switch {
	case errors.Is(err, extractors.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, extractors.ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
