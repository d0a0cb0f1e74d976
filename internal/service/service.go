// Package service exposes the application-facing operations: ingest a file,
// ingest an uploaded stream, ingest a folder, answer a question. It owns
// filesystem staging concerns so the pipelines can stay path-agnostic.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"insight-engine/internal/rag/extractors"
	"insight-engine/internal/rag/pipeline"
	"insight-engine/pkg/logger"
)

// folderWorkers caps concurrent extraction during folder ingestion. Embedding
// and merging are serialized further down by the index store.
const folderWorkers = 4

// Service wires the indexing and question-answering pipelines behind one
// application API.
type Service struct {
	indexing  *pipeline.IndexingPipeline
	qa        *pipeline.QAPipeline
	uploadDir string
	log       *logger.Logger
}

// New creates a Service. uploadDir is created on demand.
func New(indexing *pipeline.IndexingPipeline, qa *pipeline.QAPipeline, uploadDir string, log *logger.Logger) *Service {
	return &Service{
		indexing:  indexing,
		qa:        qa,
		uploadDir: uploadDir,
		log:       log,
	}
}

// IngestFile ingests one document from a local path.
func (s *Service) IngestFile(ctx context.Context, path string) (pipeline.IngestResult, error) {
	return s.indexing.Run(ctx, path)
}

// IngestUpload stages an uploaded document under the upload directory,
// ingests it, and removes the staged copy afterwards. The staged name keeps
// the original extension so format detection works, prefixed with a random
// id so concurrent uploads of the same file name cannot collide.
func (s *Service) IngestUpload(ctx context.Context, filename string, r io.Reader) (pipeline.IngestResult, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return pipeline.IngestResult{Success: false, Reason: "could not stage upload"}, fmt.Errorf("failed to create upload dir: %w", err)
	}

	base := filepath.Base(filename)
	staged := filepath.Join(s.uploadDir, uuid.NewString()+"_"+base)

	f, err := os.Create(staged)
	if err != nil {
		return pipeline.IngestResult{Success: false, Reason: "could not stage upload"}, fmt.Errorf("failed to create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(staged)
		return pipeline.IngestResult{Success: false, Reason: "could not stage upload"}, fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(staged)
		return pipeline.IngestResult{Success: false, Reason: "could not stage upload"}, fmt.Errorf("failed to close staged file: %w", err)
	}
	defer func() {
		if err := os.Remove(staged); err != nil {
			s.log.WithError(err).WithField("path", staged).Warn("failed to remove staged upload")
		}
	}()

	result, err := s.indexing.Run(ctx, staged)
	if err != nil {
		return result, err
	}

	s.log.WithPayload(map[string]interface{}{
		"file":         base,
		"chunks_added": result.ChunksAdded,
		"cache_hit":    result.CacheHit,
	}).Info("ingested uploaded document")

	return result, nil
}

// IngestFolder ingests every supported document under dir whose name matches
// pattern (a glob; empty means all files). Files that fail keep their
// structured failure result; one bad file does not stop the batch. The
// returned map is keyed by file name relative to dir.
func (s *Service) IngestFolder(ctx context.Context, dir, pattern string) (map[string]pipeline.IngestResult, error) {
	var matcher glob.Glob
	if pattern != "" {
		var err error
		matcher, err = glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := extractors.ParseFormat(path); err != nil {
			return nil // skip unsupported formats silently during folder scans
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if matcher != nil && !matcher.Match(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder %s: %w", dir, err)
	}
	sort.Strings(files)

	results := make(map[string]pipeline.IngestResult, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(folderWorkers)
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			result, err := s.indexing.Run(gctx, filepath.Join(dir, rel))
			if err != nil {
				s.log.WithError(err).WithField("file", rel).Warn("failed to ingest file from folder")
			}
			mu.Lock()
			results[rel] = result
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}

// Answer resolves a question against the ingested corpus.
func (s *Service) Answer(ctx context.Context, question string) pipeline.AnswerResult {
	return s.qa.Answer(ctx, question)
}
