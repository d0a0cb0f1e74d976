package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"insight-engine/internal/rag/pipeline"
)

func newIngestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Upload one document and add it to the corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := uploadDocument(args[0])
			if err != nil {
				return err
			}
			printIngestResult(cmd, filepath.Base(args[0]), result)
			if !result.Success {
				return fmt.Errorf("ingestion failed: %s", result.Reason)
			}
			return nil
		},
	}
}

func newIngestDirCommand() *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "ingest-dir <dir>",
		Short: "Ingest every supported document under a server-local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]string{
				"dir":     args[0],
				"pattern": pattern,
			})
			if err != nil {
				return err
			}

			resp, err := http.Post(serverURL+"/api/v1/documents/folder", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("could not reach engine at %s: %w", serverURL, err)
			}
			defer resp.Body.Close()

			var payload struct {
				Error   string                           `json:"error"`
				Results map[string]pipeline.IngestResult `json:"results"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return fmt.Errorf("unexpected response: %w", err)
			}

			names := make([]string, 0, len(payload.Results))
			for name := range payload.Results {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				printIngestResult(cmd, name, payload.Results[name])
			}

			if payload.Error != "" {
				return fmt.Errorf("folder ingestion failed: %s", payload.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "glob", "", "only ingest files whose relative path matches this glob")
	return cmd
}

func uploadDocument(path string) (pipeline.IngestResult, error) {
	var result pipeline.IngestResult

	f, err := os.Open(path)
	if err != nil {
		return result, err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return result, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return result, err
	}
	if err := w.Close(); err != nil {
		return result, err
	}

	resp, err := http.Post(serverURL+"/api/v1/documents", w.FormDataContentType(), &buf)
	if err != nil {
		return result, fmt.Errorf("could not reach engine at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	return result, nil
}

func printIngestResult(cmd *cobra.Command, name string, result pipeline.IngestResult) {
	switch {
	case result.Success && result.CacheHit:
		cmd.Printf("%s: already indexed (content key %s)\n", name, result.ContentKey)
	case result.Success:
		cmd.Printf("%s: indexed %d chunks\n", name, result.ChunksAdded)
	default:
		cmd.Printf("%s: failed: %s\n", name, result.Reason)
	}
}
