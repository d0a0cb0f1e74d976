package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"insight-engine/internal/rag/pipeline"
)

func newAskCommand() *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the ingested corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			body, err := json.Marshal(map[string]string{"question": question})
			if err != nil {
				return err
			}

			resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("could not reach engine at %s: %w", serverURL, err)
			}
			defer resp.Body.Close()

			var result pipeline.AnswerResult
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
			}

			if !result.Success {
				return fmt.Errorf("no answer: %s", result.Reason)
			}

			cmd.Println(result.Answer)
			if showSources && len(result.Sources) > 0 {
				cmd.Println("\nSources:")
				for _, src := range result.Sources {
					cmd.Printf("  %s (score %.3f): %s\n", src.FileName, src.Score, src.Snippet)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "print the chunks the answer was grounded on")
	return cmd
}
