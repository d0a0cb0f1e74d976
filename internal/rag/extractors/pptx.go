package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/v2/presentation"
)

// extractPPTX reads a PowerPoint presentation and collects the text of every
// placeholder on every slide, one line per paragraph.
func extractPPTX(ctx context.Context, path string) (string, error) {
	ppt, err := presentation.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PPTX: %w", err)
	}
	defer ppt.Close()

	var sb strings.Builder
	for _, slide := range ppt.Slides() {
		for _, ph := range slide.PlaceHolders() {
			for _, para := range ph.Paragraphs() {
				for _, run := range para.X().EG_TextRun {
					if run.TextRunChoice != nil && run.TextRunChoice.R != nil {
						sb.WriteString(run.TextRunChoice.R.T)
					}
				}
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}
