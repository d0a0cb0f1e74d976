package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/v2/document"
)

// extractDOCX reads a Word document and concatenates the text of all
// paragraph runs, one line per paragraph.
func extractDOCX(ctx context.Context, path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
