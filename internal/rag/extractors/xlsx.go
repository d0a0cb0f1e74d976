package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX reads an Excel workbook, rendering every sheet as a labeled
// block of rows with cells joined by " | ". Unreadable sheets are skipped.
func extractXLSX(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}

		sb.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", sheetName))
		for _, row := range rows {
			sb.WriteString(strings.Join(row, " | "))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
