package extractors

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrUnsupportedFormat is returned for file extensions outside the
	// supported set. It is surfaced before any parsing work happens.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtraction wraps parser failures so callers can report "could not
	// read document" without inspecting format-specific errors.
	ErrExtraction = errors.New("document extraction failed")
)

// Format identifies a supported document type.
type Format int

const (
	FormatPDF Format = iota
	FormatDOCX
	FormatXLSX
	FormatPPTX
)

// String returns the canonical file extension for the format.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatDOCX:
		return ".docx"
	case FormatXLSX:
		return ".xlsx"
	case FormatPPTX:
		return ".pptx"
	default:
		return "unknown"
	}
}

// ExtractFunc reads a document file and returns its raw text content.
type ExtractFunc func(ctx context.Context, path string) (string, error)

// extractTable maps each format to its extraction capability. Dispatch goes
// through this table rather than extension branching at call sites.
var extractTable = map[Format]ExtractFunc{
	FormatPDF:  extractPDF,
	FormatDOCX: extractDOCX,
	FormatXLSX: extractXLSX,
	FormatPPTX: extractPPTX,
}

// ParseFormat maps a file path's extension to a Format.
// Unknown extensions fail with ErrUnsupportedFormat.
func ParseFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".pptx":
		return FormatPPTX, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Sniff verifies that a file's content matches the format implied by its
// extension, so a renamed binary cannot reach the parsers.
func Sniff(path string, format Format) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("%w: detecting MIME type: %v", ErrExtraction, err)
	}
	if mtype.Extension() != format.String() {
		return fmt.Errorf("%w: content is %s, extension says %s", ErrUnsupportedFormat, mtype.String(), format)
	}
	return nil
}

// Extract dispatches to the format's extraction function and normalizes the
// result. The returned text has collapsed whitespace and no non-printable
// characters; it may be empty for documents without extractable text.
func Extract(ctx context.Context, path string, format Format) (string, error) {
	fn, ok := extractTable[format]
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	raw, err := fn(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return Normalize(raw), nil
}
