// Package extract turns uploaded files into plain text.
package extract

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned in strict mode for media types the
// extractor cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Media types the extractor dispatches on.
const (
	TypePDF      = "application/pdf"
	TypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeText     = "text/plain"
	TypeMarkdown = "text/markdown"
	TypeHTML     = "text/html"
)

// Extractor reads text out of PDF, DOCX, HTML and plain text files.
//
// Damaged input is never fatal: unreadable PDF pages are skipped and a file
// that cannot be parsed at all yields empty text. Only an unknown media type
// in strict mode is reported as an error.
type Extractor struct {
	strict bool
	logger *zap.SugaredLogger
}

// NewExtractor creates an extractor. With strict set, unsupported media types
// fail with ErrUnsupportedFormat; otherwise they produce empty text.
func NewExtractor(strict bool, logger *zap.SugaredLogger) *Extractor {
	return &Extractor{
		strict: strict,
		logger: logger,
	}
}

// Extract reads the file at path according to its declared media type. An
// empty or generic declared type is replaced by the type detected from the
// file contents.
func (e *Extractor) Extract(path, mediaType string) (string, error) {
	kind := normalizeType(mediaType)
	if kind == "" || kind == "application/octet-stream" {
		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		kind = normalizeType(detected.String())
		e.logger.Debugw("Detected media type", "declared", mediaType, "detected", kind)
	}

	switch {
	case kind == TypePDF:
		return e.extractPDF(path), nil
	case strings.Contains(kind, "wordprocessingml"):
		return e.extractDOCX(path), nil
	case kind == TypeHTML:
		return e.extractHTML(path)
	case kind == TypeText, kind == TypeMarkdown:
		return extractText(path)
	}

	if e.strict {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
	}

	e.logger.Warnw("Unsupported media type, storing without text", "type", mediaType)
	return "", nil
}

// normalizeType strips parameters such as charset and lowercases the type.
func normalizeType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0]))
	}
	return parsed
}

func extractText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return sanitizeUTF8(string(b)), nil
}

// sanitizeUTF8 drops invalid byte sequences.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
