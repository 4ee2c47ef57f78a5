package extract

import (
	"fmt"
	"os"

	"github.com/jaytaylor/html2text"
)

func (e *Extractor) extractHTML(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, err := html2text.FromString(sanitizeUTF8(string(b)), html2text.Options{})
	if err != nil {
		e.logger.Warnw("Failed to convert HTML", "path", path, "error", err)
		return "", nil
	}

	return text, nil
}
