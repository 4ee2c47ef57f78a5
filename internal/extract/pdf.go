package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the text of every page it can decode.
func (e *Extractor) extractPDF(path string) (text string) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warnw("Failed to parse PDF", "path", path, "panic", r)
			text = ""
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		e.logger.Warnw("Failed to open PDF", "path", path, "error", err)
		return ""
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warnw("Skipping unreadable PDF page", "path", path, "page", i, "error", err)
			continue
		}
		b.WriteString(pageText)
	}

	return sanitizeUTF8(b.String())
}
