package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

// documentXML is the part of word/document.xml that holds paragraph text.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDOCX joins the document's paragraphs with newlines.
func (e *Extractor) extractDOCX(path string) string {
	reader, err := zip.OpenReader(path)
	if err != nil {
		e.logger.Warnw("Failed to open DOCX", "path", path, "error", err)
		return ""
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			e.logger.Warnw("Failed to open DOCX body", "path", path, "error", err)
			return ""
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			e.logger.Warnw("Failed to read DOCX body", "path", path, "error", err)
			return ""
		}

		text, err := parseDocumentXML(content)
		if err != nil {
			e.logger.Warnw("Failed to parse DOCX body", "path", path, "error", err)
			return ""
		}
		return text
	}

	e.logger.Warnw("DOCX has no word/document.xml", "path", path)
	return ""
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		paragraphs = append(paragraphs, b.String())
	}

	return strings.Join(paragraphs, "\n"), nil
}
