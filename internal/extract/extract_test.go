package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	part, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor(true, zap.NewNop().Sugar())

	tests := []struct {
		name      string
		mediaType string
		content   []byte
		expected  string
	}{
		{name: "plain", mediaType: "text/plain", content: []byte("hello\n\nworld"), expected: "hello\n\nworld"},
		{name: "charset parameter", mediaType: "text/plain; charset=utf-8", content: []byte("héllo"), expected: "héllo"},
		{name: "markdown", mediaType: "text/markdown", content: []byte("# Title"), expected: "# Title"},
		{name: "invalid utf8 dropped", mediaType: "text/plain", content: []byte("ok\xffok"), expected: "okok"},
		{name: "sniffed when generic", mediaType: "application/octet-stream", content: []byte("just some text"), expected: "just some text"},
		{name: "sniffed when empty", mediaType: "", content: []byte("just some text"), expected: "just some text"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "file", tc.content)
			text, err := e.Extract(path, tc.mediaType)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, text)
		})
	}
}

func TestExtractDOCX(t *testing.T) {
	e := NewExtractor(true, zap.NewNop().Sugar())
	path := writeDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := e.Extract(path, TypeDOCX)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph", text)
}

func TestExtractCorruptFilesDegradeToEmptyText(t *testing.T) {
	e := NewExtractor(true, zap.NewNop().Sugar())

	pdfPath := writeFile(t, "broken.pdf", []byte("%PDF-1.4 this is not really a pdf"))
	text, err := e.Extract(pdfPath, TypePDF)
	require.NoError(t, err)
	assert.Empty(t, text)

	docxPath := writeFile(t, "broken.docx", []byte("not a zip archive"))
	text, err = e.Extract(docxPath, TypeDOCX)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractHTML(t *testing.T) {
	e := NewExtractor(true, zap.NewNop().Sugar())
	path := writeFile(t, "page.html", []byte("<html><body><p>Hello <b>there</b></p></body></html>"))

	text, err := e.Extract(path, "text/html; charset=utf-8")
	require.NoError(t, err)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "there")
	assert.NotContains(t, text, "<p>")
}

func TestExtractUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "image.png", []byte("\x89PNG\r\n\x1a\n"))

	strict := NewExtractor(true, zap.NewNop().Sugar())
	_, err := strict.Extract(path, "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	permissive := NewExtractor(false, zap.NewNop().Sugar())
	text, err := permissive.Extract(path, "image/png")
	require.NoError(t, err)
	assert.Empty(t, text)
}
