package documents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"askdocs/internal/retrieval"
	"askdocs/models"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
)

// PreviewLength is how many characters of extracted text are kept on the
// document row.
const PreviewLength = 1000

// Extractor turns a stored file into plain text.
type Extractor interface {
	Extract(path, mediaType string) (string, error)
}

// Splitter cuts text into chunks.
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// Pipeline is the ingestion chain an upload runs through.
type Pipeline struct {
	Extractor Extractor
	Splitter  Splitter
	Embedder  retrieval.Embedder
	// UploadDir holds files while they are being processed.
	UploadDir string
	// Concurrency bounds how many chunks are embedded at once.
	Concurrency int
	// AllowEmpty keeps documents that produced no text. When false they are
	// rejected with ErrEmptyDocument.
	AllowEmpty bool
}

// UploadInput is a file to ingest.
type UploadInput struct {
	Filename  string
	MediaType string
	Reader    io.Reader
}

// Upload stores, extracts, chunks and embeds a file. The document becomes
// visible only with all of its chunks: if any step after the document row is
// created fails, the row and any chunks written so far are deleted again.
// The temporary copy of the file is always removed.
func (m *Manager) Upload(ctx context.Context, in UploadInput) (*Summary, error) {
	filename := strings.TrimSpace(filepath.Base(in.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}

	path, size, err := m.saveTemp(filename, in.Reader)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warnw("Failed to remove upload", "path", path, "error", err)
		}
	}()

	text, err := m.pipeline.Extractor.Extract(path, in.MediaType)
	if err != nil {
		return nil, err
	}

	chunks, err := m.pipeline.Splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		if !m.pipeline.AllowEmpty {
			return nil, fmt.Errorf("%s: %w", filename, ErrEmptyDocument)
		}
		m.logger.Warnw("No text extracted, storing document without chunks", "filename", filename)
	}

	document := &models.Document{
		Filename: filename,
		FileType: in.MediaType,
		FileSize: size,
		Content:  preview(text),
	}
	if err := m.store.CreateDocument(ctx, document); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if err := m.indexChunks(ctx, document.ID, chunks); err != nil {
		m.rollback(ctx, document.ID, err)
		return nil, err
	}

	m.logger.Infow("Uploaded document",
		"document_id", document.ID,
		"filename", filename,
		"size", size,
		"chunks", len(chunks),
	)

	summary := newSummary(document, len(chunks))
	return &summary, nil
}

func (m *Manager) saveTemp(filename string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(m.pipeline.UploadDir, 0o750); err != nil {
		return "", 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(m.pipeline.UploadDir, uuid.NewString()+filepath.Ext(filename))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to save upload: %w", err)
	}

	return path, size, nil
}

// indexChunks embeds every chunk and then stores them in index order.
func (m *Manager) indexChunks(ctx context.Context, documentID uint, chunks []string) error {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.pipeline.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			vector, err := m.pipeline.Embedder.Embed(gctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			vectors[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, chunk := range chunks {
		err := m.store.CreateChunk(ctx, &models.DocumentChunk{
			DocumentID: documentID,
			ChunkText:  chunk,
			ChunkIndex: i,
			Embedding:  pgvector.NewVector(vectors[i]),
		})
		if err != nil {
			return fmt.Errorf("failed to store chunk %d: %w", i, err)
		}
	}

	return nil
}

// rollback deletes a partially ingested document. It runs even when ctx has
// been cancelled.
func (m *Manager) rollback(ctx context.Context, documentID uint, cause error) {
	m.logger.Warnw("Upload failed, removing document", "document_id", documentID, "error", cause)

	if err := m.store.DeleteDocument(context.WithoutCancel(ctx), documentID); err != nil {
		m.logger.Errorw("Failed to remove partially uploaded document", "document_id", documentID, "error", err)
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength])
}
