package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"askdocs/models"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned for an unknown document id.
	ErrNotFound = models.ErrNotFound
	// ErrInvalidInput is returned for requests that can never succeed, such as
	// renaming a document to an empty name.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyDocument is returned by Upload when no text could be extracted
	// and empty documents are not allowed.
	ErrEmptyDocument = errors.New("no text could be extracted from document")
)

// Store is the persistence the document lifecycle depends on.
type Store interface {
	CreateDocument(ctx context.Context, document *models.Document) error
	GetDocument(ctx context.Context, id uint) (*models.Document, error)
	ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
	UpdateDocument(ctx context.Context, id uint, patch models.DocumentPatch) (*models.Document, error)
	DeleteDocument(ctx context.Context, id uint) error
	CreateChunk(ctx context.Context, chunk *models.DocumentChunk) error
	CountChunks(ctx context.Context, documentIDs []uint) (map[uint]int, error)
}

// Summary is a document as clients see it. ChunkCount is counted from the
// stored chunks on every read.
type Summary struct {
	ID         uint      `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	UploadDate time.Time `json:"upload_date"`
	ChunkCount int       `json:"chunk_count"`
	Starred    bool      `json:"is_starred"`
	Deleted    bool      `json:"is_deleted"`
}

func newSummary(document *models.Document, chunkCount int) Summary {
	return Summary{
		ID:         document.ID,
		Filename:   document.Filename,
		FileType:   document.FileType,
		FileSize:   document.FileSize,
		UploadDate: document.CreatedAt,
		ChunkCount: chunkCount,
		Starred:    document.Starred,
		Deleted:    document.Deleted,
	}
}

// Manager owns the document lifecycle: upload, listing, starring, soft
// deletion, restoring, renaming and permanent deletion.
type Manager struct {
	store    Store
	pipeline Pipeline
	logger   *zap.SugaredLogger
}

func NewManager(store Store, pipeline Pipeline, logger *zap.SugaredLogger) *Manager {
	if pipeline.Concurrency <= 0 {
		pipeline.Concurrency = 1
	}

	return &Manager{
		store:    store,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Get returns one document, deleted or not.
func (m *Manager) Get(ctx context.Context, id uint) (*Summary, error) {
	document, err := m.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return m.summarize(ctx, document)
}

// List returns the documents selected by filter, newest first.
func (m *Manager) List(ctx context.Context, filter models.DocumentFilter) ([]Summary, error) {
	documents, err := m.store.ListDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	ids := make([]uint, len(documents))
	for i, document := range documents {
		ids[i] = document.ID
	}
	counts, err := m.store.CountChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	summaries := make([]Summary, len(documents))
	for i := range documents {
		summaries[i] = newSummary(&documents[i], counts[documents[i].ID])
	}

	return summaries, nil
}

// Update applies a partial change. Filenames are trimmed and may not be
// empty. An empty patch returns the document unchanged.
func (m *Manager) Update(ctx context.Context, id uint, patch models.DocumentPatch) (*Summary, error) {
	if patch.Filename != nil {
		name := strings.TrimSpace(*patch.Filename)
		if name == "" {
			return nil, fmt.Errorf("%w: filename must not be empty", ErrInvalidInput)
		}
		patch.Filename = &name
	}

	document, err := m.store.UpdateDocument(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	return m.summarize(ctx, document)
}

func (m *Manager) Star(ctx context.Context, id uint) (*Summary, error) {
	return m.Update(ctx, id, models.DocumentPatch{Starred: boolPtr(true)})
}

func (m *Manager) Unstar(ctx context.Context, id uint) (*Summary, error) {
	return m.Update(ctx, id, models.DocumentPatch{Starred: boolPtr(false)})
}

// SoftDelete moves a document to the trash. Its chunks are kept but no longer
// searched.
func (m *Manager) SoftDelete(ctx context.Context, id uint) (*Summary, error) {
	return m.Update(ctx, id, models.DocumentPatch{Deleted: boolPtr(true)})
}

// Restore takes a document out of the trash.
func (m *Manager) Restore(ctx context.Context, id uint) (*Summary, error) {
	return m.Update(ctx, id, models.DocumentPatch{Deleted: boolPtr(false)})
}

func (m *Manager) Rename(ctx context.Context, id uint, filename string) (*Summary, error) {
	return m.Update(ctx, id, models.DocumentPatch{Filename: &filename})
}

// HardDelete removes a document and its chunks permanently.
func (m *Manager) HardDelete(ctx context.Context, id uint) error {
	if err := m.store.DeleteDocument(ctx, id); err != nil {
		return err
	}

	m.logger.Infow("Deleted document", "document_id", id)

	return nil
}

func (m *Manager) summarize(ctx context.Context, document *models.Document) (*Summary, error) {
	counts, err := m.store.CountChunks(ctx, []uint{document.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	summary := newSummary(document, counts[document.ID])
	return &summary, nil
}

func boolPtr(b bool) *bool {
	return &b
}
