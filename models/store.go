package models

import (
	"context"

	"gorm.io/gorm"
)

// Store is the postgres-backed persistence used by the service. Each method
// runs with the caller's context so a cancelled request stops its queries.
type Store struct {
	DB *gorm.DB
}

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB, dimensions int) error {
	if err := db.AutoMigrate(&Document{}, &ChatHistory{}); err != nil {
		return err
	}

	return MigrateChunks(db, dimensions)
}

func (s *Store) CreateDocument(ctx context.Context, document *Document) error {
	return CreateDocument(s.DB.WithContext(ctx), document)
}

func (s *Store) GetDocument(ctx context.Context, id uint) (*Document, error) {
	return GetDocumentByID(s.DB.WithContext(ctx), id)
}

func (s *Store) ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error) {
	return GetDocuments(s.DB.WithContext(ctx), filter)
}

func (s *Store) UpdateDocument(ctx context.Context, id uint, patch DocumentPatch) (*Document, error) {
	return UpdateDocument(s.DB.WithContext(ctx), id, patch)
}

func (s *Store) DeleteDocument(ctx context.Context, id uint) error {
	return DeleteDocument(s.DB.WithContext(ctx), id)
}

func (s *Store) CreateChunk(ctx context.Context, chunk *DocumentChunk) error {
	return CreateChunk(s.DB.WithContext(ctx), chunk)
}

func (s *Store) CountChunks(ctx context.Context, documentIDs []uint) (map[uint]int, error) {
	return CountChunks(s.DB.WithContext(ctx), documentIDs)
}

func (s *Store) FirstChunks(ctx context.Context, documentIDs []uint) (map[uint]string, error) {
	return GetFirstChunks(s.DB.WithContext(ctx), documentIDs)
}

func (s *Store) SearchChunks(ctx context.Context, query []float32, k int) ([]ScoredChunk, error) {
	return SearchChunks(s.DB.WithContext(ctx), query, k)
}

func (s *Store) AppendChatHistory(ctx context.Context, entry *ChatHistory) error {
	return CreateChatHistory(s.DB.WithContext(ctx), entry)
}

func (s *Store) ListChatHistory(ctx context.Context, limit int) ([]ChatHistory, error) {
	return GetChatHistory(s.DB.WithContext(ctx), limit)
}

func (s *Store) ClearChatHistory(ctx context.Context) error {
	return ClearChatHistory(s.DB.WithContext(ctx))
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.WithContext(ctx).Raw(`SELECT 1`).Row().Err()
}
