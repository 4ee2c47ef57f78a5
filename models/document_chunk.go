package models

import (
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DocumentChunks are text chunks used for semantic search and question
// answering. They are derived from Documents. ChunkIndex values of a document
// run from 0 without gaps, in the order the text appeared.
type DocumentChunk struct {
	ID         uint            `gorm:"primaryKey"`
	DocumentID uint            `gorm:"index;not null"`
	ChunkText  string          `gorm:"not null"`
	ChunkIndex int             `gorm:"not null"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	CreatedAt  time.Time
}

// ScoredChunk is a search hit. Similarity is cosine similarity, 1 being
// identical direction.
type ScoredChunk struct {
	ChunkID    uint
	DocumentID uint
	ChunkText  string
	ChunkIndex int
	Similarity float64
}

// MigrateChunks creates the chunk table. It is not left to AutoMigrate
// because the vector column needs the embedding dimension baked in.
func MigrateChunks(db *gorm.DB, dimensions int) error {
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS document_chunks (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			chunk_text TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (document_id, chunk_index)
		)`, dimensions)
	if err := db.Exec(createTable).Error; err != nil {
		return fmt.Errorf("failed to create chunk table: %w", err)
	}

	// pgvector cannot build HNSW indexes above 2000 dimensions. Exact search
	// still works without it.
	if dimensions <= 2000 {
		err := db.Exec(`
			CREATE INDEX IF NOT EXISTS document_chunks_embedding_idx
			ON document_chunks
			USING hnsw (embedding vector_cosine_ops)`).Error
		if err != nil {
			return fmt.Errorf("failed to create embedding index: %w", err)
		}
	}

	return nil
}

func CreateChunk(db *gorm.DB, chunk *DocumentChunk) error {
	return db.Create(chunk).Error
}

// CountChunks returns the number of chunks per document. Documents without
// chunks are absent from the map.
func CountChunks(db *gorm.DB, documentIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(documentIDs))
	if len(documentIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		DocumentID uint
		Count      int
	}
	err := db.Model(&DocumentChunk{}).
		Select("document_id, COUNT(*) AS count").
		Where("document_id IN ?", documentIDs).
		Group("document_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.DocumentID] = row.Count
	}

	return counts, nil
}

// GetFirstChunks returns the text of chunk 0 for each document that has one.
func GetFirstChunks(db *gorm.DB, documentIDs []uint) (map[uint]string, error) {
	first := make(map[uint]string, len(documentIDs))
	if len(documentIDs) == 0 {
		return first, nil
	}

	var chunks []DocumentChunk
	err := db.Select("document_id", "chunk_text").
		Where("document_id IN ? AND chunk_index = 0", documentIDs).
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}

	for _, chunk := range chunks {
		first[chunk.DocumentID] = chunk.ChunkText
	}

	return first, nil
}

// SearchChunks returns the k chunks closest to query by cosine distance.
// Chunks of soft-deleted documents are filtered out by the join itself.
func SearchChunks(db *gorm.DB, query []float32, k int) ([]ScoredChunk, error) {
	vector := pgvector.NewVector(query)

	results := make([]ScoredChunk, 0, k)
	err := db.Raw(`
		SELECT dc.id AS chunk_id, dc.document_id, dc.chunk_text, dc.chunk_index,
		       1 - (dc.embedding <=> ?) AS similarity
		FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		WHERE d.deleted IS FALSE
		ORDER BY dc.embedding <=> ?, dc.document_id, dc.chunk_index
		LIMIT ?`, vector, vector, k).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	return results, nil
}
