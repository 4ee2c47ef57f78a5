package retrieval

import (
	"context"
	"fmt"

	"askdocs/models"
)

// DefaultTopK is how many chunks a search returns before the assembler applies
// its own threshold and cut-off.
const DefaultTopK = 20

// Store is the persistence the chat path depends on.
type Store interface {
	ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
	FirstChunks(ctx context.Context, documentIDs []uint) (map[uint]string, error)
	SearchChunks(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	AppendChatHistory(ctx context.Context, entry *models.ChatHistory) error
	ListChatHistory(ctx context.Context, limit int) ([]models.ChatHistory, error)
	ClearChatHistory(ctx context.Context) error
}

// Retriever finds the chunks most similar to a piece of text.
type Retriever struct {
	store    Store
	embedder Embedder
	topK     int
}

func NewRetriever(store Store, embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Retriever{
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// GetSemanticChunks embeds text and returns the closest chunks of documents
// that are not soft-deleted, most similar first.
func (r *Retriever) GetSemanticChunks(ctx context.Context, text string) ([]models.ScoredChunk, error) {
	query, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	chunks, err := r.store.SearchChunks(ctx, query, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	return chunks, nil
}
