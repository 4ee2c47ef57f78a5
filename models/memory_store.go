package models

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
)

// MemoryStore keeps everything in process memory and searches by brute-force
// cosine similarity. It follows the same rules as Store (cascading deletes,
// soft-deleted documents excluded from search) and backs local runs with
// STORE=memory as well as tests.
type MemoryStore struct {
	mu        sync.RWMutex
	nextDocID uint
	nextChunk uint
	nextChat  uint
	documents map[uint]*Document
	chunks    []DocumentChunk
	history   []ChatHistory
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[uint]*Document),
		now:       time.Now,
	}
}

func (m *MemoryStore) CreateDocument(_ context.Context, document *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextDocID++
	document.ID = m.nextDocID
	document.CreatedAt = m.now()
	document.UpdatedAt = document.CreatedAt

	stored := *document
	m.documents[stored.ID] = &stored

	return nil
}

func (m *MemoryStore) GetDocument(_ context.Context, id uint) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	document, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}

	copied := *document
	return &copied, nil
}

func (m *MemoryStore) ListDocuments(_ context.Context, filter DocumentFilter) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	documents := make([]Document, 0, len(m.documents))
	for _, document := range m.documents {
		if filter.Matches(document) {
			documents = append(documents, *document)
		}
	}

	sort.Slice(documents, func(i, j int) bool {
		if !documents[i].CreatedAt.Equal(documents[j].CreatedAt) {
			return documents[i].CreatedAt.After(documents[j].CreatedAt)
		}
		return documents[i].ID > documents[j].ID
	})

	return documents, nil
}

func (m *MemoryStore) UpdateDocument(_ context.Context, id uint, patch DocumentPatch) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	document, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}

	if !patch.IsEmpty() {
		patch.Apply(document)
		document.UpdatedAt = m.now()
	}

	copied := *document
	return &copied, nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[id]; !ok {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	delete(m.documents, id)

	kept := m.chunks[:0]
	for _, chunk := range m.chunks {
		if chunk.DocumentID != id {
			kept = append(kept, chunk)
		}
	}
	m.chunks = kept

	return nil
}

func (m *MemoryStore) CreateChunk(_ context.Context, chunk *DocumentChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[chunk.DocumentID]; !ok {
		return fmt.Errorf("document %d: %w", chunk.DocumentID, ErrNotFound)
	}
	for _, existing := range m.chunks {
		if existing.DocumentID == chunk.DocumentID && existing.ChunkIndex == chunk.ChunkIndex {
			return fmt.Errorf("chunk %d of document %d already exists", chunk.ChunkIndex, chunk.DocumentID)
		}
	}

	m.nextChunk++
	chunk.ID = m.nextChunk
	chunk.CreatedAt = m.now()

	stored := *chunk
	stored.Embedding = pgvector.NewVector(append([]float32(nil), chunk.Embedding.Slice()...))
	m.chunks = append(m.chunks, stored)

	return nil
}

func (m *MemoryStore) CountChunks(_ context.Context, documentIDs []uint) (map[uint]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := idSet(documentIDs)
	counts := make(map[uint]int, len(documentIDs))
	for _, chunk := range m.chunks {
		if _, ok := wanted[chunk.DocumentID]; ok {
			counts[chunk.DocumentID]++
		}
	}

	return counts, nil
}

func (m *MemoryStore) FirstChunks(_ context.Context, documentIDs []uint) (map[uint]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := idSet(documentIDs)
	first := make(map[uint]string, len(documentIDs))
	for _, chunk := range m.chunks {
		if _, ok := wanted[chunk.DocumentID]; ok && chunk.ChunkIndex == 0 {
			first[chunk.DocumentID] = chunk.ChunkText
		}
	}

	return first, nil
}

// Chunks returns copies of the stored chunks of one document in index order,
// deleted or not.
func (m *MemoryStore) Chunks(documentID uint) []DocumentChunk {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var chunks []DocumentChunk
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })

	return chunks
}

func (m *MemoryStore) SearchChunks(_ context.Context, query []float32, k int) ([]ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]ScoredChunk, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		document, ok := m.documents[chunk.DocumentID]
		if !ok || document.Deleted {
			continue
		}

		embedding := chunk.Embedding.Slice()
		if len(embedding) != len(query) {
			return nil, fmt.Errorf("chunk %d has %d dimensions, query has %d", chunk.ID, len(embedding), len(query))
		}

		results = append(results, ScoredChunk{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			ChunkText:  chunk.ChunkText,
			ChunkIndex: chunk.ChunkIndex,
			Similarity: CosineSimilarity(query, embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.ChunkIndex < b.ChunkIndex
	})

	if k >= 0 && len(results) > k {
		results = results[:k]
	}

	return results, nil
}

func (m *MemoryStore) AppendChatHistory(_ context.Context, entry *ChatHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextChat++
	entry.ID = m.nextChat
	entry.CreatedAt = m.now()
	if entry.Sources == nil {
		entry.Sources = []string{}
	}

	stored := *entry
	stored.Sources = append([]string{}, entry.Sources...)
	m.history = append(m.history, stored)

	return nil
}

func (m *MemoryStore) ListChatHistory(_ context.Context, limit int) ([]ChatHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]ChatHistory, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) == limit {
			break
		}
		entries = append(entries, m.history[i])
	}

	return entries, nil
}

func (m *MemoryStore) ClearChatHistory(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = nil

	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector has zero length.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
