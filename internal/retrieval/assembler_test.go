package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdocs/models"
)

func doc(id uint, name, content string) models.Document {
	return models.Document{Generic: models.Generic{ID: id}, Filename: name, Content: content}
}

func TestAssembleGroupsRelevantChunks(t *testing.T) {
	active := []models.Document{doc(1, "a.txt", ""), doc(2, "b.txt", "")}
	chunks := []models.ScoredChunk{
		{DocumentID: 2, ChunkIndex: 0, ChunkText: "b zero", Similarity: 0.9},
		{DocumentID: 1, ChunkIndex: 3, ChunkText: "a three", Similarity: 0.8},
		{DocumentID: 2, ChunkIndex: 1, ChunkText: "b one", Similarity: 0.7},
		{DocumentID: 1, ChunkIndex: 0, ChunkText: "a zero", Similarity: 0.001},
	}

	a := NewAssembler(DefaultSimilarityThreshold, DefaultContextTopN).Assemble(chunks, active, nil)

	assert.False(t, a.Fallback)
	assert.Equal(t, 2, a.ActiveCount)
	assert.Equal(t, []string{"b.txt", "a.txt"}, a.Sources)
	assert.True(t, strings.HasPrefix(a.Context, "You have exactly 2 active documents available.\n"))
	assert.Contains(t, a.Context, "From 'b.txt':\nb zero\n\nb one\n\n")
	assert.Contains(t, a.Context, "From 'a.txt':\na three\n\n")
	assert.NotContains(t, a.Context, "a zero")
	assert.Less(t, strings.Index(a.Context, "b.txt"), strings.Index(a.Context, "a.txt"))
}

func TestAssembleThresholdIsStrict(t *testing.T) {
	active := []models.Document{doc(1, "a.txt", "preview")}
	chunks := []models.ScoredChunk{{DocumentID: 1, ChunkText: "exactly at threshold", Similarity: 0.5}}

	a := NewAssembler(0.5, 10).Assemble(chunks, active, nil)
	assert.True(t, a.Fallback)
}

func TestAssembleCapsChunks(t *testing.T) {
	active := []models.Document{doc(1, "a.txt", "")}
	var chunks []models.ScoredChunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, models.ScoredChunk{DocumentID: 1, ChunkIndex: i, ChunkText: "chunk-" + string(rune('a'+i)), Similarity: 0.9})
	}

	a := NewAssembler(0, 2).Assemble(chunks, active, nil)
	assert.Contains(t, a.Context, "chunk-a")
	assert.Contains(t, a.Context, "chunk-b")
	assert.NotContains(t, a.Context, "chunk-c")
}

func TestAssembleIgnoresInactiveDocuments(t *testing.T) {
	active := []models.Document{doc(1, "a.txt", "alpha content")}
	chunks := []models.ScoredChunk{{DocumentID: 9, ChunkText: "from the trash", Similarity: 0.99}}

	a := NewAssembler(0, 10).Assemble(chunks, active, nil)
	assert.True(t, a.Fallback)
	assert.NotContains(t, a.Context, "from the trash")
	assert.Equal(t, []string{"a.txt"}, a.Sources)
}

func TestAssembleFallbackEnumeratesDocuments(t *testing.T) {
	active := []models.Document{
		doc(1, "a.txt", "stored content of a"),
		doc(2, "b.txt", ""),
		doc(3, "c.txt", strings.Repeat("é", 400)),
	}
	firstChunks := map[uint]string{1: "first chunk of a"}

	a := NewAssembler(DefaultSimilarityThreshold, DefaultContextTopN).Assemble(nil, active, firstChunks)

	require.True(t, a.Fallback)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, a.Sources)
	assert.Contains(t, a.Context, "You have exactly 3 active documents:\n1. a.txt\n2. b.txt\n3. c.txt\n")
	assert.Contains(t, a.Context, "Here is a preview of their content:\n")
	assert.Contains(t, a.Context, "File 'a.txt': first chunk of a...\n")
	assert.Contains(t, a.Context, "File 'b.txt': (no text could be extracted)\n")
	assert.Contains(t, a.Context, "File 'c.txt': "+strings.Repeat("é", DefaultPreviewLength)+"...\n")
}

func TestAssembleSingleDocumentWording(t *testing.T) {
	a := NewAssembler(0, 10).Assemble(nil, []models.Document{doc(1, "only.md", "hi")}, nil)
	assert.Contains(t, a.Context, "You have exactly 1 active document:\n")
}

func TestBuildPromptStatesActiveCount(t *testing.T) {
	prompt, err := BuildPrompt(3, "CTX-BODY", "What is in my files?")
	require.NoError(t, err)

	assert.Contains(t, prompt, "exactly 3 active documents")
	assert.Contains(t, prompt, "list ONLY the 3 active ones")
	assert.Contains(t, prompt, "CTX-BODY")
	assert.Contains(t, prompt, "User Question: What is in my files?")

	single, err := BuildPrompt(1, "", "q")
	require.NoError(t, err)
	assert.Contains(t, single, "exactly 1 active document.")
}
