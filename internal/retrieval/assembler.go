package retrieval

import (
	"fmt"
	"strings"

	"askdocs/models"
)

// Defaults for context assembly.
const (
	DefaultSimilarityThreshold = 0.005
	DefaultContextTopN         = 10
	DefaultPreviewLength       = 300
)

// Assembly is the context handed to the generator along with the filenames it
// was built from.
type Assembly struct {
	Context string
	// Sources lists each cited filename once, in the order first cited.
	Sources []string
	// Fallback is set when no chunk was relevant enough and the context lists
	// the active documents instead.
	Fallback    bool
	ActiveCount int
}

// Assembler turns search hits into prompt context.
type Assembler struct {
	threshold     float64
	topN          int
	previewLength int
}

func NewAssembler(threshold float64, topN int) *Assembler {
	if topN <= 0 {
		topN = DefaultContextTopN
	}

	return &Assembler{
		threshold:     threshold,
		topN:          topN,
		previewLength: DefaultPreviewLength,
	}
}

// Assemble builds context from ranked chunks. Chunks scoring at or below the
// threshold, or belonging to a document that is not in active, are dropped.
// If nothing survives, the context enumerates every active document with a
// preview of its first chunk (firstChunks, keyed by document ID) or of its
// stored content.
func (a *Assembler) Assemble(chunks []models.ScoredChunk, active []models.Document, firstChunks map[uint]string) Assembly {
	byID := make(map[uint]*models.Document, len(active))
	for i := range active {
		byID[active[i].ID] = &active[i]
	}

	var order []uint
	grouped := make(map[uint][]string)
	used := 0
	for _, chunk := range chunks {
		if used == a.topN {
			break
		}
		if chunk.Similarity <= a.threshold {
			continue
		}
		if _, ok := byID[chunk.DocumentID]; !ok {
			continue
		}

		if _, seen := grouped[chunk.DocumentID]; !seen {
			order = append(order, chunk.DocumentID)
		}
		grouped[chunk.DocumentID] = append(grouped[chunk.DocumentID], chunk.ChunkText)
		used++
	}

	if used == 0 {
		return a.enumerate(active, firstChunks)
	}

	sources := newSourceList()
	var b strings.Builder
	fmt.Fprintf(&b, "You have exactly %d active %s available.\n", len(active), plural(len(active), "document", "documents"))
	b.WriteString("Context from your active documents:\n\n")
	for _, id := range order {
		document := byID[id]
		fmt.Fprintf(&b, "From '%s':\n", document.Filename)
		for _, text := range grouped[id] {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
		sources.add(document.Filename)
	}

	return Assembly{
		Context:     b.String(),
		Sources:     sources.list,
		ActiveCount: len(active),
	}
}

// enumerate lists the active documents so questions about the collection
// itself can still be answered.
func (a *Assembler) enumerate(active []models.Document, firstChunks map[uint]string) Assembly {
	sources := newSourceList()
	var b strings.Builder

	fmt.Fprintf(&b, "You have exactly %d active %s:\n", len(active), plural(len(active), "document", "documents"))
	for i, document := range active {
		fmt.Fprintf(&b, "%d. %s\n", i+1, document.Filename)
	}

	b.WriteString("\nHere is a preview of their content:\n")
	for _, document := range active {
		preview, ok := firstChunks[document.ID]
		if !ok {
			preview = document.Content
		}
		preview = truncate(strings.TrimSpace(preview), a.previewLength)
		if preview == "" {
			fmt.Fprintf(&b, "File '%s': (no text could be extracted)\n", document.Filename)
		} else {
			fmt.Fprintf(&b, "File '%s': %s...\n", document.Filename, preview)
		}
		sources.add(document.Filename)
	}

	return Assembly{
		Context:     b.String(),
		Sources:     sources.list,
		Fallback:    true,
		ActiveCount: len(active),
	}
}

// sourceList keeps distinct filenames in insertion order.
type sourceList struct {
	seen map[string]struct{}
	list []string
}

func newSourceList() *sourceList {
	return &sourceList{seen: make(map[string]struct{}), list: []string{}}
}

func (s *sourceList) add(name string) {
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.list = append(s.list, name)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
