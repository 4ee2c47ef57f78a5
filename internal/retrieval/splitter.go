package retrieval

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking parameters, measured in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in order: paragraphs, lines, words, then characters.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter splits text into overlapping chunks along natural boundaries.
type Splitter struct {
	chunkLength  int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// NewSplitter returns a new Splitter.
func NewSplitter(chunkLength, chunkOverlap int) (*Splitter, error) {
	if chunkLength <= 0 {
		return nil, fmt.Errorf("chunkLength must be greater than 0")
	}

	if chunkOverlap < 0 || chunkOverlap >= chunkLength {
		return nil, fmt.Errorf("chunkOverlap must be between 0 and chunkLength")
	}

	return &Splitter{
		chunkLength:  chunkLength,
		chunkOverlap: chunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkLength),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(separators),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
	}, nil
}

// SplitText splits text into chunks. Text without any non-space characters
// yields no chunks.
func (s *Splitter) SplitText(t string) ([]string, error) {
	if strings.TrimSpace(t) == "" {
		return []string{}, nil
	}

	chunks, err := s.splitter.SplitText(t)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) != "" {
			out = append(out, chunk)
		}
	}

	return out, nil
}
