package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic local embedder. Each lowercased word is
// hashed into one of the vector's buckets with a hash-derived sign, and the
// result is L2-normalized, so texts sharing vocabulary point in similar
// directions. It needs no network access, which makes it the embedder for
// offline runs and tests.
type HashEmbedder struct {
	dimensions int
}

func NewHashEmbedder(dimensions int) *HashEmbedder {
	return &HashEmbedder{dimensions: dimensions}
}

func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(tokens) == 0 {
		// Punctuation-only text still gets a direction of its own.
		for _, r := range strings.TrimSpace(text) {
			tokens = append(tokens, string(r))
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: nothing to embed", ErrEmbedding)
	}

	vector := make([]float64, e.dimensions)
	for _, token := range tokens {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		bucket := sum % uint64(e.dimensions)
		if sum>>63 == 1 {
			vector[bucket]--
		} else {
			vector[bucket]++
		}
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dimensions)
	if norm == 0 {
		// Every token cancelled out; fall back to the unsigned counts.
		for _, token := range tokens {
			h := fnv.New64a()
			h.Write([]byte(token))
			out[h.Sum64()%uint64(e.dimensions)]++
		}
		return normalize(out), nil
	}

	for i, v := range vector {
		out[i] = float32(v / norm)
	}

	return out, nil
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
