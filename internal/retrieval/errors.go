package retrieval

import "errors"

var (
	// ErrEmbedding means the embedding backend failed or returned a vector of
	// the wrong size. It aborts the upload or chat request that needed it.
	ErrEmbedding = errors.New("embedding failed")
	// ErrQuotaExceeded marks a generation failure caused by rate limiting or
	// an unavailable model. The generator moves on to the next model.
	ErrQuotaExceeded = errors.New("generation quota exceeded")
	// ErrGeneration is any other generation failure.
	ErrGeneration = errors.New("generation failed")
)
