package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder maps text to a vector with exactly Dimensions() components.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// EmbedderConfig selects and configures an embedding backend.
type EmbedderConfig struct {
	// Provider is one of googleai, openai, ollama or hash.
	Provider   string
	Model      string
	Dimensions int
	Timeout    time.Duration
	APIKey     string
	ServerURL  string
	HTTPClient *http.Client
}

// NewEmbedder builds the embedder named by cfg.Provider.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (Embedder, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be greater than 0")
	}

	var client embeddings.EmbedderClient
	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	case "googleai":
		model := cfg.Model
		if model == "" {
			model = "text-embedding-004"
		}
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultEmbeddingModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create googleai client: %w", err)
		}
		client = llm
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithEmbeddingModel(model)}
		if cfg.HTTPClient != nil {
			opts = append(opts, openai.WithHTTPClient(cfg.HTTPClient))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		client = llm
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		opts := []ollama.Option{ollama.WithModel(model)}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, ollama.WithHTTPClient(cfg.HTTPClient))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = llm
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, err
	}

	return NewClientEmbedder(embedder, cfg.Dimensions, cfg.Timeout), nil
}

// ClientEmbedder adapts a langchaingo embedder. Every call is bounded by the
// configured timeout and every result is checked against the expected size.
type ClientEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
	timeout    time.Duration
}

func NewClientEmbedder(embedder embeddings.Embedder, dimensions int, timeout time.Duration) *ClientEmbedder {
	return &ClientEmbedder{
		embedder:   embedder,
		dimensions: dimensions,
		timeout:    timeout,
	}
}

func (e *ClientEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *ClientEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	return checkDimensions(vector, e.dimensions)
}

func checkDimensions(vector []float32, dimensions int) ([]float32, error) {
	if len(vector) != dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbedding, len(vector), dimensions)
	}

	for _, v := range vector {
		if v != 0 {
			return vector, nil
		}
	}

	return nil, fmt.Errorf("%w: backend returned a zero vector", ErrEmbedding)
}
