// Package app wires the configured store, models and services together for
// the binaries under cmd/.
package app

import (
	"context"
	"fmt"

	"askdocs/core"
	"askdocs/internal/documents"
	"askdocs/internal/extract"
	"askdocs/internal/retrieval"
	"askdocs/models"

	"go.uber.org/zap"
)

// Store is everything the services need from persistence.
type Store interface {
	documents.Store
	retrieval.Store
	Ping(ctx context.Context) error
}

type App struct {
	Config    *core.Config
	Logger    *zap.SugaredLogger
	Store     Store
	Documents *documents.Manager
	Assistant *retrieval.Assistant
}

// OpenStore connects to the store named by cfg.Store and migrates it.
func OpenStore(cfg *core.Config, logger *zap.SugaredLogger) (Store, error) {
	if cfg.Store == "memory" {
		logger.Warn("Using in-memory store, data is lost on exit")
		return models.NewMemoryStore(), nil
	}

	db, err := core.InitDB(cfg.Database, logger, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}

	if err := models.Migrate(db, cfg.EmbeddingDimensions); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return models.NewStore(db), nil
}

// NewEmbedder builds the configured embedding backend.
func NewEmbedder(ctx context.Context, cfg *core.Config, logger *zap.SugaredLogger) (retrieval.Embedder, error) {
	return retrieval.NewEmbedder(ctx, retrieval.EmbedderConfig{
		Provider:   cfg.EmbeddingProvider,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.EmbeddingTimeout,
		APIKey:     providerKey(cfg, cfg.EmbeddingProvider),
		ServerURL:  cfg.OllamaURL,
		HTTPClient: core.NewHTTPClient(cfg.HTTPRetryMax, logger),
	})
}

// NewDocuments builds the document manager on top of store.
func NewDocuments(cfg *core.Config, store documents.Store, embedder retrieval.Embedder, logger *zap.SugaredLogger) (*documents.Manager, error) {
	splitter, err := retrieval.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	return documents.NewManager(store, documents.Pipeline{
		Extractor:   extract.NewExtractor(cfg.ExtractStrict, logger.Named("extract")),
		Splitter:    splitter,
		Embedder:    embedder,
		UploadDir:   cfg.UploadDir,
		Concurrency: cfg.EmbeddingConcurrency,
		AllowEmpty:  cfg.AllowEmptyDocuments,
	}, logger.Named("documents")), nil
}

// NewAssistant builds the chat service on top of store.
func NewAssistant(ctx context.Context, cfg *core.Config, store retrieval.Store, embedder retrieval.Embedder, logger *zap.SugaredLogger) (*retrieval.Assistant, error) {
	chat, err := retrieval.NewChatModel(ctx, retrieval.ChatModelConfig{
		Provider:     cfg.GenerationProvider,
		DefaultModel: cfg.GenerationModels[0],
		APIKey:       providerKey(cfg, cfg.GenerationProvider),
		ServerURL:    cfg.OllamaURL,
		HTTPClient:   core.NewHTTPClient(cfg.HTTPRetryMax, logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	generator, err := retrieval.NewGenerator(chat, cfg.GenerationModels, cfg.GenerationTimeout, logger.Named("generator"))
	if err != nil {
		return nil, err
	}

	return retrieval.NewAssistant(
		store,
		retrieval.NewRetriever(store, embedder, cfg.SearchTopK),
		retrieval.NewAssembler(cfg.SimilarityThreshold, cfg.ContextTopN),
		generator,
		logger.Named("assistant"),
	), nil
}

// New builds the complete application.
func New(ctx context.Context, cfg *core.Config, logger *zap.SugaredLogger) (*App, error) {
	store, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	manager, err := NewDocuments(cfg, store, embedder, logger)
	if err != nil {
		return nil, err
	}

	assistant, err := NewAssistant(ctx, cfg, store, embedder, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Documents: manager,
		Assistant: assistant,
	}, nil
}

func providerKey(cfg *core.Config, provider string) string {
	switch provider {
	case "googleai":
		return cfg.GeminiAPIKey
	case "openai":
		return cfg.OpenAIAPIKey
	default:
		return ""
	}
}
