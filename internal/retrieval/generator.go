package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// CapacityMessage is returned in place of an answer when every model is rate
// limited or unavailable.
const CapacityMessage = "I am currently at my free tier capacity. Please wait a few minutes before trying again."

// fallbackMarkers are substrings of backend errors that mean "try the next
// model": rate limiting, exhausted quota, or a model that does not exist.
var fallbackMarkers = []string{
	"429",
	"resource_exhausted",
	"resource exhausted",
	"rate limit",
	"quota",
	"404",
	"not_found",
	"model not found",
}

// ChatModelConfig selects and configures a generation backend.
type ChatModelConfig struct {
	// Provider is one of googleai, openai or ollama.
	Provider     string
	DefaultModel string
	APIKey       string
	ServerURL    string
	HTTPClient   *http.Client
}

// NewChatModel builds the langchaingo model named by cfg.Provider.
func NewChatModel(ctx context.Context, cfg ChatModelConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "googleai":
		return googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.DefaultModel),
		)
	case "openai":
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.DefaultModel)}
		if cfg.HTTPClient != nil {
			opts = append(opts, openai.WithHTTPClient(cfg.HTTPClient))
		}
		return openai.New(opts...)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.DefaultModel)}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, ollama.WithHTTPClient(cfg.HTTPClient))
		}
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// Generator completes prompts, falling back through a list of models.
type Generator struct {
	// Chat is the underlying model client.
	Chat    llms.Model
	models  []string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewGenerator creates a generator that tries models in order.
func NewGenerator(chat llms.Model, models []string, timeout time.Duration, logger *zap.SugaredLogger) (*Generator, error) {
	if len(models) == 0 {
		return nil, errors.New("at least one generation model is required")
	}

	return &Generator{
		Chat:    chat,
		models:  models,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Generate returns the first answer any model produces. Rate limiting and
// missing models move on to the next model; any other failure is returned
// wrapped in ErrGeneration. When every model has been skipped the result is
// CapacityMessage with a nil error.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	for _, model := range g.models {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrGeneration, err)
		}

		text, err := g.call(ctx, model, prompt)
		if err == nil {
			return text, nil
		}

		if errors.Is(err, ErrQuotaExceeded) {
			g.logger.Warnw("Model unavailable, trying next", "model", model, "error", err)
			continue
		}

		return "", fmt.Errorf("%w: model %s: %w", ErrGeneration, model, err)
	}

	g.logger.Warnw("All generation models exhausted", "models", g.models)
	return CapacityMessage, nil
}

func (g *Generator) call(ctx context.Context, model, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, g.Chat, prompt, llms.WithModel(model))
	if err != nil {
		if isFallbackError(err) {
			return "", fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		}
		return "", err
	}

	return text, nil
}

func isFallbackError(err error) bool {
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range fallbackMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
