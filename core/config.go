package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds process-wide settings. It is loaded once at startup and passed
// down explicitly; nothing reads the environment after LoadConfig returns.
type Config struct {
	Environment string `validate:"required"`
	Port        string `validate:"required,numeric"`
	// UIDomain is the allowed CORS origin. Empty allows any origin.
	UIDomain string

	Store    string `validate:"oneof=postgres memory"`
	Database DatabaseConfig

	UploadDir           string `validate:"required"`
	MaxUploadBytes      int64  `validate:"gt=0"`
	ExtractStrict       bool
	AllowEmptyDocuments bool

	ChunkSize    int `validate:"gt=0"`
	ChunkOverlap int `validate:"gte=0,ltfield=ChunkSize"`

	EmbeddingProvider    string `validate:"oneof=googleai openai ollama hash"`
	EmbeddingModel       string
	EmbeddingDimensions  int           `validate:"gt=0,lte=16000"`
	EmbeddingConcurrency int           `validate:"gt=0"`
	EmbeddingTimeout     time.Duration `validate:"gt=0"`

	GenerationProvider string        `validate:"oneof=googleai openai ollama"`
	GenerationModels   []string      `validate:"min=1,dive,required"`
	GenerationTimeout  time.Duration `validate:"gt=0"`

	GeminiAPIKey string
	OpenAIAPIKey string
	OllamaURL    string `validate:"omitempty,url"`
	HTTPRetryMax int    `validate:"gte=0"`

	SearchTopK          int     `validate:"gte=10"`
	ContextTopN         int     `validate:"gt=0,ltefield=SearchTopK"`
	SimilarityThreshold float64 `validate:"gte=-1,lte=1"`
}

// DatabaseConfig describes the postgres connection.
type DatabaseConfig struct {
	Host     string `validate:"required_if=Enabled true"`
	Port     string `validate:"required_if=Enabled true"`
	User     string
	Password string
	Name     string `validate:"required_if=Enabled true"`
	SSLMode  string
	Enabled  bool
}

// DSN returns the connection string in the key=value form gorm's postgres
// driver accepts.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads the configuration from environment variables. Call
// godotenv.Load before it to pick up a local .env file.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}

	cfg := &Config{
		Environment: env.String("ENVIRONMENT", "production"),
		Port:        env.String("PORT", "8080"),
		UIDomain:    env.String("UI_DOMAIN", ""),
		Store:       env.String("STORE", "postgres"),
		Database: DatabaseConfig{
			Host:     env.String("DB_HOST", "localhost"),
			Port:     env.String("DB_PORT", "5432"),
			User:     env.String("DB_USER", "postgres"),
			Password: env.String("DB_PASSWORD", ""),
			Name:     env.String("DB_NAME", "askdocs"),
			SSLMode:  env.String("DB_SSLMODE", "disable"),
		},

		UploadDir:           env.String("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes:      env.Int64("MAX_UPLOAD_BYTES", 32<<20),
		ExtractStrict:       env.Bool("EXTRACT_STRICT", true),
		AllowEmptyDocuments: env.Bool("ALLOW_EMPTY_DOCUMENTS", true),

		ChunkSize:    env.Int("CHUNK_SIZE", 1000),
		ChunkOverlap: env.Int("CHUNK_OVERLAP", 200),

		EmbeddingProvider:    env.String("EMBEDDING_PROVIDER", "googleai"),
		EmbeddingModel:       env.String("EMBEDDING_MODEL", ""),
		EmbeddingDimensions:  env.Int("EMBEDDING_DIMENSIONS", 768),
		EmbeddingConcurrency: env.Int("EMBEDDING_CONCURRENCY", 4),
		EmbeddingTimeout:     env.Duration("EMBEDDING_TIMEOUT", 30*time.Second),

		GenerationProvider: env.String("GENERATION_PROVIDER", "googleai"),
		GenerationModels:   env.List("GENERATION_MODELS", []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}),
		GenerationTimeout:  env.Duration("GENERATION_TIMEOUT", 60*time.Second),

		GeminiAPIKey: env.String("GEMINI_API_KEY", ""),
		OpenAIAPIKey: env.String("OPENAI_API_KEY", ""),
		OllamaURL:    env.String("OLLAMA_URL", ""),
		HTTPRetryMax: env.Int("HTTP_RETRY_MAX", 1),

		SearchTopK:          env.Int("SEARCH_TOP_K", 20),
		ContextTopN:         env.Int("CONTEXT_TOP_N", 10),
		SimilarityThreshold: env.Float("SIMILARITY_THRESHOLD", 0.005),
	}
	cfg.Database.Enabled = cfg.Store == "postgres"

	if len(env.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(env.errs, "; "))
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// envReader parses typed values and collects every malformed variable so the
// operator sees all of them at once.
type envReader struct {
	getenv func(string) string
	errs   []string
}

func (e *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(e.getenv(key))
	return v, v != ""
}

func (e *envReader) String(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *envReader) Int(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (e *envReader) Int64(key string, def int64) int64 {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (e *envReader) Float(key string, def float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (e *envReader) Bool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

// List splits a comma-separated value, dropping blank entries.
func (e *envReader) List(key string, def []string) []string {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
