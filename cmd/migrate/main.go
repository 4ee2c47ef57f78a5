// Command migrate creates or updates the database schema without starting
// the server.
package main

import (
	"askdocs/core"
	"askdocs/models"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Store != "postgres" {
		logger.Infow("Nothing to migrate", "store", cfg.Store)
		return
	}

	db, err := core.InitDB(cfg.Database, logger, true)
	if err != nil {
		logger.Fatalw("Failed to connect", "error", err)
	}

	if err := models.Migrate(db, cfg.EmbeddingDimensions); err != nil {
		logger.Fatalw("Failed to migrate", "error", err)
	}

	logger.Infow("Migrated database", "dimensions", cfg.EmbeddingDimensions)
}
