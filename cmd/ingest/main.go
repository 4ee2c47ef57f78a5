// Command ingest uploads local files the same way POST /api/upload does.
//
//	ingest notes.pdf report.docx README.md
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"askdocs/core"
	"askdocs/internal/app"
	"askdocs/internal/documents"

	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type ingester struct {
	documents *documents.Manager
	logger    *zap.SugaredLogger
}

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ingest <file>...")
		os.Exit(2)
	}

	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	store, err := app.OpenStore(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to open store", "error", err)
	}

	embedder, err := app.NewEmbedder(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to create embedder", "error", err)
	}

	manager, err := app.NewDocuments(cfg, store, embedder, logger)
	if err != nil {
		logger.Fatalw("Failed to create document manager", "error", err)
	}

	in := ingester{documents: manager, logger: logger}
	if failed := in.run(ctx, os.Args[1:]); failed > 0 {
		logger.Errorw("Some files failed", "failed", failed, "total", len(os.Args)-1)
		os.Exit(1)
	}
}

// run ingests every path and returns how many failed.
func (in ingester) run(ctx context.Context, paths []string) int {
	failed := 0
	for i, path := range paths {
		in.logger.Infof("Ingesting file %v of %v: %v", i+1, len(paths), path)

		summary, err := in.ingest(ctx, path)
		if err != nil {
			in.logger.Errorw("Failed to ingest", "path", path, "error", err)
			failed++
			continue
		}

		in.logger.Infow("Ingested", "path", path, "document_id", summary.ID, "chunks", summary.ChunkCount)
	}

	return failed
}

func (in ingester) ingest(ctx context.Context, path string) (*documents.Summary, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return in.documents.Upload(ctx, documents.UploadInput{
		Filename:  filepath.Base(path),
		MediaType: mediaType(path, mtype.String()),
		Reader:    f,
	})
}

// mediaType prefers text/markdown for .md files, which sniff as plain text.
func mediaType(path, detected string) string {
	switch filepath.Ext(path) {
	case ".md", ".markdown":
		return "text/markdown"
	}
	return detected
}
