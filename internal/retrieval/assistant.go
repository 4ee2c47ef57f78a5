package retrieval

import (
	"context"
	"fmt"

	"askdocs/models"

	"go.uber.org/zap"
)

// NoActiveDocumentsMessage answers every question while no document is active.
const NoActiveDocumentsMessage = "You have no active documents. Please upload or restore documents to chat."

// Chat history listing limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// TextGenerator completes a prompt. *Generator implements it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatResult is the answer to one user message.
type ChatResult struct {
	UserMessage      string   `json:"user_message"`
	AssistantMessage string   `json:"assistant_message"`
	Sources          []string `json:"sources"`
}

// Assistant answers questions from the active documents and keeps the chat
// history.
type Assistant struct {
	store     Store
	retriever *Retriever
	assembler *Assembler
	generator TextGenerator
	logger    *zap.SugaredLogger
}

func NewAssistant(store Store, retriever *Retriever, assembler *Assembler, generator TextGenerator, logger *zap.SugaredLogger) *Assistant {
	return &Assistant{
		store:     store,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		logger:    logger,
	}
}

// Chat answers message. With no active documents it returns
// NoActiveDocumentsMessage without calling the embedder or the generator and
// without recording history.
func (a *Assistant) Chat(ctx context.Context, message string) (*ChatResult, error) {
	active, err := a.store.ListDocuments(ctx, models.ActiveDocuments)
	if err != nil {
		return nil, fmt.Errorf("failed to list active documents: %w", err)
	}

	if len(active) == 0 {
		return &ChatResult{
			UserMessage:      message,
			AssistantMessage: NoActiveDocumentsMessage,
			Sources:          []string{},
		}, nil
	}

	chunks, err := a.retriever.GetSemanticChunks(ctx, message)
	if err != nil {
		return nil, err
	}

	assembly := a.assembler.Assemble(chunks, active, nil)
	if assembly.Fallback {
		ids := make([]uint, len(active))
		for i, document := range active {
			ids[i] = document.ID
		}
		firstChunks, err := a.store.FirstChunks(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load document previews: %w", err)
		}
		assembly = a.assembler.Assemble(chunks, active, firstChunks)
	}

	a.logger.Debugw("Assembled context",
		"active_documents", assembly.ActiveCount,
		"candidates", len(chunks),
		"fallback", assembly.Fallback,
		"sources", assembly.Sources,
	)

	prompt, err := BuildPrompt(len(active), assembly.Context, message)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	entry := &models.ChatHistory{
		UserMessage:      message,
		AssistantMessage: answer,
		Sources:          assembly.Sources,
	}
	if err := a.store.AppendChatHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save chat history: %w", err)
	}

	return &ChatResult{
		UserMessage:      message,
		AssistantMessage: answer,
		Sources:          assembly.Sources,
	}, nil
}

// History returns up to limit exchanges, newest first. Out-of-range limits
// fall back to DefaultHistoryLimit or are capped at MaxHistoryLimit.
func (a *Assistant) History(ctx context.Context, limit int) ([]models.ChatHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	return a.store.ListChatHistory(ctx, limit)
}

// ClearHistory deletes every recorded exchange.
func (a *Assistant) ClearHistory(ctx context.Context) error {
	return a.store.ClearChatHistory(ctx)
}
