package controllers

import (
	"strconv"
	"strings"

	"askdocs/internal/retrieval"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatInput is a question from the user.
type ChatInput struct {
	Message string `json:"message" binding:"required"`
}

type ChatController struct {
	Assistant *retrieval.Assistant
	Logger    *zap.SugaredLogger
}

func (cc ChatController) PostChat(c *gin.Context) {
	input := ChatInput{}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondBadRequestErr(c, []error{err})
		return
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		RespondBadRequestErr(c, []error{ErrEmptyMessage})
		return
	}

	result, err := cc.Assistant.Chat(c.Request.Context(), message)
	if err != nil {
		cc.Logger.Errorw("Error answering chat message", "error", err)
		RespondInternalErr(c)
		return
	}

	RespondOK(c, result)
}

func (cc ChatController) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondBadRequestErr(c, []error{ErrInvalidLimit})
			return
		}
		limit = n
	}

	history, err := cc.Assistant.History(c.Request.Context(), limit)
	if err != nil {
		cc.Logger.Errorw("Error getting chat history", "error", err)
		RespondInternalErr(c)
		return
	}

	RespondOK(c, history)
}

func (cc ChatController) ClearHistory(c *gin.Context) {
	if err := cc.Assistant.ClearHistory(c.Request.Context()); err != nil {
		cc.Logger.Errorw("Error clearing chat history", "error", err)
		RespondInternalErr(c)
		return
	}

	RespondOK(c, gin.H{"message": "Chat history cleared successfully"})
}
