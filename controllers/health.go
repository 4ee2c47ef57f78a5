package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	Store  Pinger
	Logger *zap.SugaredLogger
}

func (h HealthController) Status(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.Logger.Warnw("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
