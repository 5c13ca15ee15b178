package handlers

import (
	"context"
	"net/http"
	"time"

	"users-server/db"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db      db.Database
	timeout time.Duration
}

func NewHealthHandler(database db.Database) *HealthHandler {
	return &HealthHandler{
		db:      database,
		timeout: 2 * time.Second,
	}
}

// Health reports whether the pool can reach the database.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "DEGRADED",
			"database": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "OK",
		"database": "up",
	})
}
