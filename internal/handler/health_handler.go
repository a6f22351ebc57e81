package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"import-wizard-api/internal/database"
)

// HealthHandler reports process and dependency health
type HealthHandler struct {
	redis *redis.Client
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{redis: redisClient}
}

// Health handles GET /health: liveness plus dependency status
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "down"
	if database.IsConnected() {
		dbStatus = "up"
	}

	redisStatus := "down"
	if h.redis != nil && h.redis.Ping(ctx).Err() == nil {
		redisStatus = "up"
	}

	// 세션 저장소(Redis)가 없으면 위저드는 동작하지 못한다
	status := http.StatusOK
	overall := "ok"
	if redisStatus == "down" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"deps": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}

// Ready handles GET /ready: readiness for traffic
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.redis == nil || h.redis.Ping(ctx).Err() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
