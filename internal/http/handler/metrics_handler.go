package handler

import (
	"log"
	"net/http"

	"ActivityScheduler/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type MetricsHandler struct {
	rdb *redis.Client
}

func NewMetricsHandler(rdb *redis.Client) *MetricsHandler {
	return &MetricsHandler{rdb: rdb}
}

// GET /api/v3/metrics/materializer
func (h *MetricsHandler) GetMaterializerMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	last, err := h.rdb.HGetAll(ctx, cache.CounterKey("materializer", "last")).Result()
	if err != nil {
		log.Printf("failed to get materializer metrics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	ticks, err := h.rdb.Get(ctx, cache.CounterKey("materializer", "ticks")).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("failed to get materializer ticks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	generated, err := h.rdb.Get(ctx, cache.CounterKey("materializer", "generated")).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("failed to get materializer generated count: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticks":     ticks,
		"generated": generated,
		"last":      last, // time, participant_count, generated_count
	})
}
