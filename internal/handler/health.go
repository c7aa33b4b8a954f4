package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports whether postgres and redis are reachable. Redis matters
// beyond caching here: it holds the cashier snapshot and the report queue.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		components := gin.H{}
		healthy := true

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			components["postgres"] = "down"
			healthy = false
		} else {
			components["postgres"] = "up"
		}

		if rdb.Ping(ctx).Err() != nil {
			components["redis"] = "down"
			healthy = false
		} else {
			components["redis"] = "up"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ok": healthy, "components": components})
	}
}
