package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports "connected", "error" or "disabled" per dependency. Only the
// ledger database is mandatory; a nil Redis client is reported as disabled.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	checks := []struct {
		name     string
		required bool
		status   func(context.Context) string
	}{
		{"db", true, func(ctx context.Context) string {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				return "error"
			}
			return "connected"
		}},
		{"redis", false, func(ctx context.Context) string {
			if rdb == nil {
				return "disabled"
			}
			if rdb.Ping(ctx).Err() != nil {
				return "error"
			}
			return "connected"
		}},
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{}
		status := http.StatusOK
		for _, chk := range checks {
			s := chk.status(ctx)
			body[chk.name] = s
			if s == "error" || (chk.required && s != "connected") {
				status = http.StatusServiceUnavailable
			}
		}
		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
