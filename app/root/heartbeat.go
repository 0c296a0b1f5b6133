// Package root holds the liveness and token check endpoints
package root

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Heartbeat answers 200 while the process is up. With ?deep=1 it also pings
// Redis and answers 503 when it is unreachable.
func Heartbeat(c *gin.Context, rdb *redis.Client) {
	if c.Query("deep") == "" || rdb == nil {
		c.Status(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Status(http.StatusOK)
}
