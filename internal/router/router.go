package router // package router defines how HTTP routes are registered

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eladw/parkbot/internal/config"
	"github.com/eladw/parkbot/internal/handler"
	"github.com/eladw/parkbot/internal/middleware"
)

// RegisterRoutes wires the service's three routes: the root and health
// probes, and the Telegram webhook behind the rate limiter.  rdb may be
// nil, in which case the limiter is a pass-through.
func RegisterRoutes(e *echo.Echo, wh *handler.WebhookHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	e.POST("/webhook", wh.Handle, middleware.NewTokenBucket(rlCfg, rdb))
}
