// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/discount-platform/redemption-service/internal/config"
	"github.com/discount-platform/redemption-service/internal/handler"
	"github.com/discount-platform/redemption-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the prometheus metrics endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterTickets registers the ticket lifecycle under /v1, protected by
// JWT authentication, role enforcement, a per-request deadline and the
// redis-backed rate limiter.  Owner-facing routes require the USER role,
// scanner-facing routes the MERCHANT role; listing routes accept the
// respective role only.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, jwtSecret string, rdb *redis.Client, requestTimeout time.Duration) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	v1 := e.Group("/v1")
	v1.Use(middleware.RequestTimeout(requestTimeout))
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(limiter)

	owner := v1.Group("")
	owner.Use(middleware.RequireRole("USER"))
	owner.POST("/tickets", h.Issue)
	owner.POST("/tickets/:id/cancel", h.Cancel)
	owner.GET("/tickets", h.ListMine)

	merchant := v1.Group("")
	merchant.Use(middleware.RequireRole("MERCHANT"))
	merchant.POST("/tickets/consume", h.Consume)
	merchant.GET("/merchant/tickets", h.ListForMerchant)
}
