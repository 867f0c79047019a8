// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/eventspark/eventspark-api/internal/config"
	"github.com/eventspark/eventspark-api/internal/handler"
	"github.com/eventspark/eventspark-api/internal/middleware"
	"github.com/eventspark/eventspark-api/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Bookings *handler.BookingHandler
	Tickets  *handler.TicketHandler
}

// Register mounts all routes.  rdb may be nil, in which case rate limiting
// and response caching are disabled and every route still works.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	v1 := e.Group("/v1", limiter)

	// Session-less endpoints.
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// Public browse endpoints; cached responses are fine here because the
	// listing omits per-user data.
	v1.GET("/events", h.Events.List, cache)
	v1.GET("/events/:id", h.Events.Get, cache)
	v1.GET("/events/:id/seats", h.Events.Seats)

	// Ticket validation carries an optional identity so gate scanners can
	// operate with or without a staff login.
	v1.POST("/tickets/validate", h.Tickets.Validate, middleware.OptionalAuth(cfg.JWTSecret))

	// Everything below requires a valid access token.
	authed := v1.Group("", middleware.JWTAuth(cfg.JWTSecret))
	authed.GET("/me", h.Auth.Me)

	authed.POST("/events", h.Events.Create,
		middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin))

	authed.POST("/bookings", h.Bookings.Create)
	authed.GET("/bookings", h.Bookings.List)
	authed.GET("/bookings/:id", h.Bookings.Get)

	authed.GET("/tickets/:id", h.Tickets.Get)
	authed.GET("/tickets/user/:userId", h.Tickets.ListByUser)
}
