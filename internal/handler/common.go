// Package handler contains the HTTP handlers.  Handlers bind and validate
// input, call repositories or services, and translate typed errors into
// status codes; they never touch SQL directly.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventspark/eventspark-api/internal/middleware"
	"github.com/eventspark/eventspark-api/internal/model"
)

// dbTimeout bounds every handler-initiated database call.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentUserID returns the authenticated user's id from the context.
// Routes behind JWTAuth always have it; behind OptionalAuth ok may be
// false.
func currentUserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get(middleware.ContextUserID).(uint64)
	return uid, ok
}

func currentRole(c echo.Context) string {
	role, _ := c.Get(middleware.ContextRole).(string)
	return role
}

func isAdmin(c echo.Context) bool {
	return currentRole(c) == model.RoleAdmin
}
