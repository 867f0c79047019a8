package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspark/eventspark-api/internal/utils"
)

const testSecret = "test-secret"

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c, reached
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 42, "organizer", 15)
	require.NoError(t, err)

	rec, c, reached := runMiddleware(t, JWTAuth(testSecret), "Bearer "+access.Token)
	require.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get(ContextUserID))
	assert.Equal(t, "organizer", c.Get(ContextRole))
}

func TestJWTAuthRejects(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _, reached := runMiddleware(t, JWTAuth(testSecret), tc.header)
			assert.False(t, reached)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	access, err := utils.NewAccessToken("other-secret", 42, "customer", 15)
	require.NoError(t, err)

	rec, _, reached := runMiddleware(t, JWTAuth(testSecret), "Bearer "+access.Token)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthPassesThrough(t *testing.T) {
	// Anonymous request reaches the handler without identity.
	_, c, reached := runMiddleware(t, OptionalAuth(testSecret), "")
	assert.True(t, reached)
	assert.Nil(t, c.Get(ContextUserID))

	// Invalid token is ignored, not rejected.
	_, c, reached = runMiddleware(t, OptionalAuth(testSecret), "Bearer junk")
	assert.True(t, reached)
	assert.Nil(t, c.Get(ContextUserID))

	// Valid token attaches the identity.
	access, err := utils.NewAccessToken(testSecret, 7, "admin", 15)
	require.NoError(t, err)
	_, c, reached = runMiddleware(t, OptionalAuth(testSecret), "Bearer "+access.Token)
	assert.True(t, reached)
	assert.Equal(t, uint64(7), c.Get(ContextUserID))
	assert.Equal(t, "admin", c.Get(ContextRole))
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role interface{}, allowed ...string) (int, bool) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(ContextRole, role)
		}
		reached := false
		h := RequireRole(allowed...)(func(c echo.Context) error {
			reached = true
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, h(c))
		return rec.Code, reached
	}

	code, reached := run("organizer", "organizer", "admin")
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, code)

	code, reached = run("customer", "organizer", "admin")
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, code)

	code, reached = run(nil, "organizer")
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, code)
}
