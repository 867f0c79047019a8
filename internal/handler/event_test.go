package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspark/eventspark-api/internal/middleware"
)

// postJSON runs a handler against a synthetic request carrying an
// authenticated organizer identity.
func postJSON(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, uint64(1))
	c.Set(middleware.ContextRole, "organizer")
	require.NoError(t, h(c))
	return rec
}

type validationBody struct {
	Error   string `json:"error"`
	Details []struct {
		Field   string      `json:"field"`
		Message string      `json:"message"`
		Value   interface{} `json:"value"`
	} `json:"details"`
}

func fieldsOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body validationBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	out := make(map[string]string, len(body.Details))
	for _, d := range body.Details {
		out[d.Field] = d.Message
	}
	return out
}

func TestCreateEventCollectsAllValidationErrors(t *testing.T) {
	// Validation failures never reach the repository, so nil is fine here.
	h := NewEventHandler(nil)

	rec := postJSON(t, h.Create, `{
        "title": "  ",
        "category": "Rave",
        "venue": {"name": "", "city": ""},
        "price_tiers": [],
        "seat_map": []
    }`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := fieldsOf(t, rec)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "date")
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "venue.name")
	assert.Contains(t, fields, "venue.city")
	assert.Contains(t, fields, "price_tiers")
	assert.Contains(t, fields, "seat_map")
}

func TestCreateEventRejectsPastDate(t *testing.T) {
	h := NewEventHandler(nil)

	rec := postJSON(t, h.Create, `{
        "title": "Retro Night",
        "date": "2001-01-01T20:00:00Z",
        "category": "Concert",
        "venue": {"name": "Hall", "city": "Town", "capacity": 10},
        "price_tiers": [{"tier": "General", "price_cents": 1000}],
        "seat_map": [{"row": "A", "number": 1, "tier": "General"}]
    }`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := fieldsOf(t, rec)
	assert.Equal(t, "date must be in the future", fields["date"])
}

func TestCreateEventRejectsUncoveredSeatTier(t *testing.T) {
	h := NewEventHandler(nil)

	// VIP seat but only a General price tier.
	rec := postJSON(t, h.Create, `{
        "title": "Gala",
        "date": "2099-01-01T20:00:00Z",
        "category": "Theater",
        "venue": {"name": "Hall", "city": "Town", "capacity": 10},
        "price_tiers": [{"tier": "General", "price_cents": 1000}],
        "seat_map": [
            {"row": "A", "number": 1, "tier": "General"},
            {"row": "A", "number": 2, "tier": "VIP"}
        ]
    }`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := fieldsOf(t, rec)
	assert.Contains(t, fields["seat_map[1].tier"], "no price")
}

func TestParseDateFilter(t *testing.T) {
	day, err := parseDateFilter("2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, 2026, day.Year())
	assert.Equal(t, time.September, day.Month())
	assert.Equal(t, 1, day.Day())

	// RFC3339 instants are accepted and normalized to UTC.
	instant, err := parseDateFilter("2026-09-01T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, instant.Location())
	assert.Equal(t, 21, instant.Hour())
	assert.Equal(t, 1, instant.Day())

	_, err = parseDateFilter("September 1st")
	assert.Error(t, err)
}

func TestCreateEventRejectsDuplicates(t *testing.T) {
	h := NewEventHandler(nil)

	rec := postJSON(t, h.Create, `{
        "title": "Doubles",
        "date": "2099-01-01T20:00:00Z",
        "category": "Comedy",
        "venue": {"name": "Hall", "city": "Town", "capacity": 10},
        "price_tiers": [
            {"tier": "General", "price_cents": 1000},
            {"tier": "General", "price_cents": 2000}
        ],
        "seat_map": [
            {"row": "A", "number": 1, "tier": "General"},
            {"row": "A", "number": 1, "tier": "General"}
        ]
    }`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := fieldsOf(t, rec)
	assert.Equal(t, "duplicate tier", fields["price_tiers[1].tier"])
	assert.Equal(t, "duplicate seat position", fields["seat_map[1]"])
}
