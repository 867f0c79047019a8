package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/repository"
	"github.com/eventspark/eventspark-api/internal/validate"
)

// EventHandler serves event creation and the public browse endpoints.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: events}
}

// ----- DTOs -----

type seatInput struct {
	Row    string `json:"row"`
	Number uint32 `json:"number"`
	Tier   string `json:"tier"`
}

type createEventReq struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Date        time.Time         `json:"date"`
	Venue       model.Venue       `json:"venue"`
	Category    string            `json:"category"`
	Status      string            `json:"status"` // draft | published; default published
	PriceTiers  []model.PriceTier `json:"price_tiers"`
	SeatMap     []seatInput       `json:"seat_map"`
}

type listEventsResp struct {
	Events []model.Event `json:"events"`
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// seatView is a seat as shown on the availability endpoint: the computed
// selectable flag plus the price resolved from the event's tiers.
type seatView struct {
	Row        string `json:"row"`
	Number     uint32 `json:"number"`
	Tier       string `json:"tier"`
	Available  bool   `json:"available"`
	PriceCents uint32 `json:"price_cents"`
}

type seatsResp struct {
	EventID    uint64            `json:"event_id"`
	Seats      []seatView        `json:"seats"`
	PriceTiers []model.PriceTier `json:"price_tiers"`
}

// Create validates and persists a new event with its price tiers and seat
// map.  All validation failures are collected and returned together as
// {field, message, value} entries rather than failing on the first.
func (h *EventHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	var errs validate.Errors
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		errs.Add("title", "title is required", req.Title)
	}
	if req.Date.IsZero() {
		errs.Add("date", "date is required", nil)
	} else if !req.Date.After(time.Now().UTC()) {
		errs.Add("date", "date must be in the future", req.Date)
	}
	if !model.ValidCategory(req.Category) {
		errs.Addf("category", req.Category, "category must be one of %s", strings.Join(model.Categories, ", "))
	}
	status := req.Status
	if status == "" {
		status = model.EventStatusPublished
	}
	if status != model.EventStatusDraft && status != model.EventStatusPublished {
		errs.Add("status", "status must be draft or published", req.Status)
	}
	if strings.TrimSpace(req.Venue.Name) == "" {
		errs.Add("venue.name", "venue name is required", req.Venue.Name)
	}
	if strings.TrimSpace(req.Venue.City) == "" {
		errs.Add("venue.city", "venue city is required", req.Venue.City)
	}

	if len(req.PriceTiers) == 0 {
		errs.Add("price_tiers", "at least one price tier is required", nil)
	}
	seenTiers := make(map[string]bool, len(req.PriceTiers))
	for i, t := range req.PriceTiers {
		field := "price_tiers[" + strconv.Itoa(i) + "]"
		if !model.ValidTier(t.Tier) {
			errs.Addf(field+".tier", t.Tier, "tier must be one of %s", strings.Join(model.Tiers, ", "))
			continue
		}
		if seenTiers[t.Tier] {
			errs.Add(field+".tier", "duplicate tier", t.Tier)
		}
		seenTiers[t.Tier] = true
		if t.PriceCents == 0 {
			errs.Add(field+".price_cents", "price must be greater than zero", t.PriceCents)
		}
	}

	if len(req.SeatMap) == 0 {
		errs.Add("seat_map", "seat map must not be empty", nil)
	}
	seenSeats := make(map[string]bool, len(req.SeatMap))
	seats := make([]model.Seat, 0, len(req.SeatMap))
	for i, s := range req.SeatMap {
		field := "seat_map[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(s.Row) == "" {
			errs.Add(field+".row", "row is required", s.Row)
		}
		if s.Number == 0 {
			errs.Add(field+".number", "number must be greater than zero", s.Number)
		}
		label := s.Row + strconv.FormatUint(uint64(s.Number), 10)
		if seenSeats[label] {
			errs.Add(field, "duplicate seat position", label)
		}
		seenSeats[label] = true
		if !model.ValidTier(s.Tier) {
			errs.Addf(field+".tier", s.Tier, "tier must be one of %s", strings.Join(model.Tiers, ", "))
		} else if len(req.PriceTiers) > 0 && !seenTiers[s.Tier] {
			errs.Addf(field+".tier", s.Tier, "seat %s references tier %q with no price", label, s.Tier)
		}
		seats = append(seats, model.Seat{Row: s.Row, Number: s.Number, Tier: s.Tier, IsAvailable: true})
	}

	if errs.Any() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": errs.Fields()})
	}

	ev := &model.Event{
		OrganizerID: uid,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date.UTC(),
		Venue:       req.Venue,
		Category:    req.Category,
		Status:      status,
		PriceTiers:  req.PriceTiers,
		SeatMap:     seats,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.Create(ctx, ev); err != nil {
		c.Logger().Errorf("create event: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, ev)
}

// List returns the public event listing: date/category filters, paged,
// without seat maps.  Limit is capped at 50.
func (h *EventHandler) List(c echo.Context) error {
	f := repository.EventFilter{Page: 1, Limit: 10}
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Page = n
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if f.Limit > 50 {
		f.Limit = 50
	}
	if v := c.QueryParam("category"); v != "" {
		f.Category = v
	}
	if v := c.QueryParam("date"); v != "" {
		day, err := parseDateFilter(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD or RFC3339"})
		}
		f.Date = &day
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	events, total, err := h.Events.List(ctx, f)
	if err != nil {
		c.Logger().Errorf("list events: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	return c.JSON(http.StatusOK, listEventsResp{Events: events, Total: total, Page: f.Page, Limit: f.Limit})
}

// parseDateFilter accepts a plain calendar day or a full RFC3339 instant
// and normalizes it to UTC; the listing filters to the containing UTC day
// either way.
func parseDateFilter(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Get returns one event with its price tiers and full seat map.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		c.Logger().Errorf("get event %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	return c.JSON(http.StatusOK, ev)
}

// Seats returns the seat map with the computed availability flag and the
// price each seat resolves to.
func (h *EventHandler) Seats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	seats, tiers, err := h.Events.ListSeats(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		c.Logger().Errorf("list seats for event %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seats failed"})
	}

	prices := make(map[string]uint32, len(tiers))
	for _, t := range tiers {
		prices[t.Tier] = t.PriceCents
	}
	views := make([]seatView, 0, len(seats))
	for _, s := range seats {
		views = append(views, seatView{
			Row:        s.Row,
			Number:     s.Number,
			Tier:       s.Tier,
			Available:  s.Selectable(),
			PriceCents: prices[s.Tier],
		})
	}
	return c.JSON(http.StatusOK, seatsResp{EventID: id, Seats: views, PriceTiers: tiers})
}
