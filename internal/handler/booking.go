package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/repository"
	"github.com/eventspark/eventspark-api/internal/service"
	"github.com/eventspark/eventspark-api/internal/validate"
)

// BookingHandler serves reservation creation and booking reads.
type BookingHandler struct {
	Reservations *service.ReservationService
	Bookings     *repository.BookingRepo
}

func NewBookingHandler(res *service.ReservationService, bookings *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Reservations: res, Bookings: bookings}
}

// ----- DTOs -----

type createBookingReq struct {
	EventID         uint64                  `json:"event_id"`
	Seats           []service.SeatSelection `json:"seats"`
	PaymentMethod   string                  `json:"payment_method"`
	SpecialRequests *string                 `json:"special_requests"`
}

type bookingResp struct {
	Booking *model.Booking `json:"booking"`
	Tickets []model.Ticket `json:"tickets"`
	Event   eventSummary   `json:"event"`
}

type eventSummary struct {
	ID             uint64 `json:"id"`
	Title          string `json:"title"`
	AvailableSeats uint32 `json:"available_seats"`
}

// Create reserves the requested seats, creates the booking and mints
// tickets.  Status codes follow the precondition ladder: 404 unknown
// event, 400 not published / malformed selection, 409 sold out or seat
// taken.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	// All input failures are collected and reported together.
	var errs validate.Errors
	if req.EventID == 0 {
		errs.Add("event_id", "event_id is required", req.EventID)
	}
	if len(req.Seats) == 0 {
		errs.Add("seats", "at least one seat is required", nil)
	}
	for i, s := range req.Seats {
		field := "seats[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(s.Row) == "" {
			errs.Add(field+".row", "row is required", s.Row)
		}
		if s.Number == 0 {
			errs.Add(field+".number", "number must be greater than zero", s.Number)
		}
	}
	if req.PaymentMethod != "" && !model.ValidPaymentMethod(req.PaymentMethod) {
		errs.Addf("payment_method", req.PaymentMethod,
			"payment method must be one of %s", strings.Join(model.PaymentMethods, ", "))
	}
	if errs.Any() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": errs.Fields()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Reservations.Reserve(ctx, uid, service.ReserveRequest{
		EventID:         req.EventID,
		Seats:           req.Seats,
		PaymentMethod:   req.PaymentMethod,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return bookingError(c, err)
	}

	return c.JSON(http.StatusCreated, bookingResp{
		Booking: res.Booking,
		Tickets: res.Tickets,
		Event: eventSummary{
			ID:             res.Event.ID,
			Title:          res.Event.Title,
			AvailableSeats: res.Event.AvailableSeats,
		},
	})
}

func bookingError(c echo.Context, err error) error {
	var seatErr *service.SeatError
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, service.ErrEventNotPublished):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": service.ErrEventNotPublished.Error()})
	case errors.Is(err, service.ErrSoldOut):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrSoldOut.Error()})
	case errors.As(err, &seatErr):
		status := http.StatusBadRequest
		if seatErr.Conflict() {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{
			"error": seatErr.Error(),
			"seat":  echo.Map{"row": seatErr.Row, "number": seatErr.Number},
		})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat was taken by a concurrent booking"})
	default:
		c.Logger().Errorf("create booking: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
}

// List returns the authenticated user's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	bookings, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		c.Logger().Errorf("list bookings for user %d: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Get returns one booking with its seat snapshots.  Other users' bookings
// read as not found.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.GetByIDForUser(ctx, id, uid)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		c.Logger().Errorf("get booking %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	return c.JSON(http.StatusOK, b)
}
