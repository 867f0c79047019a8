package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eventspark/eventspark-api/internal/repository"
	"github.com/eventspark/eventspark-api/internal/service"
	"github.com/eventspark/eventspark-api/internal/validate"
)

// TicketHandler serves ticket redemption and ticket reads.
type TicketHandler struct {
	Service *service.TicketService
	Tickets *repository.TicketRepo
}

func NewTicketHandler(svc *service.TicketService, tickets *repository.TicketRepo) *TicketHandler {
	return &TicketHandler{Service: svc, Tickets: tickets}
}

type validateTicketReq struct {
	TicketID uint64 `json:"ticket_id"`
	QRData   string `json:"qr_data"`
}

// Validate redeems a ticket at the gate.  The route sits behind
// OptionalAuth: when the scanner is logged in, its user id is recorded as
// used_by.  Responses: 200 redeemed, 404 unknown ticket, 400 payload
// mismatch, 410 already used / expired / not active.
func (h *TicketHandler) Validate(c echo.Context) error {
	var req validateTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	var errs validate.Errors
	if req.TicketID == 0 {
		errs.Add("ticket_id", "ticket_id is required", req.TicketID)
	}
	if req.QRData == "" {
		errs.Add("qr_data", "qr_data is required", nil)
	}
	if errs.Any() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": errs.Fields()})
	}

	var validatorID *uint64
	if uid, ok := currentUserID(c); ok {
		validatorID = &uid
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Service.Redeem(ctx, req.TicketID, req.QRData, validatorID)
	if err != nil {
		return redeemError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ticket validated", "ticket": res})
}

func redeemError(c echo.Context, err error) error {
	var gone *service.TicketGoneError
	switch {
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, service.ErrQRMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": service.ErrQRMismatch.Error()})
	case errors.As(err, &gone):
		body := echo.Map{"error": gone.Error(), "status": gone.Status}
		if gone.AlreadyUsed {
			body["used_at"] = gone.UsedAt
			if gone.UsedBy != nil {
				body["used_by"] = *gone.UsedBy
			}
		} else {
			body["valid_from"] = gone.ValidFrom
			body["valid_until"] = gone.ValidUntil
		}
		return c.JSON(http.StatusGone, body)
	default:
		c.Logger().Errorf("validate ticket: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate ticket failed"})
	}
}

// Get returns one ticket.  Only the ticket's owner or an admin may read
// it.
func (h *TicketHandler) Get(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTicketNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		c.Logger().Errorf("get ticket %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ticket failed"})
	}
	if t.UserID != uid && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, t)
}

// ListByUser returns all tickets of a user, newest first.  Users may only
// list their own tickets unless they are an admin.
func (h *TicketHandler) ListByUser(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if target != uid && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	tickets, err := h.Tickets.ListByUser(ctx, target)
	if err != nil {
		c.Logger().Errorf("list tickets for user %d: %v", target, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tickets failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}
