// Package service implements the booking core: seat reservation with
// atomic ticket issuance, and ticket redemption.  Handlers stay thin and
// translate the typed errors returned here into HTTP responses.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/monitoring"
	"github.com/eventspark/eventspark-api/internal/queue"
	"github.com/eventspark/eventspark-api/internal/repository"
)

// SeatSelection identifies one requested seat by position.
type SeatSelection struct {
	Row    string `json:"row"`
	Number uint32 `json:"number"`
}

// ReserveRequest carries the validated input of a reservation.
type ReserveRequest struct {
	EventID         uint64
	Seats           []SeatSelection
	PaymentMethod   string
	SpecialRequests *string
}

// ReservationResult is returned on a successful reservation: the booking,
// one ticket per seat in booking order, and the event summary with its
// post-commit availability.
type ReservationResult struct {
	Booking *model.Booking
	Tickets []model.Ticket
	Event   *model.Event
}

// ReservationService runs the check-then-commit reservation sequence.
// All state shared with concurrent requests lives in MySQL; the per-event
// row lock taken by GetForUpdateTx serializes the whole validate+commit
// span, so two requests touching overlapping seats of the same event can
// never both succeed.
type ReservationService struct {
	Events   *repository.EventRepo
	Bookings *repository.BookingRepo
	Tickets  *repository.TicketRepo
	Queue    *queue.Publisher // optional; nil disables event publishing
}

// NewReservationService constructs a ReservationService.  The repositories
// must be non-nil; the publisher may be nil.
func NewReservationService(events *repository.EventRepo, bookings *repository.BookingRepo, tickets *repository.TicketRepo, pub *queue.Publisher) *ReservationService {
	if events == nil || bookings == nil || tickets == nil {
		panic("nil repository passed to NewReservationService")
	}
	return &ReservationService{Events: events, Bookings: bookings, Tickets: tickets, Queue: pub}
}

// Reserve validates a seat selection against the event's seat map and
// price tiers, and on success books the seats, creates the booking with
// price snapshots, and mints one ticket per seat — all in one transaction.
// The commit is all-or-nothing: any per-seat failure, including a ticket
// minting failure, rolls the entire reservation back.
//
// Failure modes, in check order: repository.ErrEventNotFound,
// ErrEventNotPublished, ErrSoldOut, then per-seat *SeatError naming the
// offending seat.  repository.ErrConflict surfaces when a concurrent
// writer invalidated a seat between validation and commit, which the event
// row lock makes unreachable in practice but the seat-level guard still
// checks.
func (s *ReservationService) Reserve(ctx context.Context, userID uint64, req ReserveRequest) (*ReservationResult, error) {
	start := time.Now()
	res, err := s.reserve(ctx, userID, req)
	monitoring.ObserveReservation(time.Since(start), reservationOutcome(err))
	if err != nil {
		return nil, err
	}

	if s.Queue != nil {
		ev := queue.BookingCreatedEvent{
			BookingID:        res.Booking.ID,
			BookingReference: res.Booking.BookingReference,
			UserID:           res.Booking.UserID,
			EventID:          res.Event.ID,
			EventTitle:       res.Event.Title,
			TotalAmountCents: res.Booking.TotalAmountCents,
			CreatedAt:        res.Booking.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, seat := range res.Booking.Seats {
			ev.SeatLabels = append(ev.SeatLabels, model.Seat{Row: seat.Row, Number: seat.Number}.Label())
		}
		// Publishing is best effort; the reservation is already durable.
		if err := s.Queue.PublishBookingCreated(ctx, ev); err != nil {
			log.Printf("reserve: publish booking.created failed: %v", err)
		}
	}
	return res, nil
}

// reservationOutcome maps a reserve error to a metric label.
func reservationOutcome(err error) string {
	var seatErr *SeatError
	switch {
	case err == nil:
		return monitoring.OutcomeSuccess
	case errors.Is(err, ErrSoldOut), errors.Is(err, repository.ErrConflict):
		return monitoring.OutcomeConflict
	case errors.As(err, &seatErr):
		if seatErr.Conflict() {
			return monitoring.OutcomeConflict
		}
		return monitoring.OutcomeRejected
	case errors.Is(err, repository.ErrEventNotFound), errors.Is(err, ErrEventNotPublished):
		return monitoring.OutcomeRejected
	default:
		return monitoring.OutcomeError
	}
}

func (s *ReservationService) reserve(ctx context.Context, userID uint64, req ReserveRequest) (*ReservationResult, error) {
	tx, err := s.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row for the duration of validate+commit.
	ev, err := s.Events.GetForUpdateTx(ctx, tx, req.EventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != model.EventStatusPublished {
		return nil, ErrEventNotPublished
	}
	// Sold-out fast path: short-circuit before any per-seat work.
	if ev.AvailableSeats == 0 {
		return nil, ErrSoldOut
	}

	// Validate every requested seat before touching any of them.
	// Duplicate positions in the request collapse to one seat.
	seen := make(map[SeatSelection]struct{}, len(req.Seats))
	snapshots := make([]model.BookedSeat, 0, len(req.Seats))
	positions := make([]repository.SeatPos, 0, len(req.Seats))
	for _, sel := range req.Seats {
		if _, dup := seen[sel]; dup {
			continue
		}
		seen[sel] = struct{}{}

		seat := ev.FindSeat(sel.Row, sel.Number)
		if seat == nil {
			return nil, &SeatError{Row: sel.Row, Number: sel.Number, Reason: SeatReasonInvalid}
		}
		if !seat.Selectable() {
			return nil, &SeatError{Row: sel.Row, Number: sel.Number, Reason: SeatReasonTaken}
		}
		price, ok := ev.PriceFor(seat.Tier)
		if !ok {
			return nil, &SeatError{Row: sel.Row, Number: sel.Number, Reason: SeatReasonUnpriced}
		}
		snapshots = append(snapshots, model.BookedSeat{
			Row:        seat.Row,
			Number:     seat.Number,
			Tier:       seat.Tier,
			PriceCents: price,
		})
		positions = append(positions, repository.SeatPos{Row: seat.Row, Number: seat.Number})
	}

	// Commit phase: book seats, recompute availability from the full seat
	// map, persist the booking with snapshots, mint tickets.
	if err := s.Events.MarkSeatsBookedTx(ctx, tx, ev.ID, positions); err != nil {
		return nil, err
	}
	available, err := s.Events.RecountAvailableTx(ctx, tx, ev.ID)
	if err != nil {
		return nil, err
	}
	ev.AvailableSeats = available

	booking := &model.Booking{
		UserID:          userID,
		EventID:         ev.ID,
		Seats:           snapshots,
		PaymentMethod:   req.PaymentMethod,
		SpecialRequests: req.SpecialRequests,
	}
	if err := s.Bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	validUntil := ev.Date.UTC().Add(model.RedemptionGrace)
	tickets := make([]model.Ticket, 0, len(snapshots))
	for _, seat := range snapshots {
		t := model.Ticket{
			BookingID:  booking.ID,
			EventID:    ev.ID,
			UserID:     userID,
			Seat:       model.TicketSeat{Row: seat.Row, Number: seat.Number, Tier: seat.Tier},
			PriceCents: seat.PriceCents,
			ValidFrom:  now,
			ValidUntil: validUntil,
		}
		if err := s.Tickets.CreateTx(ctx, tx, &t); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	monitoring.BookingCreated(len(snapshots))
	return &ReservationResult{Booking: booking, Tickets: tickets, Event: ev}, nil
}
