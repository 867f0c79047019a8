package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrEventNotPublished is returned when a reservation targets an event
// that exists but is not open for booking.
var ErrEventNotPublished = errors.New("event is not available for booking")

// ErrSoldOut is returned by the fast-path availability check before any
// per-seat validation runs.
var ErrSoldOut = errors.New("event is sold out")

// ErrQRMismatch is returned when the presented payload does not match the
// ticket's stored QR data byte for byte.
var ErrQRMismatch = errors.New("qr code data does not match ticket")

// ErrBookingAlreadyCancelled is returned by a repeated cancellation.
var ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")

// ErrBookingRedeemed is returned when a cancellation targets a booking
// with at least one ticket already used at the gate.
var ErrBookingRedeemed = errors.New("booking has redeemed tickets and cannot be cancelled")

// Seat failure reasons.
const (
	SeatReasonInvalid  = "does not exist for this event"
	SeatReasonTaken    = "is not available"
	SeatReasonUnpriced = "has no matching price tier"
)

// SeatError reports a per-seat reservation failure, naming the offending
// seat.  Reason is one of the SeatReason constants; handlers map
// SeatReasonTaken to 409 and the others to 400.
type SeatError struct {
	Row    string
	Number uint32
	Reason string
}

func (e *SeatError) Error() string {
	return fmt.Sprintf("seat %s%d %s", e.Row, e.Number, e.Reason)
}

// Conflict reports whether the failure is an availability conflict rather
// than a malformed selection.
func (e *SeatError) Conflict() bool { return e.Reason == SeatReasonTaken }

// TicketGoneError reports a redemption attempt against a ticket that can
// no longer be used: already redeemed, expired, or otherwise not active.
// Handlers map it to 410 Gone.
type TicketGoneError struct {
	AlreadyUsed bool
	Expired     bool
	Status      string
	UsedAt      *time.Time
	UsedBy      *uint64
	ValidFrom   time.Time
	ValidUntil  time.Time
}

func (e *TicketGoneError) Error() string {
	switch {
	case e.AlreadyUsed:
		return "ticket has already been used"
	case e.Expired:
		return "ticket has expired"
	default:
		return "ticket is not active"
	}
}
