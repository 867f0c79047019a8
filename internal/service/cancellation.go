package service

import (
	"context"
	"time"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/repository"
)

// CancelBooking is the administrative inverse of Reserve: it cancels the
// booking and its active tickets, releases the booked seats back to the
// seat map and recomputes availability, all in one transaction.  There is
// no HTTP surface for it yet; it exists for operator tooling and keeps the
// cancellation columns honest.
//
// Ownership is enforced by the booking lookup (someone else's booking
// reads as not found).  A booking with any ticket already used at the
// gate cannot be cancelled; repeat cancellations fail with
// ErrBookingAlreadyCancelled and change nothing.
func (s *ReservationService) CancelBooking(ctx context.Context, userID, bookingID uint64, reason *string) error {
	tx, err := s.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := s.Bookings.GetForUpdateTx(ctx, tx, bookingID, userID)
	if err != nil {
		return err
	}
	if b.Status == model.BookingStatusCancelled {
		return ErrBookingAlreadyCancelled
	}

	// Same critical section as Reserve: the event row lock keeps the seat
	// release from interleaving with a concurrent reservation's recount.
	if _, err := s.Events.GetForUpdateTx(ctx, tx, b.EventID); err != nil {
		return err
	}

	tickets, err := s.Tickets.ListByBookingTx(ctx, tx, b.ID)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if t.Status == model.TicketStatusUsed {
			return ErrBookingRedeemed
		}
	}
	if err := s.Tickets.CancelByBookingTx(ctx, tx, b.ID); err != nil {
		return err
	}

	positions := make([]repository.SeatPos, 0, len(b.Seats))
	for _, seat := range b.Seats {
		positions = append(positions, repository.SeatPos{Row: seat.Row, Number: seat.Number})
	}
	if err := s.Events.ReleaseSeatsTx(ctx, tx, b.EventID, positions); err != nil {
		return err
	}
	if _, err := s.Events.RecountAvailableTx(ctx, tx, b.EventID); err != nil {
		return err
	}

	paymentStatus := b.PaymentStatus
	if paymentStatus == model.PaymentStatusCompleted {
		paymentStatus = model.PaymentStatusRefunded
	}
	now := time.Now().UTC()
	if err := s.Bookings.UpdateStatusTx(ctx, tx, b.ID,
		model.BookingStatusCancelled, paymentStatus, &now, &userID, reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
