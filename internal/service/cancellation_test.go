package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/repository"
)

func TestCancelBookingReleasesSeatsAndTickets(t *testing.T) {
	db := openTestDB(t)
	svc := newTestReservationService(db)
	organizer := createTestUser(t, db, model.RoleOrganizer)
	customer := createTestUser(t, db, model.RoleCustomer)
	ev := seedEvent(t, db, organizer)

	res, err := svc.Reserve(context.Background(), customer, ReserveRequest{
		EventID: ev.ID,
		Seats:   []SeatSelection{{Row: "A", Number: 1}, {Row: "B", Number: 2}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 4, res.Event.AvailableSeats)

	reason := "change of plans"
	require.NoError(t, svc.CancelBooking(context.Background(), customer, res.Booking.ID, &reason))

	b, err := repository.NewBookingRepo(db).GetByIDForUser(context.Background(), res.Booking.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)
	require.NotNil(t, b.CancelledBy)
	assert.Equal(t, customer, *b.CancelledBy)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, reason, *b.CancellationReason)

	// Seats return to the pool and availability is recomputed.
	after, err := repository.NewEventRepo(db).GetByID(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 6, after.AvailableSeats)
	for _, pos := range []struct {
		row string
		num uint32
	}{{"A", 1}, {"B", 2}} {
		seat := after.FindSeat(pos.row, pos.num)
		require.NotNil(t, seat)
		assert.True(t, seat.Selectable())
	}

	// All tickets of the booking are cancelled.
	tickets, err := repository.NewTicketRepo(db).ListByUser(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	for _, tk := range tickets {
		assert.Equal(t, model.TicketStatusCancelled, tk.Status)
	}

	// Repeat cancellations change nothing.
	err = svc.CancelBooking(context.Background(), customer, res.Booking.ID, nil)
	assert.ErrorIs(t, err, ErrBookingAlreadyCancelled)
}

func TestCancelBookingRefusedAfterRedemption(t *testing.T) {
	db := openTestDB(t)
	svc := newTestReservationService(db)
	tickets := repository.NewTicketRepo(db)
	organizer := createTestUser(t, db, model.RoleOrganizer)
	customer := createTestUser(t, db, model.RoleCustomer)
	ev := seedEvent(t, db, organizer)

	res, err := svc.Reserve(context.Background(), customer, ReserveRequest{
		EventID: ev.ID, Seats: []SeatSelection{{Row: "A", Number: 1}},
	})
	require.NoError(t, err)

	redemption := NewTicketService(tickets, nil)
	tk := res.Tickets[0]
	_, err = redemption.Redeem(context.Background(), tk.ID, tk.QRData, nil)
	require.NoError(t, err)

	err = svc.CancelBooking(context.Background(), customer, res.Booking.ID, nil)
	assert.ErrorIs(t, err, ErrBookingRedeemed)

	// The refused cancellation leaves everything in place.
	b, err := repository.NewBookingRepo(db).GetByIDForUser(context.Background(), res.Booking.ID, customer)
	require.NoError(t, err)
	assert.NotEqual(t, model.BookingStatusCancelled, b.Status)
	stored, err := tickets.GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusUsed, stored.Status)
}

func TestCancelBookingEnforcesOwnership(t *testing.T) {
	db := openTestDB(t)
	svc := newTestReservationService(db)
	organizer := createTestUser(t, db, model.RoleOrganizer)
	customer := createTestUser(t, db, model.RoleCustomer)
	stranger := createTestUser(t, db, model.RoleCustomer)
	ev := seedEvent(t, db, organizer)

	res, err := svc.Reserve(context.Background(), customer, ReserveRequest{
		EventID: ev.ID, Seats: []SeatSelection{{Row: "A", Number: 1}},
	})
	require.NoError(t, err)

	err = svc.CancelBooking(context.Background(), stranger, res.Booking.ID, nil)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}
