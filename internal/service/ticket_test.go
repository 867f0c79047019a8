package service

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/repository"
)

// issueTicket reserves one seat and returns the minted ticket plus the
// customer who owns it.
func issueTicket(t *testing.T, db *sql.DB) (model.Ticket, uint64) {
	t.Helper()
	svc := newTestReservationService(db)
	organizer := createTestUser(t, db, model.RoleOrganizer)
	customer := createTestUser(t, db, model.RoleCustomer)
	ev := seedEvent(t, db, organizer)

	res, err := svc.Reserve(context.Background(), customer, ReserveRequest{
		EventID: ev.ID, Seats: []SeatSelection{{Row: "A", Number: 1}},
	})
	require.NoError(t, err)
	require.Len(t, res.Tickets, 1)
	return res.Tickets[0], customer
}

func TestRedeemThenDoubleRedeem(t *testing.T) {
	db := openTestDB(t)
	svc := NewTicketService(repository.NewTicketRepo(db), nil)
	tk, owner := issueTicket(t, db)
	validator := createTestUser(t, db, model.RoleAdmin)

	res, err := svc.Redeem(context.Background(), tk.ID, tk.QRData, &validator)
	require.NoError(t, err)
	assert.Equal(t, tk.ID, res.TicketID)
	assert.Equal(t, tk.TicketNumber, res.TicketNumber)
	assert.Equal(t, owner, res.UserID)
	assert.Equal(t, tk.Seat, res.Seat)

	stored, err := repository.NewTicketRepo(db).GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusUsed, stored.Status)
	require.NotNil(t, stored.UsedAt)
	require.NotNil(t, stored.UsedBy)
	assert.Equal(t, validator, *stored.UsedBy)

	// Second attempt fails as already used and must not move used_at.
	_, err = svc.Redeem(context.Background(), tk.ID, tk.QRData, &validator)
	var gone *TicketGoneError
	require.ErrorAs(t, err, &gone)
	assert.True(t, gone.AlreadyUsed)
	require.NotNil(t, gone.UsedAt)
	assert.WithinDuration(t, *stored.UsedAt, *gone.UsedAt, time.Second)

	again, err := repository.NewTicketRepo(db).GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.True(t, again.UsedAt.Equal(*stored.UsedAt), "used_at must never change after the first redemption")
}

func TestRedeemRejectsMismatchedPayload(t *testing.T) {
	db := openTestDB(t)
	svc := NewTicketService(repository.NewTicketRepo(db), nil)
	tk, _ := issueTicket(t, db)

	_, err := svc.Redeem(context.Background(), tk.ID, tk.QRData+"tampered", nil)
	assert.ErrorIs(t, err, ErrQRMismatch)

	// A rejected attempt leaves the ticket untouched.
	stored, err := repository.NewTicketRepo(db).GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusActive, stored.Status)
	assert.Nil(t, stored.UsedAt)
}

func TestRedeemUnknownTicket(t *testing.T) {
	db := openTestDB(t)
	svc := NewTicketService(repository.NewTicketRepo(db), nil)

	_, err := svc.Redeem(context.Background(), 1<<60, "{}", nil)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

func TestRedeemExpiredTicket(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewTicketRepo(db)
	svc := NewTicketService(repo, nil)
	tk, _ := issueTicket(t, db)

	// Push the window into the past; the stored status stays active.
	past := time.Now().UTC().Add(-48 * time.Hour)
	_, err := db.Exec(`UPDATE tickets SET valid_from = ?, valid_until = ? WHERE id = ?`,
		past, past.Add(time.Hour), tk.ID)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), tk.ID, tk.QRData, nil)
	var gone *TicketGoneError
	require.ErrorAs(t, err, &gone)
	assert.False(t, gone.AlreadyUsed)
	assert.True(t, gone.Expired)
	assert.Equal(t, model.TicketStatusActive, gone.Status)
}

func TestRedeemConcurrentAttempts(t *testing.T) {
	db := openTestDB(t)
	svc := NewTicketService(repository.NewTicketRepo(db), nil)
	tk, _ := issueTicket(t, db)

	const scanners = 6
	var wg sync.WaitGroup
	var successes, alreadyUsed int64
	wg.Add(scanners)
	for i := 0; i < scanners; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(context.Background(), tk.ID, tk.QRData, nil)
			if err == nil {
				atomic.AddInt64(&successes, 1)
				return
			}
			var gone *TicketGoneError
			if assert.ErrorAs(t, err, &gone) && gone.AlreadyUsed {
				atomic.AddInt64(&alreadyUsed, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes, "a ticket admits exactly one entry")
	assert.EqualValues(t, scanners-1, alreadyUsed)
}
