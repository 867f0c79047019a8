package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketValidity(t *testing.T) {
	now := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	tk := &Ticket{
		Status:     TicketStatusActive,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
	}

	assert.True(t, tk.IsValid(now))
	assert.True(t, tk.IsValid(tk.ValidFrom), "window is inclusive at the start")
	assert.True(t, tk.IsValid(tk.ValidUntil), "window is inclusive at the end")

	// Outside the window.
	assert.False(t, tk.IsValid(tk.ValidFrom.Add(-time.Second)))
	assert.False(t, tk.IsValid(tk.ValidUntil.Add(time.Second)))

	// A used ticket is never valid, even inside the window.
	tk.Status = TicketStatusUsed
	assert.False(t, tk.IsValid(now))
}

func TestTicketExpiryIndependentOfStatus(t *testing.T) {
	now := time.Now().UTC()
	tk := &Ticket{
		Status:     TicketStatusActive,
		ValidFrom:  now.Add(-3 * time.Hour),
		ValidUntil: now.Add(-time.Hour),
	}

	assert.True(t, tk.IsExpired(now))
	assert.False(t, tk.IsValid(now))
	// Reading expiry does not mutate the stored status.
	assert.Equal(t, TicketStatusActive, tk.Status)

	tk.Status = TicketStatusUsed
	assert.True(t, tk.IsExpired(now), "expiry ignores status entirely")
}

func TestBuildQRDataDeterministic(t *testing.T) {
	seat := TicketSeat{Row: "A", Number: 1, Tier: TierGeneral}

	first := BuildQRData(42, "TK17000000000ABCDE", 7, 3, seat)
	second := BuildQRData(42, "TK17000000000ABCDE", 7, 3, seat)
	assert.Equal(t, first, second)

	assert.JSONEq(t, `{
		"ticketId": 42,
		"ticketNumber": "TK17000000000ABCDE",
		"eventId": 7,
		"userId": 3,
		"seat": {"row": "A", "number": 1, "tier": "General"}
	}`, first)

	// Any component change produces a different payload.
	other := BuildQRData(43, "TK17000000000ABCDE", 7, 3, seat)
	assert.NotEqual(t, first, other)
}
