package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() *Event {
	return &Event{
		ID:       1,
		Title:    "Opening Night",
		Date:     time.Now().UTC().Add(48 * time.Hour),
		Category: "Theater",
		Status:   EventStatusPublished,
		PriceTiers: []PriceTier{
			{Tier: TierGeneral, PriceCents: 5000},
			{Tier: TierVIP, PriceCents: 12000},
		},
		SeatMap: []Seat{
			{Row: "A", Number: 1, Tier: TierGeneral, IsAvailable: true},
			{Row: "A", Number: 2, Tier: TierGeneral, IsAvailable: true},
			{Row: "B", Number: 1, Tier: TierVIP, IsAvailable: true},
			{Row: "B", Number: 2, Tier: TierVIP, IsAvailable: false},
		},
	}
}

func TestFindSeat(t *testing.T) {
	e := sampleEvent()

	s := e.FindSeat("A", 2)
	require.NotNil(t, s)
	assert.Equal(t, "A2", s.Label())

	assert.Nil(t, e.FindSeat("Z", 9))
	assert.Nil(t, e.FindSeat("A", 3))
}

func TestPriceFor(t *testing.T) {
	e := sampleEvent()

	p, ok := e.PriceFor(TierVIP)
	assert.True(t, ok)
	assert.Equal(t, uint32(12000), p)

	_, ok = e.PriceFor(TierStudent)
	assert.False(t, ok)
}

func TestRecountDerivesFromSeatMap(t *testing.T) {
	e := sampleEvent()
	e.TotalSeats = 999
	e.AvailableSeats = 999

	e.Recount()
	assert.Equal(t, uint32(4), e.TotalSeats)
	// B2 is not available, so only 3 seats are selectable.
	assert.Equal(t, uint32(3), e.AvailableSeats)

	// Booking a seat drops availability by exactly one after recompute.
	e.FindSeat("A", 1).IsBooked = true
	e.Recount()
	assert.Equal(t, uint32(4), e.TotalSeats)
	assert.Equal(t, uint32(2), e.AvailableSeats)
}

func TestSelectable(t *testing.T) {
	assert.True(t, Seat{IsAvailable: true}.Selectable())
	assert.False(t, Seat{IsAvailable: true, IsBooked: true}.Selectable())
	assert.False(t, Seat{IsAvailable: false}.Selectable())
}

func TestTiersCoverSeats(t *testing.T) {
	e := sampleEvent()
	assert.Equal(t, "", e.TiersCoverSeats())

	e.SeatMap = append(e.SeatMap, Seat{Row: "C", Number: 1, Tier: TierStudent, IsAvailable: true})
	assert.Equal(t, "C1", e.TiersCoverSeats())
}

func TestEnumChecks(t *testing.T) {
	assert.True(t, ValidCategory("Concert"))
	assert.False(t, ValidCategory("Rave"))
	assert.True(t, ValidTier(TierPremium))
	assert.False(t, ValidTier("Economy"))
}
