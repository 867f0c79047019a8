package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeTotal(t *testing.T) {
	seats := []BookedSeat{
		{Row: "A", Number: 1, Tier: TierGeneral, PriceCents: 5000},
		{Row: "A", Number: 2, Tier: TierGeneral, PriceCents: 5000},
		{Row: "B", Number: 1, Tier: TierVIP, PriceCents: 12000},
	}
	assert.Equal(t, uint32(22000), RecomputeTotal(seats))
	assert.Equal(t, uint32(0), RecomputeTotal(nil))
}

func TestBookingRecountOverridesInput(t *testing.T) {
	b := &Booking{
		Seats: []BookedSeat{
			{Row: "A", Number: 1, Tier: TierGeneral, PriceCents: 5000},
		},
		// A caller-supplied total is never trusted.
		TotalAmountCents: 1,
	}
	b.Recount()
	assert.Equal(t, uint32(5000), b.TotalAmountCents)
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod("stripe"))
	assert.True(t, ValidPaymentMethod("cash"))
	assert.False(t, ValidPaymentMethod("barter"))
}
