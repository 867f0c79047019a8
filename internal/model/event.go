package model

import (
	"fmt"
	"time"
)

// Event statuses.  An event accepts bookings only while published.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Price tier names.  Every seat references one of these, and every
// referenced tier must have a matching PriceTier entry on the event.
const (
	TierVIP     = "VIP"
	TierPremium = "Premium"
	TierGeneral = "General"
	TierStudent = "Student"
)

// Categories lists the closed set of event categories accepted on creation.
var Categories = []string{"Concert", "Sports", "Conference", "Workshop", "Theater", "Comedy", "Other"}

// Tiers lists the closed set of price tier names.
var Tiers = []string{TierVIP, TierPremium, TierGeneral, TierStudent}

// ValidCategory reports whether c is one of the allowed event categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidTier reports whether t is one of the allowed price tier names.
func ValidTier(t string) bool {
	for _, v := range Tiers {
		if v == t {
			return true
		}
	}
	return false
}

// Venue describes where an event takes place.
type Venue struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Capacity uint32 `json:"capacity"`
}

// PriceTier maps a tier name to its unit price for one event.  Prices are
// stored in cents to avoid floating point arithmetic on money.
type PriceTier struct {
	Tier       string `json:"tier"`
	PriceCents uint32 `json:"price_cents"`
}

// Seat is a single bookable position in an event's seat map.  A seat is
// selectable iff IsAvailable is true and IsBooked is false.  Marking a
// seat booked through the reservation path is irreversible.
type Seat struct {
	Row         string `json:"row"`
	Number      uint32 `json:"number"`
	Tier        string `json:"tier"`
	IsAvailable bool   `json:"is_available"`
	IsBooked    bool   `json:"is_booked"`
}

// Selectable reports whether the seat can still be reserved.
func (s Seat) Selectable() bool {
	return s.IsAvailable && !s.IsBooked
}

// Label returns the human form of a seat position, e.g. "A12".
func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}

// Event is the aggregate for a bookable event: venue, tiered pricing and
// the full seat map.  TotalSeats and AvailableSeats are derived values and
// must only ever be set through Recount; they are never trusted from input.
type Event struct {
	ID             uint64      `json:"id"`
	OrganizerID    uint64      `json:"organizer_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Date           time.Time   `json:"date"`
	Venue          Venue       `json:"venue"`
	Category       string      `json:"category"`
	Status         string      `json:"status"`
	PriceTiers     []PriceTier `json:"price_tiers,omitempty"`
	SeatMap        []Seat      `json:"seat_map,omitempty"`
	TotalSeats     uint32      `json:"total_seats"`
	AvailableSeats uint32      `json:"available_seats"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// FindSeat returns the seat at (row, number) or nil when the position does
// not exist in the seat map.
func (e *Event) FindSeat(row string, number uint32) *Seat {
	for i := range e.SeatMap {
		if e.SeatMap[i].Row == row && e.SeatMap[i].Number == number {
			return &e.SeatMap[i]
		}
	}
	return nil
}

// PriceFor resolves a tier name to its unit price.  The second return
// value is false when the event has no matching price tier; callers must
// treat that as a hard validation failure for the seat being priced.
func (e *Event) PriceFor(tier string) (uint32, bool) {
	for _, pt := range e.PriceTiers {
		if pt.Tier == tier {
			return pt.PriceCents, true
		}
	}
	return 0, false
}

// RecomputeAvailableSeats counts the seats that are still selectable.  It
// is the single source of truth for availability: every mutation path must
// recompute through it instead of incrementing or decrementing ad hoc.
func RecomputeAvailableSeats(seats []Seat) uint32 {
	var n uint32
	for _, s := range seats {
		if s.Selectable() {
			n++
		}
	}
	return n
}

// Recount restores the derived seat counters from the seat map.
func (e *Event) Recount() {
	e.TotalSeats = uint32(len(e.SeatMap))
	e.AvailableSeats = RecomputeAvailableSeats(e.SeatMap)
}

// TiersCoverSeats verifies the aggregate invariant that every seat's tier
// resolves to a price tier entry.  It returns the label of the first seat
// violating the invariant, or "" when the seat map is fully priced.
func (e *Event) TiersCoverSeats() string {
	for _, s := range e.SeatMap {
		if _, ok := e.PriceFor(s.Tier); !ok {
			return s.Label()
		}
	}
	return ""
}
