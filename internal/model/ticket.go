package model

import (
	"encoding/json"
	"time"
)

// Ticket statuses.  The only write transition performed by redemption is
// active -> used; expiry is a read-time derived fact, not a stored state.
const (
	TicketStatusActive    = "active"
	TicketStatusUsed      = "used"
	TicketStatusCancelled = "cancelled"
	TicketStatusExpired   = "expired"
)

// RedemptionGrace is how long past the event start a ticket stays valid.
const RedemptionGrace = 2 * time.Hour

// TicketSeat is the seat snapshot carried by a ticket.
type TicketSeat struct {
	Row    string `json:"row"`
	Number uint32 `json:"number"`
	Tier   string `json:"tier"`
}

// Ticket is the entry credential minted for exactly one seat of a booking.
// QRData is computed once at issuance and never recomputed, so the payload
// stays stable even if the underlying seat or event mutate later.
type Ticket struct {
	ID           uint64     `json:"id"`
	TicketNumber string     `json:"ticket_number"`
	BookingID    uint64     `json:"booking_id"`
	EventID      uint64     `json:"event_id"`
	UserID       uint64     `json:"user_id"`
	Seat         TicketSeat `json:"seat"`
	PriceCents   uint32     `json:"price_cents"`
	QRData       string     `json:"qr_data"`
	Status       string     `json:"status"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	UsedBy       *uint64    `json:"used_by,omitempty"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidUntil   time.Time  `json:"valid_until"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsValid reports whether the ticket can be redeemed at the given instant:
// status is active and now falls inside [ValidFrom, ValidUntil].
func (t *Ticket) IsValid(now time.Time) bool {
	return t.Status == TicketStatusActive &&
		!now.Before(t.ValidFrom) &&
		!now.After(t.ValidUntil)
}

// IsExpired reports whether now is past the validity window.  It is
// independent of Status: an active ticket past its window reports expired,
// but reads never mutate the stored status.
func (t *Ticket) IsExpired(now time.Time) bool {
	return now.After(t.ValidUntil)
}

// qrPayload is the canonical redemption payload.  Field order is fixed so
// the serialization is deterministic.
type qrPayload struct {
	TicketID     uint64     `json:"ticketId"`
	TicketNumber string     `json:"ticketNumber"`
	EventID      uint64     `json:"eventId"`
	UserID       uint64     `json:"userId"`
	Seat         TicketSeat `json:"seat"`
}

// BuildQRData serializes the redemption payload for a ticket.  The result
// is compared byte-for-byte against the presented payload at entry.
func BuildQRData(ticketID uint64, ticketNumber string, eventID, userID uint64, seat TicketSeat) string {
	b, err := json.Marshal(qrPayload{
		TicketID:     ticketID,
		TicketNumber: ticketNumber,
		EventID:      eventID,
		UserID:       userID,
		Seat:         seat,
	})
	if err != nil {
		// Marshalling a struct of integers and strings cannot fail.
		panic(err)
	}
	return string(b)
}
