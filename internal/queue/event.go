// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer that move them.
package queue

// BookingCreatedEvent is published after a reservation commits. It carries
// enough information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type BookingCreatedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	BookingReference string   `json:"booking_reference"`
	UserID           uint64   `json:"user_id"`
	EventID          uint64   `json:"event_id"`
	EventTitle       string   `json:"event_title"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	CreatedAt        string   `json:"created_at"`
}

// TicketRedeemedEvent is published after a ticket is consumed at entry.
type TicketRedeemedEvent struct {
	TicketID     uint64 `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	EventID      uint64 `json:"event_id"`
	UserID       uint64 `json:"user_id"`
	SeatLabel    string `json:"seat"`
	ValidatorID  uint64 `json:"validator_id,omitempty"`
	RedeemedAt   string `json:"redeemed_at"`
}
