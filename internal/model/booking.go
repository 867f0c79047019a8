package model

import "time"

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusRefunded  = "refunded"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// PaymentMethods lists the accepted payment method values.  Payments are
// not processed here; the method and intent id are stored as opaque
// references for an external processor.
var PaymentMethods = []string{"stripe", "paypal", "cash"}

// DefaultPaymentMethod is used when a booking request omits the method.
const DefaultPaymentMethod = "stripe"

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// BookedSeat is a seat snapshot taken at booking time.  The snapshot,
// including its price, is the source of truth for the booking even if the
// event's price tiers are edited later.
type BookedSeat struct {
	Row        string `json:"row"`
	Number     uint32 `json:"number"`
	Tier       string `json:"tier"`
	PriceCents uint32 `json:"price_cents"`
}

// Booking is the durable record of a completed reservation.  Once created
// it is immutable except for status, payment status and the cancellation
// stub fields.
type Booking struct {
	ID                 uint64       `json:"id"`
	UserID             uint64       `json:"user_id"`
	EventID            uint64       `json:"event_id"`
	Seats              []BookedSeat `json:"seats"`
	TotalAmountCents   uint32       `json:"total_amount_cents"`
	Status             string       `json:"status"`
	PaymentStatus      string       `json:"payment_status"`
	PaymentMethod      string       `json:"payment_method"`
	PaymentIntentID    *string      `json:"payment_intent_id,omitempty"`
	BookingReference   string       `json:"booking_reference"`
	SpecialRequests    *string      `json:"special_requests,omitempty"`
	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`
	CancelledBy        *uint64      `json:"cancelled_by,omitempty"`
	CancellationReason *string      `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// RecomputeTotal returns the sum of the snapshotted seat prices.  Persist
// paths must call this instead of trusting a total supplied by input.
func RecomputeTotal(seats []BookedSeat) uint32 {
	var total uint32
	for _, s := range seats {
		total += s.PriceCents
	}
	return total
}

// Recount restores TotalAmountCents from the seat snapshots.
func (b *Booking) Recount() {
	b.TotalAmountCents = RecomputeTotal(b.Seats)
}
