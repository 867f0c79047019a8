// Package monitoring exposes Prometheus metrics for the booking core.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reservation outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventspark_bookings_created_total",
			Help: "Total successfully created bookings",
		},
	)

	seatsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventspark_seats_booked_total",
			Help: "Total seats booked across all bookings",
		},
	)

	reservationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventspark_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	reservationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventspark_reservation_duration_seconds",
			Help:    "Duration of the reservation validate+commit sequence",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	ticketRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventspark_ticket_redemptions_total",
			Help: "Ticket redemption attempts by result",
		},
		[]string{"result"},
	)
)

// BookingCreated records a successful booking of n seats.
func BookingCreated(n int) {
	bookingsCreated.Inc()
	seatsBooked.Add(float64(n))
}

// ObserveReservation records the duration and outcome of one reservation
// attempt.  outcome is one of the Outcome constants.
func ObserveReservation(d time.Duration, outcome string) {
	reservationDuration.Observe(d.Seconds())
	reservationOutcomes.WithLabelValues(outcome).Inc()
}

// TicketRedeemed records one redemption attempt.
func TicketRedeemed(accepted bool) {
	result := OutcomeSuccess
	if !accepted {
		result = OutcomeRejected
	}
	ticketRedemptions.WithLabelValues(result).Inc()
}
