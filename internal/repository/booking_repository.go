package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/utils"
)

// referenceAttempts bounds regeneration when a generated identifier
// collides with an existing row.  Collisions require two references with
// the same millisecond timestamp and the same 5-char suffix, so more than
// a couple of retries means something else is wrong.
const referenceAttempts = 5

// BookingRepo provides persistence for bookings and their seat snapshots.
// A booking's total is always recomputed from its snapshots before the
// insert; totals supplied by callers are ignored.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB for cross-repository transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, user_id, event_id, total_amount_cents, status, payment_status,
       payment_method, payment_intent_id, booking_reference, special_requests,
       cancelled_at, cancelled_by, cancellation_reason, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }, b *model.Booking) error {
	var intentID, requests, reason sql.NullString
	var cancelledAt sql.NullTime
	var cancelledBy sql.NullInt64
	err := row.Scan(
		&b.ID, &b.UserID, &b.EventID, &b.TotalAmountCents, &b.Status, &b.PaymentStatus,
		&b.PaymentMethod, &intentID, &b.BookingReference, &requests,
		&cancelledAt, &cancelledBy, &reason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if intentID.Valid {
		v := intentID.String
		b.PaymentIntentID = &v
	}
	if requests.Valid {
		v := requests.String
		b.SpecialRequests = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time
		b.CancelledAt = &v
	}
	if cancelledBy.Valid {
		v := uint64(cancelledBy.Int64)
		b.CancelledBy = &v
	}
	if reason.Valid {
		v := reason.String
		b.CancellationReason = &v
	}
	return nil
}

// CreateTx inserts a booking within the scope of an existing transaction.
// It recomputes the total from the seat snapshots, generates the unique
// booking reference (regenerating on a duplicate-key failure instead of
// surfacing it), inserts the snapshot rows, and populates the generated
// ID, reference and timestamps on the given record.  The caller must
// commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	b.Recount()
	if b.Status == "" {
		b.Status = model.BookingStatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = model.PaymentStatusPending
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = model.DefaultPaymentMethod
	}

	const q = `INSERT INTO bookings
        (user_id, event_id, total_amount_cents, status, payment_status, payment_method,
         payment_intent_id, booking_reference, special_requests)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var res sql.Result
	for attempt := 0; ; attempt++ {
		ref, err := utils.GenerateReference("BK")
		if err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx, q,
			b.UserID, b.EventID, b.TotalAmountCents, b.Status, b.PaymentStatus, b.PaymentMethod,
			nullString(b.PaymentIntentID), ref, nullString(b.SpecialRequests))
		if err == nil {
			b.BookingReference = ref
			break
		}
		if isDuplicateKey(err) && attempt < referenceAttempts-1 {
			continue
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if err := r.createSeatsBulkTx(ctx, tx, b.ID, b.Seats); err != nil {
		return err
	}

	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return scanBooking(tx.QueryRowContext(ctx, sel, b.ID), b)
}

// createSeatsBulkTx inserts the seat snapshots of one booking in a single
// statement.
func (r *BookingRepo) createSeatsBulkTx(ctx context.Context, tx *sql.Tx, bookingID uint64, seats []model.BookedSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, row_label, seat_number, tier, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, bookingID, s.Row, s.Number, s.Tier, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByIDForUser returns a single booking with its seat snapshots,
// restricted to the owning user.  ErrBookingNotFound is returned both when
// the booking does not exist and when it belongs to another user.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	var b model.Booking
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ?`
	if err := scanBooking(r.db.QueryRowContext(ctx, q, bookingID, userID), &b); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	seats, err := r.loadSeats(ctx, []uint64{b.ID})
	if err != nil {
		return nil, err
	}
	b.Seats = seats[b.ID]
	return &b, nil
}

// GetForUpdateTx loads a booking inside tx with a row lock, restricted to
// the owning user, serializing concurrent cancellation attempts.  Seat
// snapshots are immutable after creation, so they are read without the
// lock.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID, userID uint64) (*model.Booking, error) {
	var b model.Booking
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ? FOR UPDATE`
	if err := scanBooking(tx.QueryRowContext(ctx, q, bookingID, userID), &b); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	seats, err := r.loadSeats(ctx, []uint64{b.ID})
	if err != nil {
		return nil, err
	}
	b.Seats = seats[b.ID]
	return &b, nil
}

// ListByUser returns all bookings of a user, newest first, each with its
// seat snapshots populated.  When no bookings exist an empty slice is
// returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		var b model.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}
	seatsByBooking, err := r.loadSeats(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Seats = seatsByBooking[bookings[i].ID]
	}
	return bookings, nil
}

// loadSeats fetches seat snapshots for the given booking IDs in one query.
func (r *BookingRepo) loadSeats(ctx context.Context, bookingIDs []uint64) (map[uint64][]model.BookedSeat, error) {
	placeholders := make([]string, len(bookingIDs))
	args := make([]interface{}, len(bookingIDs))
	for i, id := range bookingIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT booking_id, row_label, seat_number, tier, price_cents
          FROM booking_seats WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY booking_id, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]model.BookedSeat, len(bookingIDs))
	for rows.Next() {
		var bid uint64
		var s model.BookedSeat
		if err := rows.Scan(&bid, &s.Row, &s.Number, &s.Tier, &s.PriceCents); err != nil {
			return nil, err
		}
		out[bid] = append(out[bid], s)
	}
	return out, rows.Err()
}

// UpdateStatusTx updates the mutable status fields of a booking within a
// transaction.  Used by the cancellation stub path; the booking itself is
// otherwise immutable after creation.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, status, paymentStatus string, cancelledAt *time.Time, cancelledBy *uint64, reason *string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, payment_status = ?, cancelled_at = ?, cancelled_by = ?, cancellation_reason = ?
         WHERE id = ?`,
		status, paymentStatus, cancelledAt, cancelledBy, nullString(reason), bookingID)
	return err
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
