package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/eventspark/eventspark-api/internal/model"
	"github.com/eventspark/eventspark-api/internal/utils"
)

// TicketRepo provides persistence for tickets.  Ticket numbers and QR
// payloads are unique; number generation retries on collision the same way
// booking references do.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying sql.DB for cross-repository transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

const ticketColumns = `id, ticket_number, booking_id, event_id, user_id,
       row_label, seat_number, tier, price_cents, qr_data, status,
       used_at, used_by, valid_from, valid_until, created_at, updated_at`

func scanTicket(row interface{ Scan(...interface{}) error }, t *model.Ticket) error {
	var usedAt sql.NullTime
	var usedBy sql.NullInt64
	err := row.Scan(
		&t.ID, &t.TicketNumber, &t.BookingID, &t.EventID, &t.UserID,
		&t.Seat.Row, &t.Seat.Number, &t.Seat.Tier, &t.PriceCents, &t.QRData, &t.Status,
		&usedAt, &usedBy, &t.ValidFrom, &t.ValidUntil, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if usedAt.Valid {
		v := usedAt.Time
		t.UsedAt = &v
	}
	if usedBy.Valid {
		v := uint64(usedBy.Int64)
		t.UsedBy = &v
	}
	return nil
}

// CreateTx mints a ticket within the scope of an existing transaction.  It
// generates the unique ticket number (regenerating on duplicate-key), then
// computes the QR payload from the assigned ID and writes it in a second
// statement, still inside tx.  The payload is never recomputed after this
// point.  On success the generated fields are populated on the record.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	if t.Status == "" {
		t.Status = model.TicketStatusActive
	}
	if t.ValidFrom.IsZero() {
		t.ValidFrom = time.Now().UTC()
	}

	const q = `INSERT INTO tickets
        (ticket_number, booking_id, event_id, user_id, row_label, seat_number, tier,
         price_cents, qr_data, status, valid_from, valid_until)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var res sql.Result
	for attempt := 0; ; attempt++ {
		num, err := utils.GenerateReference("TK")
		if err != nil {
			return err
		}
		// The qr_data column is unique, so the placeholder must differ per
		// row until the real payload is written below.
		res, err = tx.ExecContext(ctx, q,
			num, t.BookingID, t.EventID, t.UserID, t.Seat.Row, t.Seat.Number, t.Seat.Tier,
			t.PriceCents, "pending:"+num, t.Status, t.ValidFrom, t.ValidUntil.UTC())
		if err == nil {
			t.TicketNumber = num
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
	t.ID = uint64(id)

	t.QRData = model.BuildQRData(t.ID, t.TicketNumber, t.EventID, t.UserID, t.Seat)
	if _, err := tx.ExecContext(ctx, `UPDATE tickets SET qr_data = ? WHERE id = ?`, t.QRData, t.ID); err != nil {
		return err
	}

	const sel = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	return scanTicket(tx.QueryRowContext(ctx, sel, t.ID), t)
}

// GetByID loads a single ticket.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	if err := scanTicket(r.db.QueryRowContext(ctx, q, id), &t); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetForUpdateTx loads a ticket inside tx with a row lock, serializing
// concurrent redemption attempts on the same ticket.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ? FOR UPDATE`
	if err := scanTicket(tx.QueryRowContext(ctx, q, id), &t); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByUser returns all tickets belonging to a user, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// ListByBookingTx returns the tickets minted for a booking, in seat order,
// inside the caller's transaction.
func (r *TicketRepo) ListByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE booking_id = ? ORDER BY id`
	rows, err := tx.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// CancelByBookingTx cancels every still-active ticket of a booking inside
// tx.  Used tickets are left untouched; callers decide beforehand whether
// a partially redeemed booking may be cancelled at all.
func (r *TicketRepo) CancelByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE booking_id = ? AND status = ?`,
		model.TicketStatusCancelled, bookingID, model.TicketStatusActive)
	return err
}

// MarkUsedTx performs the one-way active -> used transition inside tx.
// usedBy may be nil when the validator is anonymous.
func (r *TicketRepo) MarkUsedTx(ctx context.Context, tx *sql.Tx, ticketID uint64, usedAt time.Time, usedBy *uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ?, used_at = ?, used_by = ? WHERE id = ?`,
		model.TicketStatusUsed, usedAt.UTC(), usedBy, ticketID)
	return err
}
