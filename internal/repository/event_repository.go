package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/eventspark/eventspark-api/internal/model"
)

// EventRepo provides persistence for events, their price tiers and their
// seat maps.  The three tables form one aggregate: tiers and seats are
// only ever written together with their event, and the derived seat
// counters on the events row are recomputed from event_seats rather than
// adjusted in place.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// SeatPos identifies a seat by position within one event.
type SeatPos struct {
	Row    string
	Number uint32
}

const eventColumns = `id, organizer_id, title, description, date,
       venue_name, venue_address, venue_city, venue_capacity,
       category, status, total_seats, available_seats, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }, ev *model.Event) error {
	return row.Scan(
		&ev.ID, &ev.OrganizerID, &ev.Title, &ev.Description, &ev.Date,
		&ev.Venue.Name, &ev.Venue.Address, &ev.Venue.City, &ev.Venue.Capacity,
		&ev.Category, &ev.Status, &ev.TotalSeats, &ev.AvailableSeats,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
}

// Create persists a new event together with its price tiers and seat map
// in a single transaction.  The derived counters are recomputed from the
// seat map before insertion.  On success the generated ID and DB-default
// timestamps are populated on the given Event.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	ev.Recount()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO events
        (organizer_id, title, description, date, venue_name, venue_address, venue_city, venue_capacity,
         category, status, total_seats, available_seats)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		ev.OrganizerID, ev.Title, ev.Description, ev.Date.UTC(),
		ev.Venue.Name, ev.Venue.Address, ev.Venue.City, ev.Venue.Capacity,
		ev.Category, ev.Status, ev.TotalSeats, ev.AvailableSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)

	if err := r.createTiersTx(ctx, tx, ev.ID, ev.PriceTiers); err != nil {
		return err
	}
	if err := r.createSeatsTx(ctx, tx, ev.ID, ev.SeatMap); err != nil {
		return err
	}

	// Query back the row to populate timestamps and defaults.
	const sel = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	if err := scanEvent(tx.QueryRowContext(ctx, sel, ev.ID), ev); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *EventRepo) createTiersTx(ctx context.Context, tx *sql.Tx, eventID uint64, tiers []model.PriceTier) error {
	if len(tiers) == 0 {
		return nil
	}
	query := `INSERT INTO price_tiers (event_id, tier, price_cents) VALUES `
	args := make([]interface{}, 0, len(tiers)*3)
	for i, t := range tiers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, eventID, t.Tier, t.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (r *EventRepo) createSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO event_seats (event_id, row_label, seat_number, tier, is_available, is_booked) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, eventID, s.Row, s.Number, s.Tier, s.IsAvailable, s.IsBooked)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID loads an event with its price tiers and full seat map.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	var ev model.Event
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	if err := scanEvent(r.db.QueryRowContext(ctx, q, id), &ev); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	tiers, err := r.loadTiers(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	seats, err := r.loadSeats(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	ev.PriceTiers = tiers
	ev.SeatMap = seats
	return &ev, nil
}

// GetForUpdateTx loads an event inside tx with SELECT ... FOR UPDATE on
// the events row, then its tiers and seats.  The row lock is the per-event
// critical section for reservations: concurrent check-then-commit
// sequences against the same event serialize on it, so two requests can
// never both observe a seat as free and both book it.
func (r *EventRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	var ev model.Event
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	if err := scanEvent(tx.QueryRowContext(ctx, q, id), &ev); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	tiers, err := r.loadTiers(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	seats, err := r.loadSeats(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	ev.PriceTiers = tiers
	ev.SeatMap = seats
	return &ev, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *EventRepo) loadTiers(ctx context.Context, q querier, eventID uint64) ([]model.PriceTier, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT tier, price_cents FROM price_tiers WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tiers := make([]model.PriceTier, 0, 4)
	for rows.Next() {
		var t model.PriceTier
		if err := rows.Scan(&t.Tier, &t.PriceCents); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *EventRepo) loadSeats(ctx context.Context, q querier, eventID uint64) ([]model.Seat, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT row_label, seat_number, tier, is_available, is_booked
         FROM event_seats WHERE event_id = ?
         ORDER BY row_label, seat_number`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0, 64)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.Row, &s.Number, &s.Tier, &s.IsAvailable, &s.IsBooked); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ListSeats returns the seat map of an event without loading the rest of
// the aggregate.  ErrEventNotFound is returned when the event is absent.
func (r *EventRepo) ListSeats(ctx context.Context, eventID uint64) ([]model.Seat, []model.PriceTier, error) {
	var exists uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ?`, eventID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, err
	}
	seats, err := r.loadSeats(ctx, r.db, eventID)
	if err != nil {
		return nil, nil, err
	}
	tiers, err := r.loadTiers(ctx, r.db, eventID)
	if err != nil {
		return nil, nil, err
	}
	return seats, tiers, nil
}

// EventFilter narrows and pages the event listing.  Date filters to the
// UTC calendar day containing the given instant.
type EventFilter struct {
	Date     *time.Time
	Category string
	Page     int
	Limit    int
}

// List returns events matching the filter ordered by date ascending, plus
// the total match count for pagination.  Seat maps and price tiers are
// intentionally not loaded on the listing path.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if f.Date != nil {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	q := `SELECT ` + eventColumns + ` FROM events` + clause + ` ORDER BY date ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]model.Event, 0, limit)
	for rows.Next() {
		var ev model.Event
		if err := scanEvent(rows, &ev); err != nil {
			return nil, 0, err
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

// MarkSeatsBookedTx flips is_booked for the given seat positions, guarded
// on each seat still being selectable.  It returns ErrConflict when any
// seat was not updated, meaning a concurrent writer got there first; the
// caller must roll back.  This is the compare-and-swap backstop behind the
// event row lock.
func (r *EventRepo) MarkSeatsBookedTx(ctx context.Context, tx *sql.Tx, eventID uint64, seats []SeatPos) error {
	for _, p := range seats {
		res, err := tx.ExecContext(ctx,
			`UPDATE event_seats SET is_booked = 1
             WHERE event_id = ? AND row_label = ? AND seat_number = ?
               AND is_available = 1 AND is_booked = 0`,
			eventID, p.Row, p.Number)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrConflict
		}
	}
	return nil
}

// RecountAvailableTx recomputes events.available_seats from the seat map
// inside tx and returns the new value.  Counting instead of decrementing
// keeps the counter consistent even under partial external mutation.
func (r *EventRepo) RecountAvailableTx(ctx context.Context, tx *sql.Tx, eventID uint64) (uint32, error) {
	var available uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_seats WHERE event_id = ? AND is_available = 1 AND is_booked = 0`,
		eventID).Scan(&available)
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE events SET available_seats = ? WHERE id = ?`, available, eventID)
	return available, err
}

// ReleaseSeatsTx is the administrative inverse of MarkSeatsBookedTx: it
// unmarks the given seats and leaves the availability recount to the
// caller.  Used by the cancellation stub path.
func (r *EventRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, seats []SeatPos) error {
	for _, p := range seats {
		if _, err := tx.ExecContext(ctx,
			`UPDATE event_seats SET is_booked = 0
             WHERE event_id = ? AND row_label = ? AND seat_number = ?`,
			eventID, p.Row, p.Number); err != nil {
			return err
		}
	}
	return nil
}
