// Package repository defines the data access layer and the sentinel errors
// shared across its repositories. Sentinels let handlers distinguish
// failure scenarios: ErrForbidden maps to HTTP 403, ErrConflict to 409,
// and the per-entity not-found values to 404.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as a seat that was booked by a concurrent
// request between validation and commit.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound indicates that an event was not located in the DB.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// ErrTicketNotFound indicates that a ticket was not located in the DB.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrEmailExists indicates a registration against an already-used email.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry failure
// (error 1062). Reference and ticket-number inserts retry on it.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
