// Package repository contains the data access layer.  This file defines
// error values shared by the repositories so that handlers can map
// failure scenarios onto HTTP responses.  Sentinel errors cover the
// simple cases; SeatsUnavailableError and SeatsUnknownError carry the
// full list of offending seats because callers need every conflicting
// seat at once, not just the first one found.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrCinemaNotFound is returned when a cinema lookup yields no rows.
var ErrCinemaNotFound = errors.New("cinema not found")

// ErrMovieNotFound is returned when a movie lookup yields no rows.
var ErrMovieNotFound = errors.New("movie not found")

// ErrHallNotFound is returned when a hall lookup yields no rows.
var ErrHallNotFound = errors.New("hall not found")

// ErrSessionNotFound is returned when a session lookup yields no rows.
var ErrSessionNotFound = errors.New("session not found")

// ErrReservationNotFound is returned when a reservation lookup yields
// no rows.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own and they hold no administrative role.
// Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrCancellationWindow is returned when a reservation cannot be
// cancelled because its session starts in less than the cancellation
// cutoff (24 hours).
var ErrCancellationWindow = errors.New("inside cancellation window")

// ErrNoSeatsSelected is returned when a reservation request contains no
// valid seat ids.
var ErrNoSeatsSelected = errors.New("no seats selected")

// ErrStatusConflict is returned when a guarded status update matches no
// row because the reservation's status changed since it was read.
var ErrStatusConflict = errors.New("reservation status changed concurrently")

// ErrDuplicateCode is returned when inserting a reservation collides
// with an existing code.  Callers regenerate the code and retry.
var ErrDuplicateCode = errors.New("reservation code already exists")

// SeatsUnavailableError reports every requested seat that is already
// held by a live reservation for the session.  SeatNumbers holds the
// human-facing labels so clients can tell the user which seats to
// deselect.
type SeatsUnavailableError struct {
	SeatNumbers []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.SeatNumbers, ", "))
}

// SeatsUnknownError reports every requested seat id that does not exist
// in the session's hall.
type SeatsUnknownError struct {
	SeatIDs []uint64
}

func (e *SeatsUnknownError) Error() string {
	parts := make([]string, 0, len(e.SeatIDs))
	for _, id := range e.SeatIDs {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return fmt.Sprintf("unknown seats: %s", strings.Join(parts, ", "))
}

// ScheduleConflictError is returned by the session scheduler when the
// proposed interval overlaps existing sessions in the same hall.  The
// conflicting sessions are included so the caller can report them.
type ScheduleConflictError struct {
	SessionIDs []uint64
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with %d existing session(s)", len(e.SessionIDs))
}
