package model

import (
	"errors"
	"time"
)

// Reservation status values.  A reservation starts out PENDING (or
// CONFIRMED when the client explicitly asks for immediate
// confirmation).  FAILED and COMPLETED are terminal housekeeping
// states.  Seats belonging to PENDING and CONFIRMED reservations are
// counted as booked by the availability resolver.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusFailed    = "FAILED"
	StatusCompleted = "COMPLETED"
)

// ErrInvalidTransition is returned when a status change is not allowed
// by the reservation state machine.
var ErrInvalidTransition = errors.New("invalid reservation status transition")

// statusTransitions enumerates the allowed status changes.  FAILED and
// COMPLETED are terminal.
var statusTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusFailed},
	StatusConfirmed: {StatusCompleted},
	StatusFailed:    {},
	StatusCompleted: {},
}

// ValidStatus reports whether s is one of the four reservation states.
func ValidStatus(s string) bool {
	_, ok := statusTransitions[s]
	return ok
}

// Live reports whether a reservation in the given status holds its
// seats.  Only PENDING and CONFIRMED reservations contribute to the
// booked set.
func Live(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

// Reservation records a user's booking of one or more seats for a
// session.  TotalPriceCents is fixed at booking time as the sum of the
// seat snapshot prices plus any snack subtotal; it is never recomputed
// from live hall data.  Code is a short human-facing identifier.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the reservation.
//  SessionID       – session being reserved.
//  Status          – PENDING, CONFIRMED, FAILED or COMPLETED.
//  TotalPriceCents – total price in cents for seats plus snacks.
//  Code            – short unique reservation code (8 chars, uppercase).
//  Seats           – immutable seat snapshots captured at booking time.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64         // reservations.id
	UserID          uint64         // reservations.user_id
	SessionID       uint64         // reservations.session_id
	Status          string         // reservations.status
	TotalPriceCents uint32         // reservations.total_price_cents
	Code            string         // reservations.code
	Seats           []SeatSnapshot // reservation_seats rows
	CreatedAt       time.Time      // reservations.created_at
	UpdatedAt       time.Time      // reservations.updated_at
}

// TransitionTo moves the reservation to the target status, enforcing
// the state machine.  It returns ErrInvalidTransition when the change
// is not allowed from the current status.
func (r *Reservation) TransitionTo(target string) error {
	for _, next := range statusTransitions[r.Status] {
		if next == target {
			r.Status = target
			return nil
		}
	}
	return ErrInvalidTransition
}

// SeatSnapshot is an immutable copy of a seat's identifying and pricing
// fields taken at the moment a reservation is created.  Storing the
// copy instead of a live reference keeps historical bookings stable if
// the hall's seat metadata or prices later change.
type SeatSnapshot struct {
	SeatID     uint64 // reservation_seats.seat_id (original seat)
	RowNum     uint32 // reservation_seats.row_num
	ColNum     uint32 // reservation_seats.col_num
	SeatNumber string // reservation_seats.seat_number (e.g. "A1")
	SeatType   string // reservation_seats.seat_type
	PriceCents uint32 // reservation_seats.price_cents
}

// SnapshotSeat copies the booking-relevant fields of a seat into a
// SeatSnapshot.
func SnapshotSeat(s *Seat) SeatSnapshot {
	return SeatSnapshot{
		SeatID:     s.ID,
		RowNum:     s.RowNum,
		ColNum:     s.ColNum,
		SeatNumber: s.SeatNumber,
		SeatType:   s.SeatType,
		PriceCents: s.PriceCents,
	}
}

// SnackItem is a denormalized record of a snack purchased together with
// a reservation.  Like seat snapshots, the unit price is copied at
// booking time.
type SnackItem struct {
	SnackID        uint64 // reservation_snacks.snack_id
	Name           string // reservation_snacks.name
	UnitPriceCents uint32 // reservation_snacks.unit_price_cents
	Quantity       uint32 // reservation_snacks.quantity
}
