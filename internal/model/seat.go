package model

import "time"

// Seat type values.  The type drives the seat's price tier.
const (
	SeatRegular = "REGULAR"
	SeatVIP     = "VIP"
	SeatCouple  = "COUPLE"
)

// ValidSeatType reports whether t is a known seat type.
func ValidSeatType(t string) bool {
	switch t {
	case SeatRegular, SeatVIP, SeatCouple:
		return true
	}
	return false
}

// Seat describes a physical seat in a hall.  RowNum and ColNum place
// the seat on the hall's rectangular grid (both 1-based and within the
// hall's bounds); SeatNumber is the human-facing label, unique within
// the hall.  Seats are created together with their hall and are
// immutable once the hall is in use.
//
// Fields:
//  ID         – primary key identifier.
//  HallID     – hall to which this seat belongs.
//  RowNum     – 1-based row on the hall grid.
//  ColNum     – 1-based column on the hall grid.
//  SeatNumber – label such as "A1", unique per hall.
//  SeatType   – REGULAR, VIP or COUPLE.
//  PriceCents – price of the seat in cents (>= 0).
//  CreatedAt  – creation timestamp.
type Seat struct {
	ID         uint64    // seats.id
	HallID     uint64    // seats.hall_id
	RowNum     uint32    // seats.row_num
	ColNum     uint32    // seats.col_num
	SeatNumber string    // seats.seat_number
	SeatType   string    // seats.seat_type
	PriceCents uint32    // seats.price_cents
	CreatedAt  time.Time // seats.created_at
}
