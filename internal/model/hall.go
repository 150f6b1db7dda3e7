package model

import "time"

// Hall represents an individual screening hall within a cinema.  The
// seating layout is a rectangle of SeatRows x SeatCols positions; every
// seat's row and column must fall within these bounds.
//
// Fields:
//  ID        – primary key identifier.
//  CinemaID  – cinema that owns the hall.
//  Name      – unique hall name per cinema.
//  SeatRows  – number of seating rows.
//  SeatCols  – number of seats per row.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hall struct {
	ID        uint64    // halls.id
	CinemaID  uint64    // halls.cinema_id
	Name      string    // halls.name
	SeatRows  uint32    // halls.seat_rows
	SeatCols  uint32    // halls.seat_cols
	CreatedAt time.Time // halls.created_at
	UpdatedAt time.Time // halls.updated_at
}
