package model

import "time"

// Session represents a scheduled screening of a movie in a particular
// hall over a time interval.  Sessions are created by the scheduler,
// which guarantees that no two sessions in the same hall overlap in
// time.  AvailableSeats is a counter snapshot taken from the hall's
// seat total at creation time and adjusted as reservations are made
// and cancelled.
//
// Fields:
//  ID             – primary key identifier.
//  CinemaID       – cinema in which the session takes place.
//  HallID         – hall where the session is screened.
//  MovieID        – movie being screened.
//  StartsAt       – when the session begins.
//  EndsAt         – when the session ends (must be after StartsAt).
//  AvailableSeats – number of seats not yet held by a live reservation.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Session struct {
	ID             uint64    // sessions.id
	CinemaID       uint64    // sessions.cinema_id
	HallID         uint64    // sessions.hall_id
	MovieID        uint64    // sessions.movie_id
	StartsAt       time.Time // sessions.starts_at
	EndsAt         time.Time // sessions.ends_at
	AvailableSeats uint32    // sessions.available_seats
	CreatedAt      time.Time // sessions.created_at
	UpdatedAt      time.Time // sessions.updated_at
}

// Overlaps reports whether the session's [StartsAt, EndsAt) interval
// intersects the half-open interval [start, end).  Intervals that merely
// touch at a boundary (one ends exactly when the other starts) do not
// overlap.
func (s *Session) Overlaps(start, end time.Time) bool {
	return s.StartsAt.Before(end) && s.EndsAt.After(start)
}
