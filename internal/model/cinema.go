package model

import "time"

// Cinema represents a movie theatre venue.  A cinema contains halls and
// a snack catalog.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique name of the cinema.
//  City      – city where the cinema is located.
//  CreatedAt – timestamp when the cinema was created.
//  UpdatedAt – timestamp of last update.
type Cinema struct {
	ID        uint64    // cinemas.id
	Name      string    // cinemas.name
	City      string    // cinemas.city
	CreatedAt time.Time // cinemas.created_at
	UpdatedAt time.Time // cinemas.updated_at
}

// Snack is an item in a cinema's snack catalog.  Snacks can be added to
// a reservation; their price contributes to the reservation total.
//
// Fields:
//  ID         – primary key identifier.
//  CinemaID   – cinema that sells the snack.
//  Name       – display name of the snack.
//  PriceCents – unit price in cents.
//  CreatedAt  – creation timestamp.
type Snack struct {
	ID         uint64    // snacks.id
	CinemaID   uint64    // snacks.cinema_id
	Name       string    // snacks.name
	PriceCents uint32    // snacks.price_cents
	CreatedAt  time.Time // snacks.created_at
}
