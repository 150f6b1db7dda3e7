// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCreatedEvent is published after a reservation transaction
// commits.  It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type ReservationCreatedEvent struct {
	ReservationID   uint64   `json:"reservation_id"`
	Code            string   `json:"code"`
	UserID          uint64   `json:"user_id"`
	SessionID       uint64   `json:"session_id"`
	CinemaID        uint64   `json:"cinema_id"`
	HallID          uint64   `json:"hall_id"`
	MovieID         uint64   `json:"movie_id"`
	Status          string   `json:"status"`
	SeatNumbers     []string `json:"seats"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	CreatedAt       string   `json:"created_at"`
}
