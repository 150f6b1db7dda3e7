// This file defines persistence for sessions.  A session binds a
// movie, a hall and a time window.  The overlap query and the insert
// both run inside the caller's transaction, with the hall row locked,
// so the conflict check is always evaluated against durable state at
// commit time rather than a stale read.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinetix/cinema-booking/internal/model"
)

// SessionRepo manages persistence for sessions.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows handlers to begin
// transactions spanning multiple repositories.
func (r *SessionRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts a new session within the provided transaction and
// reads the row back to populate timestamps.  The caller must hold the
// hall lock (HallRepo.LockTx) and have run FindOverlappingTx first.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Session) error {
	const q = `INSERT INTO sessions (cinema_id, hall_id, movie_id, starts_at, ends_at, available_seats)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.CinemaID, s.HallID, s.MovieID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.AvailableSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, cinema_id, hall_id, movie_id, starts_at, ends_at, available_seats, created_at, updated_at
	             FROM sessions WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.CinemaID, &s.HallID, &s.MovieID, &s.StartsAt, &s.EndsAt,
		&s.AvailableSeats, &s.CreatedAt, &s.UpdatedAt,
	)
}

// FindOverlappingTx returns the ids of sessions in the hall whose
// scheduled time overlaps the half-open interval [start, end).  A
// session overlaps when it starts before the proposed end and ends
// after the proposed start; boundary-touching intervals do not
// conflict.  Runs in the caller's transaction so the result reflects
// the state the insert will commit against.
func (r *SessionRepo) FindOverlappingTx(ctx context.Context, tx *sql.Tx, hallID uint64, start, end time.Time) ([]uint64, error) {
	const q = `SELECT id FROM sessions
	           WHERE hall_id = ? AND starts_at < ? AND ends_at > ?`
	rows, err := tx.QueryContext(ctx, q, hallID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByID retrieves a session by its ID.  It returns ErrSessionNotFound
// when no row is found.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	const q = `SELECT id, cinema_id, hall_id, movie_id, starts_at, ends_at, available_seats, created_at, updated_at
	           FROM sessions WHERE id = ?`
	var s model.Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.CinemaID, &s.HallID, &s.MovieID, &s.StartsAt, &s.EndsAt,
		&s.AvailableSeats, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByIDForUpdateTx loads a session inside the transaction and takes a
// row lock on it.  The lock is the per-session mutual exclusion token
// for the reservation manager: the booked-seat recheck and the insert
// that follows cannot interleave with another booking on the same
// session.
func (r *SessionRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Session, error) {
	const q = `SELECT id, cinema_id, hall_id, movie_id, starts_at, ends_at, available_seats, created_at, updated_at
	           FROM sessions WHERE id = ? FOR UPDATE`
	var s model.Session
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.CinemaID, &s.HallID, &s.MovieID, &s.StartsAt, &s.EndsAt,
		&s.AvailableSeats, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// AdjustSeatsTx shifts the session's available-seat counter by delta
// (negative when seats are booked, positive when a reservation is
// cancelled) within the provided transaction.
func (r *SessionRepo) AdjustSeatsTx(ctx context.Context, tx *sql.Tx, sessionID uint64, delta int32) error {
	const q = `UPDATE sessions SET available_seats = available_seats + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, delta, sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListByHall returns all sessions for a hall ordered by start time
// ascending.  Used by the public browse endpoints.
func (r *SessionRepo) ListByHall(ctx context.Context, hallID uint64) ([]model.Session, error) {
	const q = `SELECT id, cinema_id, hall_id, movie_id, starts_at, ends_at, available_seats, created_at, updated_at
	           FROM sessions
	           WHERE hall_id = ?
	           ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(
			&s.ID, &s.CinemaID, &s.HallID, &s.MovieID, &s.StartsAt, &s.EndsAt,
			&s.AvailableSeats, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
