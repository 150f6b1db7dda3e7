package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetix/cinema-booking/internal/model"
)

// MovieRepo provides persistence for the movie catalog.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Create inserts a new movie and populates the generated ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, duration_min) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.DurationMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID retrieves a movie by its ID.  It returns ErrMovieNotFound
// when no row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT id, title, duration_min, created_at FROM movies WHERE id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.DurationMin, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns all movies ordered by id.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT id, title, duration_min, created_at FROM movies ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.DurationMin, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MoviePopularity pairs a movie with the number of live reservations
// made across its sessions.  It is the payload of the popularity
// ranking read path.
type MoviePopularity struct {
	MovieID      uint64 `json:"movie_id"`
	Title        string `json:"title"`
	Reservations uint64 `json:"reservations"`
}

// PopularityRanking returns movies ordered by the number of PENDING or
// CONFIRMED reservations across all of their sessions, most reserved
// first.  Movies with no reservations are included with a zero count so
// a fresh catalog still renders.  The result is bounded by limit.
func (r *MovieRepo) PopularityRanking(ctx context.Context, limit int) ([]MoviePopularity, error) {
	const q = `SELECT m.id, m.title, COUNT(res.id) AS cnt
               FROM movies m
               LEFT JOIN sessions s ON s.movie_id = m.id
               LEFT JOIN reservations res ON res.session_id = s.id AND res.status IN ('PENDING','CONFIRMED')
               GROUP BY m.id, m.title
               ORDER BY cnt DESC, m.id ASC
               LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MoviePopularity
	for rows.Next() {
		var p MoviePopularity
		if err := rows.Scan(&p.MovieID, &p.Title, &p.Reservations); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
