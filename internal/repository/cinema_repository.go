package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetix/cinema-booking/internal/model"
)

// CinemaRepo provides methods to create and retrieve cinemas and their
// snack catalogs.
type CinemaRepo struct {
	db *sql.DB
}

// NewCinemaRepo constructs a CinemaRepo with the given DB handle.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

// Create inserts a new cinema and reads the row back to populate
// timestamps.
func (r *CinemaRepo) Create(ctx context.Context, c *model.Cinema) error {
	const qInsert = `INSERT INTO cinemas (name, city) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, c.Name, c.City)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const qSelect = `SELECT id, name, city, created_at, updated_at FROM cinemas WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, c.ID).
		Scan(&c.ID, &c.Name, &c.City, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a cinema by its ID.  It returns ErrCinemaNotFound
// when no row is found.
func (r *CinemaRepo) GetByID(ctx context.Context, id uint64) (*model.Cinema, error) {
	const q = `SELECT id, name, city, created_at, updated_at FROM cinemas WHERE id = ?`
	var c model.Cinema
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&c.ID, &c.Name, &c.City, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all cinemas ordered by id.  Used by the public browse
// endpoints.
func (r *CinemaRepo) List(ctx context.Context) ([]model.Cinema, error) {
	const q = `SELECT id, name, city, created_at, updated_at FROM cinemas ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Cinema
	for rows.Next() {
		var c model.Cinema
		if err := rows.Scan(&c.ID, &c.Name, &c.City, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSnack inserts a snack into a cinema's catalog and populates the
// generated ID.
func (r *CinemaRepo) CreateSnack(ctx context.Context, s *model.Snack) error {
	const q = `INSERT INTO snacks (cinema_id, name, price_cents) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.CinemaID, s.Name, s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// SnacksByCinema returns the snack catalog of a cinema ordered by id.
func (r *CinemaRepo) SnacksByCinema(ctx context.Context, cinemaID uint64) ([]model.Snack, error) {
	const q = `SELECT id, cinema_id, name, price_cents, created_at FROM snacks WHERE cinema_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, cinemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Snack
	for rows.Next() {
		var s model.Snack
		if err := rows.Scan(&s.ID, &s.CinemaID, &s.Name, &s.PriceCents, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SnacksByCinemaTx is the transactional variant of SnacksByCinema.  The
// reservation manager uses it so that snack prices are read from the
// same consistent snapshot as the seats being booked.
func (r *CinemaRepo) SnacksByCinemaTx(ctx context.Context, tx *sql.Tx, cinemaID uint64) ([]model.Snack, error) {
	const q = `SELECT id, cinema_id, name, price_cents, created_at FROM snacks WHERE cinema_id = ? ORDER BY id`
	rows, err := tx.QueryContext(ctx, q, cinemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Snack
	for rows.Next() {
		var s model.Snack
		if err := rows.Scan(&s.ID, &s.CinemaID, &s.Name, &s.PriceCents, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
