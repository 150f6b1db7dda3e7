package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetix/cinema-booking/internal/model"
)

// HallRepo provides methods to create and retrieve halls together with
// their seat grids.  Seats are created in bulk when the hall is created
// and are treated as immutable afterwards.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

// DB exposes the underlying handle so handlers can open transactions
// that span the hall insert and its seat grid.
func (r *HallRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new hall and reads the row back to populate
// timestamps.  The seat grid is inserted separately via CreateSeatsBulk
// so both can share one transaction in the handler.
func (r *HallRepo) Create(ctx context.Context, tx *sql.Tx, h *model.Hall) error {
	const qInsert = `INSERT INTO halls (cinema_id, name, seat_rows, seat_cols) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, h.CinemaID, h.Name, h.SeatRows, h.SeatCols)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	const qSelect = `SELECT id, cinema_id, name, seat_rows, seat_cols, created_at, updated_at FROM halls WHERE id = ?`
	return tx.QueryRowContext(ctx, qSelect, h.ID).
		Scan(&h.ID, &h.CinemaID, &h.Name, &h.SeatRows, &h.SeatCols, &h.CreatedAt, &h.UpdatedAt)
}

// GetByID retrieves a hall by its ID.  It returns ErrHallNotFound when
// no row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = `SELECT id, cinema_id, name, seat_rows, seat_cols, created_at, updated_at FROM halls WHERE id = ?`
	var h model.Hall
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&h.ID, &h.CinemaID, &h.Name, &h.SeatRows, &h.SeatCols, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// GetByIDTx is the transactional variant of GetByID, used by flows that
// must validate the hall against the same snapshot they write to.
func (r *HallRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Hall, error) {
	const q = `SELECT id, cinema_id, name, seat_rows, seat_cols, created_at, updated_at FROM halls WHERE id = ?`
	var h model.Hall
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&h.ID, &h.CinemaID, &h.Name, &h.SeatRows, &h.SeatCols, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// ListByCinema returns all halls inside a cinema ordered by id.
func (r *HallRepo) ListByCinema(ctx context.Context, cinemaID uint64) ([]model.Hall, error) {
	const q = `SELECT id, cinema_id, name, seat_rows, seat_cols, created_at, updated_at
               FROM halls WHERE cinema_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, cinemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Hall
	for rows.Next() {
		var h model.Hall
		if err := rows.Scan(&h.ID, &h.CinemaID, &h.Name, &h.SeatRows, &h.SeatCols, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LockTx takes a row lock on the hall inside the given transaction.
// The session scheduler uses this to serialize concurrent overlap
// checks per hall: two transactions creating sessions in the same hall
// cannot both pass the conflict query before either commits.
func (r *HallRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM halls WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrHallNotFound
	}
	return err
}

// CreateSeatsBulk inserts multiple seats in a single statement within
// the provided transaction.  Passing an empty slice has no effect and
// returns nil.
func (r *HallRepo) CreateSeatsBulk(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (hall_id, row_num, col_num, seat_number, seat_type, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, s.HallID, s.RowNum, s.ColNum, s.SeatNumber, s.SeatType, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// SeatsByHall retrieves all seats of a hall in row-major order (row
// then column).  The availability resolver relies on this ordering for
// stable client rendering.
func (r *HallRepo) SeatsByHall(ctx context.Context, hallID uint64) ([]model.Seat, error) {
	const q = `SELECT id, hall_id, row_num, col_num, seat_number, seat_type, price_cents, created_at
	           FROM seats
	           WHERE hall_id = ?
	           ORDER BY row_num, col_num`
	return r.scanSeats(r.db.QueryContext(ctx, q, hallID))
}

// SeatsByHallTx is the transactional variant of SeatsByHall, used by
// the reservation manager to match requested seat ids against the hall
// layout inside the booking transaction.
func (r *HallRepo) SeatsByHallTx(ctx context.Context, tx *sql.Tx, hallID uint64) ([]model.Seat, error) {
	const q = `SELECT id, hall_id, row_num, col_num, seat_number, seat_type, price_cents, created_at
	           FROM seats
	           WHERE hall_id = ?
	           ORDER BY row_num, col_num`
	return r.scanSeats(tx.QueryContext(ctx, q, hallID))
}

// CountSeatsTx returns the number of seats in a hall within the given
// transaction.  The scheduler uses it to snapshot a new session's
// available-seat counter.
func (r *HallRepo) CountSeatsTx(ctx context.Context, tx *sql.Tx, hallID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE hall_id = ?`, hallID).Scan(&n)
	return n, err
}

func (r *HallRepo) scanSeats(rows *sql.Rows, err error) ([]model.Seat, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.HallID, &s.RowNum, &s.ColNum, &s.SeatNumber, &s.SeatType, &s.PriceCents, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
