package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/cinetix/cinema-booking/internal/model"
)

// ReservationRepo provides persistence for reservations, their seat
// snapshots and purchased snacks.  Reservations group together one or
// more seats booked for a session by a user.  All timestamp fields are
// stored in UTC.
//
// The booked-set queries only consider reservations whose status is
// PENDING or CONFIRMED; FAILED and COMPLETED reservations no longer
// hold seats.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// liveStatuses is the SQL predicate fragment selecting reservations
// that currently hold seats.
const liveStatuses = `('PENDING','CONFIRMED')`

// BookedSeatIDsTx returns the set of seat ids held by live reservations
// for the session, read within the caller's transaction.  The
// reservation manager calls this after locking the session row, so the
// result cannot be invalidated by a concurrent booking before the
// transaction commits.
func (r *ReservationRepo) BookedSeatIDsTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (map[uint64]struct{}, error) {
	const q = `SELECT rs.seat_id
	           FROM reservation_seats rs
	           JOIN reservations res ON res.id = rs.reservation_id
	           WHERE rs.session_id = ? AND res.status IN ` + liveStatuses
	return r.scanSeatIDSet(tx.QueryContext(ctx, q, sessionID))
}

// BookedSeatIDs is the non-transactional variant used by the
// availability resolver.  Its result is advisory display state; the
// booking path re-checks inside its own transaction.
func (r *ReservationRepo) BookedSeatIDs(ctx context.Context, sessionID uint64) (map[uint64]struct{}, error) {
	const q = `SELECT rs.seat_id
	           FROM reservation_seats rs
	           JOIN reservations res ON res.id = rs.reservation_id
	           WHERE rs.session_id = ? AND res.status IN ` + liveStatuses
	return r.scanSeatIDSet(r.db.QueryContext(ctx, q, sessionID))
}

func (r *ReservationRepo) scanSeatIDSet(rows *sql.Rows, err error) (map[uint64]struct{}, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// mysqlDuplicateEntry is the server error number for a unique key
// violation.
const mysqlDuplicateEntry = 1062

// CreateTx inserts a new reservation within the provided transaction,
// populates the generated ID and reads the row back for timestamps.
// Status must be PENDING or CONFIRMED at creation time.  A collision on
// the code's unique key surfaces as ErrDuplicateCode so the caller can
// regenerate and retry.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, session_id, status, total_price_cents, code) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.SessionID, res.Status, res.TotalPriceCents, res.Code)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateCode
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT id, user_id, session_id, status, total_price_cents, code, created_at, updated_at
	             FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(
		&res.ID, &res.UserID, &res.SessionID, &res.Status, &res.TotalPriceCents,
		&res.Code, &res.CreatedAt, &res.UpdatedAt,
	)
}

// CreateSeatSnapshotsTx inserts the reservation's seat snapshots in a
// single statement.  The snapshots are denormalized copies; later
// changes to hall seats never touch these rows.  Passing an empty slice
// has no effect and returns nil.
func (r *ReservationRepo) CreateSeatSnapshotsTx(ctx context.Context, tx *sql.Tx, reservationID, sessionID uint64, seats []model.SeatSnapshot) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_seats (reservation_id, session_id, seat_id, row_num, col_num, seat_number, seat_type, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*8)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, reservationID, sessionID, s.SeatID, s.RowNum, s.ColNum, s.SeatNumber, s.SeatType, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateSnackItemsTx inserts the purchased-snack records for a
// reservation.  Passing an empty slice has no effect and returns nil.
func (r *ReservationRepo) CreateSnackItemsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, items []model.SnackItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_snacks (reservation_id, snack_id, name, unit_price_cents, quantity) VALUES `
	args := make([]interface{}, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, reservationID, it.SnackID, it.Name, it.UnitPriceCents, it.Quantity)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetForCancelTx loads the reservation and its seat snapshots within
// the caller's transaction, locking the reservation row.  The lock
// keeps the status read stable for the rest of the transaction, so two
// concurrent transitions off the same live reservation cannot both
// release its seats.  The cancellation policy needs the owner for the
// authorization check, the session reference for the 24-hour cutoff,
// and the seat count to release back onto the session counter.  It
// returns ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetForCancelTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, session_id, status, total_price_cents, code, created_at, updated_at
	           FROM reservations WHERE id = ? FOR UPDATE`
	var res model.Reservation
	err := tx.QueryRowContext(ctx, q, reservationID).Scan(
		&res.ID, &res.UserID, &res.SessionID, &res.Status, &res.TotalPriceCents,
		&res.Code, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	const seatQ = `SELECT seat_id, row_num, col_num, seat_number, seat_type, price_cents
	               FROM reservation_seats WHERE reservation_id = ?`
	rows, err := tx.QueryContext(ctx, seatQ, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.SeatSnapshot
		if err := rows.Scan(&s.SeatID, &s.RowNum, &s.ColNum, &s.SeatNumber, &s.SeatType, &s.PriceCents); err != nil {
			return nil, err
		}
		res.Seats = append(res.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteTx removes a reservation inside the provided transaction.  Seat
// snapshot and snack rows cascade via foreign keys.  The caller is
// responsible for incrementing the session's seat counter in the same
// transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, reservationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// GetByID returns a reservation with its seat snapshots.  It returns
// ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, session_id, status, total_price_cents, code, created_at, updated_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.SessionID, &res.Status, &res.TotalPriceCents,
		&res.Code, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	seats, err := r.seatsByReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Seats = seats
	return &res, nil
}

// UpdateStatusTx persists a status change inside an existing
// transaction, guarded by the status the caller read.  The WHERE clause
// compares against that status so a transition racing another writer
// updates zero rows instead of clobbering the newer state; that case
// surfaces as ErrStatusConflict.  The caller is expected to have
// validated the transition itself through the model's state machine.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	const q = `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusConflict
	}
	return nil
}

// SnapshotsBySession returns the seat snapshots of every live
// reservation for a session, ordered row-major.  It backs the
// reserved-seats display endpoint.
func (r *ReservationRepo) SnapshotsBySession(ctx context.Context, sessionID uint64) ([]model.SeatSnapshot, error) {
	const q = `SELECT rs.seat_id, rs.row_num, rs.col_num, rs.seat_number, rs.seat_type, rs.price_cents
	           FROM reservation_seats rs
	           JOIN reservations res ON res.id = rs.reservation_id
	           WHERE rs.session_id = ? AND res.status IN ` + liveStatuses + `
	           ORDER BY rs.row_num, rs.col_num`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SeatSnapshot, 0)
	for rows.Next() {
		var s model.SeatSnapshot
		if err := rows.Scan(&s.SeatID, &s.RowNum, &s.ColNum, &s.SeatNumber, &s.SeatType, &s.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns all reservations created by the given user, newest
// first, each populated with its seat snapshots.  When no reservations
// exist an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, user_id, session_id, status, total_price_cents, code, created_at, updated_at
	           FROM reservations
	           WHERE user_id = ?
	           ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Reservation, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.SessionID, &res.Status, &res.TotalPriceCents,
			&res.Code, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		res.Seats = []model.SeatSnapshot{}
		index[res.ID] = len(list)
		list = append(list, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}
	// Populate seats for all reservations in a single query.
	ids := make([]interface{}, 0, len(list))
	placeholders := make([]string, 0, len(list))
	for _, res := range list {
		ids = append(ids, res.ID)
		placeholders = append(placeholders, "?")
	}
	seatQuery := `SELECT reservation_id, seat_id, row_num, col_num, seat_number, seat_type, price_cents
	              FROM reservation_seats
	              WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
	              ORDER BY reservation_id, row_num, col_num`
	srows, err := r.db.QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var rid uint64
		var s model.SeatSnapshot
		if err := srows.Scan(&rid, &s.SeatID, &s.RowNum, &s.ColNum, &s.SeatNumber, &s.SeatType, &s.PriceCents); err != nil {
			return nil, err
		}
		idx, ok := index[rid]
		if !ok {
			continue
		}
		list[idx].Seats = append(list[idx].Seats, s)
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReservationRepo) seatsByReservation(ctx context.Context, reservationID uint64) ([]model.SeatSnapshot, error) {
	const q = `SELECT seat_id, row_num, col_num, seat_number, seat_type, price_cents
	           FROM reservation_seats
	           WHERE reservation_id = ?
	           ORDER BY row_num, col_num`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SeatSnapshot, 0)
	for rows.Next() {
		var s model.SeatSnapshot
		if err := rows.Scan(&s.SeatID, &s.RowNum, &s.ColNum, &s.SeatNumber, &s.SeatType, &s.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
