package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/cinema-booking/internal/model"
)

func TestBookedSeatIDs(t *testing.T) {
	t.Run("only live statuses are queried", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT rs\.seat_id\s+FROM reservation_seats rs\s+JOIN reservations res ON res\.id = rs\.reservation_id\s+WHERE rs\.session_id = \? AND res\.status IN \('PENDING','CONFIRMED'\)`).
			WithArgs(uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(4).AddRow(8).AddRow(4))

		repo := NewReservationRepo(db)
		set, err := repo.BookedSeatIDs(context.Background(), 9)
		require.NoError(t, err)
		assert.Len(t, set, 2)
		_, ok := set[4]
		assert.True(t, ok)
		_, ok = set[8]
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("session with no reservations yields an empty set", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT rs\.seat_id`).
			WithArgs(uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"seat_id"}))

		repo := NewReservationRepo(db)
		set, err := repo.BookedSeatIDs(context.Background(), 9)
		require.NoError(t, err)
		assert.Empty(t, set)
	})
}

func TestCreateSeatSnapshotsTx(t *testing.T) {
	t.Run("bulk insert with one placeholder group per seat", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO reservation_seats \(reservation_id, session_id, seat_id, row_num, col_num, seat_number, seat_type, price_cents\) VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\),\(\?, \?, \?, \?, \?, \?, \?, \?\)`).
			WithArgs(
				uint64(1), uint64(2), uint64(10), uint32(1), uint32(1), "A1", model.SeatRegular, uint32(1200),
				uint64(1), uint64(2), uint64(11), uint32(1), uint32(2), "A2", model.SeatRegular, uint32(1200),
			).
			WillReturnResult(sqlmock.NewResult(1, 2))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewReservationRepo(db)
		err = repo.CreateSeatSnapshotsTx(context.Background(), tx, 1, 2, []model.SeatSnapshot{
			{SeatID: 10, RowNum: 1, ColNum: 1, SeatNumber: "A1", SeatType: model.SeatRegular, PriceCents: 1200},
			{SeatID: 11, RowNum: 1, ColNum: 2, SeatNumber: "A2", SeatType: model.SeatRegular, PriceCents: 1200},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty slice is a no-op", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewReservationRepo(db)
		require.NoError(t, repo.CreateSeatSnapshotsTx(context.Background(), tx, 1, 2, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteTx(t *testing.T) {
	t.Run("missing reservation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).
			WithArgs(uint64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewReservationRepo(db)
		err = repo.DeleteTx(context.Background(), tx, 404)
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})
}

func TestUpdateStatusTx(t *testing.T) {
	t.Run("update is guarded by the status that was read", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE reservations SET status = \?, updated_at = CURRENT_TIMESTAMP WHERE id = \? AND status = \?`).
			WithArgs(model.StatusConfirmed, uint64(5), model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewReservationRepo(db)
		require.NoError(t, repo.UpdateStatusTx(context.Background(), tx, 5, model.StatusPending, model.StatusConfirmed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means a concurrent transition won", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE reservations SET status = \?, updated_at = CURRENT_TIMESTAMP WHERE id = \? AND status = \?`).
			WithArgs(model.StatusFailed, uint64(5), model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewReservationRepo(db)
		err = repo.UpdateStatusTx(context.Background(), tx, 5, model.StatusPending, model.StatusFailed)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})
}

func TestCreateTxDuplicateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations \(user_id, session_id, status, total_price_cents, code\) VALUES \(\?, \?, \?, \?, \?\)`).
		WithArgs(uint64(10), uint64(2), model.StatusPending, uint32(1200), "AB12CD34").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'AB12CD34' for key 'uq_reservations_code'"})

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	repo := NewReservationRepo(db)
	err = repo.CreateTx(context.Background(), tx, &model.Reservation{
		UserID: 10, SessionID: 2, Status: model.StatusPending, TotalPriceCents: 1200, Code: "AB12CD34",
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
