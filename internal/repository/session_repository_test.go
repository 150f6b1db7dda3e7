package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOverlappingTx(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	t.Run("passes end before start so boundary touches do not match", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		// The half-open comparison needs starts_at < proposed end and
		// ends_at > proposed start, in that argument order.
		mock.ExpectQuery(`SELECT id FROM sessions\s+WHERE hall_id = \? AND starts_at < \? AND ends_at > \?`).
			WithArgs(uint64(3), end, start).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewSessionRepo(db)
		ids, err := repo.FindOverlappingTx(context.Background(), tx, 3, start, end)
		require.NoError(t, err)
		assert.Equal(t, []uint64{11, 12}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no conflicts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM sessions`).
			WithArgs(uint64(3), end, start).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewSessionRepo(db)
		ids, err := repo.FindOverlappingTx(context.Background(), tx, 3, start, end)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestAdjustSeatsTx(t *testing.T) {
	t.Run("applies negative delta on booking", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE sessions SET available_seats = available_seats \+ \?`).
			WithArgs(int32(-3), uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewSessionRepo(db)
		require.NoError(t, repo.AdjustSeatsTx(context.Background(), tx, 7, -3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown session", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE sessions SET available_seats`).
			WithArgs(int32(2), uint64(999)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewSessionRepo(db)
		err = repo.AdjustSeatsTx(context.Background(), tx, 999, 2)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestGetByIDForUpdateTx(t *testing.T) {
	t.Run("locks and scans the row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now().UTC().Truncate(time.Second)
		start := now.Add(48 * time.Hour)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM sessions WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "cinema_id", "hall_id", "movie_id", "starts_at", "ends_at",
				"available_seats", "created_at", "updated_at",
			}).AddRow(5, 1, 2, 3, start, start.Add(2*time.Hour), 80, now, now))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewSessionRepo(db)
		s, err := repo.GetByIDForUpdateTx(context.Background(), tx, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), s.ID)
		assert.Equal(t, uint64(2), s.HallID)
		assert.Equal(t, uint32(80), s.AvailableSeats)
		assert.True(t, s.StartsAt.Equal(start))
	})

	t.Run("missing session", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		repo := NewSessionRepo(db)
		_, err = repo.GetByIDForUpdateTx(context.Background(), tx, 5)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
