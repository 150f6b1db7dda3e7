package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/cinema-booking/internal/repository"
)

func newSchedulerHandler(t *testing.T) (*SessionHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewSessionHandler(
		repository.NewSessionRepo(db),
		repository.NewHallRepo(db),
		repository.NewMovieRepo(db),
		repository.NewCinemaRepo(db),
		repository.NewReservationRepo(db),
	)
	return h, mock, func() { _ = db.Close() }
}

func scheduleRequest(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func expectSchedulePrereqs(mock sqlmock.Sqlmock) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM cinemas WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city", "created_at", "updated_at"}).
			AddRow(1, "Grand Central", "Berlin", created, created))
	mock.ExpectQuery(`FROM halls WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cinema_id", "name", "seat_rows", "seat_cols", "created_at", "updated_at"}).
			AddRow(3, 1, "Hall 1", 10, 12, created, created))
	mock.ExpectQuery(`FROM movies WHERE id = \?`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "duration_min", "created_at"}).
			AddRow(4, "Heat", 170, created))
}

func TestCreateSessionOverlapConflict(t *testing.T) {
	h, mock, closeDB := newSchedulerHandler(t)
	defer closeDB()

	expectSchedulePrereqs(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM halls WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT id FROM sessions\s+WHERE hall_id = \? AND starts_at < \? AND ends_at > \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))
	mock.ExpectRollback()

	c, rec := scheduleRequest(`{
		"cinema_id": 1, "hall_id": 3, "movie_id": 4,
		"starts_at": "2026-06-03T20:00:00Z", "ends_at": "2026-06-03T22:00:00Z"
	}`)
	require.NoError(t, h.CreateSession(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Overlaps []uint64 `json:"overlaps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []uint64{55}, resp.Overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionSnapshotsSeatCount(t *testing.T) {
	h, mock, closeDB := newSchedulerHandler(t)
	defer closeDB()

	start := time.Date(2026, 6, 3, 20, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	created := start.Add(-24 * time.Hour)

	expectSchedulePrereqs(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM halls WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT id FROM sessions\s+WHERE hall_id = \?`).
		WithArgs(uint64(3), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM seats WHERE hall_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(120))
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(uint64(1), uint64(3), uint64(4), start, end, uint32(120)).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(`FROM sessions WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "cinema_id", "hall_id", "movie_id", "starts_at", "ends_at",
			"available_seats", "created_at", "updated_at",
		}).AddRow(9, 1, 3, 4, start, end, 120, created, created))
	mock.ExpectCommit()

	c, rec := scheduleRequest(`{
		"cinema_id": 1, "hall_id": 3, "movie_id": 4,
		"starts_at": "2026-06-03T20:00:00Z", "ends_at": "2026-06-03T22:00:00Z"
	}`)
	require.NoError(t, h.CreateSession(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(9), resp.ID)
	assert.Equal(t, uint32(120), resp.AvailableSeats)
	assert.True(t, resp.StartsAt.Equal(start))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionRejectsBadInterval(t *testing.T) {
	h, _, closeDB := newSchedulerHandler(t)
	defer closeDB()

	c, rec := scheduleRequest(`{
		"cinema_id": 1, "hall_id": 3, "movie_id": 4,
		"starts_at": "2026-06-03T22:00:00Z", "ends_at": "2026-06-03T20:00:00Z"
	}`)
	require.NoError(t, h.CreateSession(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSeatLayoutMarksBookedSeats(t *testing.T) {
	h, mock, closeDB := newSchedulerHandler(t)
	defer closeDB()

	start := time.Date(2026, 6, 3, 20, 0, 0, 0, time.UTC)
	created := start.Add(-24 * time.Hour)

	mock.ExpectQuery(`FROM sessions WHERE id = \?`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "cinema_id", "hall_id", "movie_id", "starts_at", "ends_at",
			"available_seats", "created_at", "updated_at",
		}).AddRow(2, 1, 3, 4, start, start.Add(2*time.Hour), 3, created, created))
	mock.ExpectQuery(`FROM halls WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cinema_id", "name", "seat_rows", "seat_cols", "created_at", "updated_at"}).
			AddRow(3, 1, "Hall 1", 2, 2, created, created))
	mock.ExpectQuery(`FROM seats\s+WHERE hall_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "hall_id", "row_num", "col_num", "seat_number", "seat_type", "price_cents", "created_at",
		}).AddRow(10, 3, 1, 1, "A1", "REGULAR", 1200, created).
			AddRow(11, 3, 1, 2, "A2", "REGULAR", 1200, created))
	mock.ExpectQuery(`SELECT rs\.seat_id`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(11))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/2/seat-layout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/sessions/:id/seat-layout")
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.GetSeatLayout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Seats []struct {
			SeatNumber  string `json:"seat_number"`
			IsAvailable bool   `json:"is_available"`
		} `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Seats, 2)
	assert.True(t, resp.Seats[0].IsAvailable)
	assert.False(t, resp.Seats[1].IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
