package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/cinema-booking/internal/model"
	"github.com/cinetix/cinema-booking/internal/repository"
)

// SessionHandler implements the session scheduler and the seat
// availability resolver.  Scheduling runs inside a transaction with the
// hall row locked so the overlap check is evaluated against committed
// state, never a stale read; two concurrent requests for the same hall
// cannot both pass the conflict query.
type SessionHandler struct {
	SessionRepo     *repository.SessionRepo
	HallRepo        *repository.HallRepo
	MovieRepo       *repository.MovieRepo
	CinemaRepo      *repository.CinemaRepo
	ReservationRepo *repository.ReservationRepo
}

// NewSessionHandler constructs a SessionHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewSessionHandler(sessionRepo *repository.SessionRepo, hallRepo *repository.HallRepo, movieRepo *repository.MovieRepo, cinemaRepo *repository.CinemaRepo, reservationRepo *repository.ReservationRepo) *SessionHandler {
	if sessionRepo == nil || hallRepo == nil || movieRepo == nil || cinemaRepo == nil || reservationRepo == nil {
		panic("nil repository passed to NewSessionHandler")
	}
	return &SessionHandler{
		SessionRepo:     sessionRepo,
		HallRepo:        hallRepo,
		MovieRepo:       movieRepo,
		CinemaRepo:      cinemaRepo,
		ReservationRepo: reservationRepo,
	}
}

// sessionResp is the JSON shape returned for a session.
type sessionResp struct {
	ID             uint64    `json:"id"`
	CinemaID       uint64    `json:"cinema_id"`
	HallID         uint64    `json:"hall_id"`
	MovieID        uint64    `json:"movie_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	AvailableSeats uint32    `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
}

func toSessionResp(s *model.Session) sessionResp {
	return sessionResp{
		ID:             s.ID,
		CinemaID:       s.CinemaID,
		HallID:         s.HallID,
		MovieID:        s.MovieID,
		StartsAt:       s.StartsAt.UTC(),
		EndsAt:         s.EndsAt.UTC(),
		AvailableSeats: s.AvailableSeats,
		CreatedAt:      s.CreatedAt.UTC(),
	}
}

// CreateSession handles POST /v1/sessions.  It validates the interval,
// verifies cinema, hall and movie exist and that the hall belongs to
// the cinema, then runs the overlap check and the insert in one
// transaction while holding the hall's row lock.  Returns 201 with the
// created session, 409 when the interval overlaps an existing session
// in the hall, 400 on a malformed interval and 404 for missing
// prerequisites.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	var body struct {
		CinemaID uint64 `json:"cinema_id"`
		HallID   uint64 `json:"hall_id"`
		MovieID  uint64 `json:"movie_id"`
		StartsAt string `json:"starts_at"`
		EndsAt   string `json:"ends_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.CinemaID == 0 || body.HallID == 0 || body.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cinema_id, hall_id and movie_id are required"})
	}
	startsAt := strings.TrimSpace(body.StartsAt)
	endsAt := strings.TrimSpace(body.EndsAt)
	if startsAt == "" || endsAt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at and ends_at are required"})
	}
	start, err := time.Parse(time.RFC3339, startsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
	}
	end, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at format"})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	ctx := c.Request().Context()
	if _, err := h.CinemaRepo.GetByID(ctx, body.CinemaID); err != nil {
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify cinema"})
	}
	hall, err := h.HallRepo.GetByID(ctx, body.HallID)
	if err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify hall"})
	}
	if hall.CinemaID != body.CinemaID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hall does not belong to cinema"})
	}
	if _, err := h.MovieRepo.GetByID(ctx, body.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify movie"})
	}

	tx, err := h.SessionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Serialize scheduling per hall: the lock is held until commit, so
	// a concurrent request for the same hall waits here and then sees
	// this session in its overlap query.
	if err := h.HallRepo.LockTx(ctx, tx, body.HallID); err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock hall"})
	}
	overlaps, err := h.SessionRepo.FindOverlappingTx(ctx, tx, body.HallID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing sessions"})
	}
	if len(overlaps) > 0 {
		conflict := &repository.ScheduleConflictError{SessionIDs: overlaps}
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    conflict.Error(),
			"overlaps": conflict.SessionIDs,
		})
	}
	seatTotal, err := h.HallRepo.CountSeatsTx(ctx, tx, body.HallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count seats"})
	}
	session := &model.Session{
		CinemaID:       body.CinemaID,
		HallID:         body.HallID,
		MovieID:        body.MovieID,
		StartsAt:       start.UTC(),
		EndsAt:         end.UTC(),
		AvailableSeats: seatTotal,
	}
	if err := h.SessionRepo.CreateTx(ctx, tx, session); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create session"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, toSessionResp(session))
}

// seatAvail tags one hall seat with its availability for a session.
type seatAvail struct {
	ID          uint64 `json:"id"`
	RowNum      uint32 `json:"row"`
	ColNum      uint32 `json:"column"`
	SeatNumber  string `json:"seat_number"`
	SeatType    string `json:"type"`
	PriceCents  uint32 `json:"price_cents"`
	IsAvailable bool   `json:"is_available"`
}

// GetSeatLayout handles GET /v1/sessions/:id/seat-layout.  It merges
// the hall layout with the booked-seat set derived from live
// reservations and returns every seat tagged with availability, in
// row-major order.  The response is advisory display state: the booking
// path re-validates inside its own transaction.  Returns 404 when the
// session or its hall is missing; a session pointing at a vanished hall
// is a data-integrity fault and is surfaced, not defaulted.
func (h *SessionHandler) GetSeatLayout(c echo.Context) error {
	sessionID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	session, err := h.SessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session"})
	}
	hall, err := h.HallRepo.GetByID(ctx, session.HallID)
	if err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hall"})
	}
	seats, err := h.HallRepo.SeatsByHall(ctx, hall.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	booked, err := h.ReservationRepo.BookedSeatIDs(ctx, sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	out := make([]seatAvail, 0, len(seats))
	for _, s := range seats {
		_, taken := booked[s.ID]
		out = append(out, seatAvail{
			ID:          s.ID,
			RowNum:      s.RowNum,
			ColNum:      s.ColNum,
			SeatNumber:  s.SeatNumber,
			SeatType:    s.SeatType,
			PriceCents:  s.PriceCents,
			IsAvailable: !taken,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hall_id":   hall.ID,
		"hall_name": hall.Name,
		"hall_layout": echo.Map{
			"rows": hall.SeatRows,
			"cols": hall.SeatCols,
		},
		"seats": out,
	})
}

// GetReservedSeats handles GET /v1/sessions/:id/reserved-seats.  It
// returns the flat list of seat snapshots currently held by live
// reservations for the session, for display purposes.
func (h *SessionHandler) GetReservedSeats(c echo.Context) error {
	sessionID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	if _, err := h.SessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session"})
	}
	snaps, err := h.ReservationRepo.SnapshotsBySession(ctx, sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reserved seats"})
	}
	items := make([]echo.Map, 0, len(snaps))
	for _, s := range snaps {
		items = append(items, echo.Map{
			"seat_id":     s.SeatID,
			"row":         s.RowNum,
			"column":      s.ColNum,
			"seat_number": s.SeatNumber,
			"type":        s.SeatType,
			"price_cents": s.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
