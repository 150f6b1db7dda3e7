package handler

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinetix/cinema-booking/internal/model"
	"github.com/cinetix/cinema-booking/internal/queue"
	"github.com/cinetix/cinema-booking/internal/repository"
	queue_publisher "github.com/cinetix/cinema-booking/internal/service"
)

// cancellationCutoff is the minimum lead time before a session's start
// at which a reservation may still be cancelled.
const cancellationCutoff = 24 * time.Hour

// maxTotalPriceCents bounds a reservation's total price to the range
// of the reservations.total_price_cents column.  Totals are accumulated
// in uint64 and checked against this bound so client-chosen quantities
// cannot wrap the persisted price.
const maxTotalPriceCents = math.MaxUint32

// errPriceRange rejects a booking whose priced lines exceed
// maxTotalPriceCents.
var errPriceRange = errors.New("total price out of range")

// ReservationHandler implements booking, cancellation, listing and the
// status state machine.  Booking and cancellation run as single
// transactions holding the session row lock, so concurrent requests
// against the same session serialize and each one validates against
// committed state.
type ReservationHandler struct {
	ReservationRepo *repository.ReservationRepo
	SessionRepo     *repository.SessionRepo
	HallRepo        *repository.HallRepo
	CinemaRepo      *repository.CinemaRepo
	UserRepo        *repository.UserRepo

	// Now is the clock used for the cancellation window and can be
	// overridden in tests.
	Now func() time.Time
	// PublishEvents enables reservation.created events.
	PublishEvents bool
}

// NewReservationHandler wires a ReservationHandler.
func NewReservationHandler(reservationRepo *repository.ReservationRepo, sessionRepo *repository.SessionRepo, hallRepo *repository.HallRepo, cinemaRepo *repository.CinemaRepo, userRepo *repository.UserRepo, publishEvents bool) *ReservationHandler {
	if reservationRepo == nil || sessionRepo == nil || hallRepo == nil || cinemaRepo == nil || userRepo == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{
		ReservationRepo: reservationRepo,
		SessionRepo:     sessionRepo,
		HallRepo:        hallRepo,
		CinemaRepo:      cinemaRepo,
		UserRepo:        userRepo,
		Now:             time.Now,
		PublishEvents:   publishEvents,
	}
}

// snackReq is one requested snack line in the booking body.
type snackReq struct {
	SnackID  uint64 `json:"snack_id"`
	Quantity uint32 `json:"quantity"`
}

// validateSeatSelection resolves the requested seat ids against the
// hall's seats and the booked set.  Problems are collected, not
// short-circuited: a SeatsUnknownError carries every id that is not a
// seat of the hall, a SeatsUnavailableError carries every taken seat's
// number.  Unknown ids take precedence since the request is malformed
// regardless of availability.  Duplicate ids collapse to one seat.
func validateSeatSelection(requested []uint64, hallSeats []model.Seat, booked map[uint64]struct{}) ([]model.Seat, error) {
	if len(requested) == 0 {
		return nil, repository.ErrNoSeatsSelected
	}
	byID := make(map[uint64]model.Seat, len(hallSeats))
	for _, s := range hallSeats {
		byID[s.ID] = s
	}
	var (
		selected    []model.Seat
		unknownIDs  []uint64
		unavailable []string
	)
	seen := make(map[uint64]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		seat, ok := byID[id]
		if !ok {
			unknownIDs = append(unknownIDs, id)
			continue
		}
		if _, taken := booked[id]; taken {
			unavailable = append(unavailable, seat.SeatNumber)
			continue
		}
		selected = append(selected, seat)
	}
	if len(unknownIDs) > 0 {
		sort.Slice(unknownIDs, func(i, j int) bool { return unknownIDs[i] < unknownIDs[j] })
		return nil, &repository.SeatsUnknownError{SeatIDs: unknownIDs}
	}
	if len(unavailable) > 0 {
		sort.Strings(unavailable)
		return nil, &repository.SeatsUnavailableError{SeatNumbers: unavailable}
	}
	return selected, nil
}

// priceSnacks matches requested snack lines against the cinema's
// catalogue and returns the priced items plus the subtotal in cents.
// Lines naming an unknown snack or a non-positive quantity are dropped
// without error.  The subtotal is accumulated in uint64 and
// errPriceRange is returned once it exceeds maxTotalPriceCents, so
// oversized quantities cannot wrap the price.
func priceSnacks(requested []snackReq, available []model.Snack) ([]model.SnackItem, uint64, error) {
	byID := make(map[uint64]model.Snack, len(available))
	for _, s := range available {
		byID[s.ID] = s
	}
	var items []model.SnackItem
	var subtotal uint64
	for _, req := range requested {
		if req.Quantity == 0 {
			continue
		}
		snack, ok := byID[req.SnackID]
		if !ok {
			continue
		}
		items = append(items, model.SnackItem{
			SnackID:        snack.ID,
			Name:           snack.Name,
			UnitPriceCents: snack.PriceCents,
			Quantity:       req.Quantity,
		})
		subtotal += uint64(snack.PriceCents) * uint64(req.Quantity)
		if subtotal > maxTotalPriceCents {
			return nil, 0, errPriceRange
		}
	}
	return items, subtotal, nil
}

// authorizeCancellation enforces the cancellation policy: the caller
// must own the reservation or be an admin, and the session must start
// at least the cutoff from now.
func authorizeCancellation(res *model.Reservation, sessionStart, now time.Time, callerID uint64, role string) error {
	if res.UserID != callerID && role != model.RoleAdmin {
		return repository.ErrForbidden
	}
	if now.Add(cancellationCutoff).After(sessionStart) {
		return repository.ErrCancellationWindow
	}
	return nil
}

// newReservationCode returns an 8 character uppercase alphanumeric
// code derived from a fresh UUID.  Codes are display identifiers, not
// security tokens; the hex alphabet keeps them unambiguous.
func newReservationCode() string {
	id := uuid.New()
	raw := strings.ReplaceAll(id.String(), "-", "")
	return strings.ToUpper(raw[:8])
}

// reservationResp is the JSON shape of a reservation with its seats.
type reservationResp struct {
	ID              uint64    `json:"id"`
	Code            string    `json:"code"`
	UserID          uint64    `json:"user_id"`
	SessionID       uint64    `json:"session_id"`
	Status          string    `json:"status"`
	TotalPriceCents uint32    `json:"total_price_cents"`
	Seats           []seatRef `json:"seats"`
	CreatedAt       time.Time `json:"created_at"`
}

type seatRef struct {
	SeatID     uint64 `json:"seat_id"`
	SeatNumber string `json:"seat_number"`
	SeatType   string `json:"type"`
	PriceCents uint32 `json:"price_cents"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	seats := make([]seatRef, 0, len(r.Seats))
	for _, s := range r.Seats {
		seats = append(seats, seatRef{
			SeatID:     s.SeatID,
			SeatNumber: s.SeatNumber,
			SeatType:   s.SeatType,
			PriceCents: s.PriceCents,
		})
	}
	return reservationResp{
		ID:              r.ID,
		Code:            r.Code,
		UserID:          r.UserID,
		SessionID:       r.SessionID,
		Status:          r.Status,
		TotalPriceCents: r.TotalPriceCents,
		Seats:           seats,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

// CreateReservation handles POST /v1/reservations.  The whole booking
// is one transaction: lock the session row, re-derive the booked set
// from committed reservations, validate the requested seats, price
// seats plus snacks, insert the reservation with its seat snapshots
// and snack items, and decrement the session's available counter.
// Nothing persists on any failure.  Seat problems are aggregated:
// unknown ids come back as 404 with every offending id, taken seats as
// 409 with every taken seat number.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var body struct {
		UserID    uint64     `json:"user_id"`
		SessionID uint64     `json:"session_id"`
		SeatIDs   []uint64   `json:"seat_ids"`
		Snacks    []snackReq `json:"snacks"`
		Status    string     `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.UserID == 0 || body.SessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and session_id are required"})
	}
	if len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one seat must be selected"})
	}
	status := body.Status
	if status == "" {
		status = model.StatusPending
	}
	if status != model.StatusPending && status != model.StatusConfirmed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PENDING or CONFIRMED"})
	}

	ctx := c.Request().Context()
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

	// The session row lock is the mutual exclusion token for this
	// session: concurrent bookings and cancellations queue up here.
	session, err := h.SessionRepo.GetByIDForUpdateTx(ctx, tx, body.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session"})
	}
	if !session.StartsAt.After(h.Now().UTC()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "session has already started"})
	}
	exists, err := h.UserRepo.ExistsTx(ctx, tx, body.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify user"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	hallSeats, err := h.HallRepo.SeatsByHallTx(ctx, tx, session.HallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	booked, err := h.ReservationRepo.BookedSeatIDsTx(ctx, tx, session.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	selected, err := validateSeatSelection(body.SeatIDs, hallSeats, booked)
	if err != nil {
		var unknown *repository.SeatsUnknownError
		if errors.As(err, &unknown) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":    "unknown seats for this session's hall",
				"seat_ids": unknown.SeatIDs,
			})
		}
		var taken *repository.SeatsUnavailableError
		if errors.As(err, &taken) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "seats are no longer available",
				"seats": taken.SeatNumbers,
			})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one seat must be selected"})
	}

	var total uint64
	for _, seat := range selected {
		total += uint64(seat.PriceCents)
	}
	var snackItems []model.SnackItem
	if len(body.Snacks) > 0 {
		snacks, err := h.CinemaRepo.SnacksByCinemaTx(ctx, tx, session.CinemaID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load snacks"})
		}
		var snackTotal uint64
		snackItems, snackTotal, err = priceSnacks(body.Snacks, snacks)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "total price exceeds the allowed maximum"})
		}
		total += snackTotal
	}
	if total > maxTotalPriceCents {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total price exceeds the allowed maximum"})
	}

	res := &model.Reservation{
		UserID:          body.UserID,
		SessionID:       session.ID,
		Status:          status,
		TotalPriceCents: uint32(total),
	}
	// Codes are random, so a unique-key collision is rare; regenerate
	// and retry a few times before giving up.
	for attempt := 0; ; attempt++ {
		res.Code = newReservationCode()
		err := h.ReservationRepo.CreateTx(ctx, tx, res)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) && attempt < 2 {
			continue
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create reservation"})
	}
	snapshots := make([]model.SeatSnapshot, 0, len(selected))
	for i := range selected {
		snapshots = append(snapshots, model.SnapshotSeat(&selected[i]))
	}
	if err := h.ReservationRepo.CreateSeatSnapshotsTx(ctx, tx, res.ID, session.ID, snapshots); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reserve seats"})
	}
	if len(snackItems) > 0 {
		if err := h.ReservationRepo.CreateSnackItemsTx(ctx, tx, res.ID, snackItems); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add snacks"})
		}
	}
	if err := h.SessionRepo.AdjustSeatsTx(ctx, tx, session.ID, -int32(len(snapshots))); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	res.Seats = snapshots

	if h.PublishEvents {
		h.publishCreated(res, session)
	}
	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// publishCreated emits a reservation.created event in the background.
// Publishing is best effort; a broker outage never fails the booking.
func (h *ReservationHandler) publishCreated(res *model.Reservation, session *model.Session) {
	numbers := make([]string, 0, len(res.Seats))
	for _, s := range res.Seats {
		numbers = append(numbers, s.SeatNumber)
	}
	event := queue.ReservationCreatedEvent{
		ReservationID:   res.ID,
		Code:            res.Code,
		UserID:          res.UserID,
		SessionID:       session.ID,
		CinemaID:        session.CinemaID,
		HallID:          session.HallID,
		MovieID:         session.MovieID,
		Status:          res.Status,
		SeatNumbers:     numbers,
		TotalPriceCents: res.TotalPriceCents,
		CreatedAt:       res.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue_publisher.PublishReservationCreated(ctx, event); err != nil {
			log.Printf("reservation event publish failed: %v", err)
		}
	}()
}

// DeleteReservation handles DELETE /v1/reservations/:id.  The caller
// must be the owner or an admin, and the session must start more than
// 24 hours from now.  Deletion and the availability increment commit
// together under the session row lock, so a concurrent booking cannot
// observe the seats half-freed.
func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	reservationID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role := getRole(c)

	ctx := c.Request().Context()
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

	res, err := h.ReservationRepo.GetForCancelTx(ctx, tx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	session, err := h.SessionRepo.GetByIDForUpdateTx(ctx, tx, res.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session"})
	}
	if err := authorizeCancellation(res, session.StartsAt, h.Now().UTC(), callerID, role); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "reservations can only be cancelled more than 24 hours before the session",
		})
	}
	if err := h.ReservationRepo.DeleteTx(ctx, tx, res.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete reservation"})
	}
	// Only live reservations hold seats; deleting a FAILED or
	// COMPLETED record must not inflate availability.
	if model.Live(res.Status) && len(res.Seats) > 0 {
		if err := h.SessionRepo.AdjustSeatsTx(ctx, tx, session.ID, int32(len(res.Seats))); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update availability"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// ListMyReservations handles GET /v1/reservations and returns the
// caller's reservations newest first, seats included.
func (h *ReservationHandler) ListMyReservations(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.ReservationRepo.ListByUser(c.Request().Context(), callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	items := make([]reservationResp, 0, len(list))
	for i := range list {
		items = append(items, toReservationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetReservation handles GET /v1/reservations/:id for the owner or an
// admin.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	reservationID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.ReservationRepo.GetByID(c.Request().Context(), reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if res.UserID != callerID && getRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// UpdateStatus handles PATCH /v1/reservations/:id/status.  Transitions
// follow the state machine: PENDING may confirm or fail, CONFIRMED may
// complete.  Failing a PENDING reservation releases its seats, so that
// branch takes the session row lock and moves the availability counter
// in the same commit.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	reservationID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidStatus(body.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx := c.Request().Context()
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

	res, err := h.ReservationRepo.GetForCancelTx(ctx, tx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if res.UserID != callerID && getRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	prev := res.Status
	if err := res.TransitionTo(body.Status); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "cannot transition from " + res.Status + " to " + body.Status,
		})
	}
	// Leaving the live set frees the seats; serialize with bookings
	// via the session lock before touching the counter.
	if model.Live(prev) && !model.Live(res.Status) && len(res.Seats) > 0 {
		if _, err := h.SessionRepo.GetByIDForUpdateTx(ctx, tx, res.SessionID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock session"})
		}
		if err := h.SessionRepo.AdjustSeatsTx(ctx, tx, res.SessionID, int32(len(res.Seats))); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update availability"})
		}
	}
	// The update is guarded by the status read under the row lock, so a
	// racing transition updates zero rows instead of overwriting it.
	if err := h.ReservationRepo.UpdateStatusTx(ctx, tx, res.ID, prev, res.Status); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation status changed concurrently"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, toReservationResp(res))
}
