package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/cinema-booking/internal/model"
	"github.com/cinetix/cinema-booking/internal/repository"
)

// CatalogHandler covers the admin-only write side of the catalogue:
// cinemas, movies, halls with their seat grids, and snacks.
type CatalogHandler struct {
	CinemaRepo *repository.CinemaRepo
	MovieRepo  *repository.MovieRepo
	HallRepo   *repository.HallRepo
}

// NewCatalogHandler builds a CatalogHandler.
func NewCatalogHandler(cinemaRepo *repository.CinemaRepo, movieRepo *repository.MovieRepo, hallRepo *repository.HallRepo) *CatalogHandler {
	if cinemaRepo == nil || movieRepo == nil || hallRepo == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{CinemaRepo: cinemaRepo, MovieRepo: movieRepo, HallRepo: hallRepo}
}

// CreateCinema handles POST /v1/cinemas.
func (h *CatalogHandler) CreateCinema(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
		City string `json:"city"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	city := strings.TrimSpace(body.City)
	if name == "" || city == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city are required"})
	}
	cin := &model.Cinema{Name: name, City: city}
	if err := h.CinemaRepo.Create(c.Request().Context(), cin); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create cinema"})
	}
	return c.JSON(http.StatusCreated, cin)
}

// CreateMovie handles POST /v1/movies.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var body struct {
		Title       string `json:"title"`
		DurationMin uint32 `json:"duration_min"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if body.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_min must be positive"})
	}
	m := &model.Movie{Title: title, DurationMin: body.DurationMin}
	if err := h.MovieRepo.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create movie"})
	}
	return c.JSON(http.StatusCreated, m)
}

// hallReq is the body of POST /v1/halls.  The seat grid is generated
// server-side: rows and cols define the layout, every seat defaults to
// REGULAR at price_cents, and rows listed in vip_rows or couple_rows
// get the corresponding type and price instead.
type hallReq struct {
	CinemaID         uint64   `json:"cinema_id"`
	Name             string   `json:"name"`
	Rows             uint32   `json:"rows"`
	Cols             uint32   `json:"cols"`
	PriceCents       uint32   `json:"price_cents"`
	VIPRows          []uint32 `json:"vip_rows"`
	VIPPriceCents    uint32   `json:"vip_price_cents"`
	CoupleRows       []uint32 `json:"couple_rows"`
	CouplePriceCents uint32   `json:"couple_price_cents"`
}

// maxHallDim caps rows and columns of a hall.
const maxHallDim = 100

// buildSeatGrid expands a hall request into its row-major seat list.
// Seat numbers follow the alphabetical row label convention: row 1
// column 3 is "A3".
func buildSeatGrid(hallID uint64, req *hallReq) []model.Seat {
	vip := make(map[uint32]struct{}, len(req.VIPRows))
	for _, r := range req.VIPRows {
		vip[r] = struct{}{}
	}
	couple := make(map[uint32]struct{}, len(req.CoupleRows))
	for _, r := range req.CoupleRows {
		couple[r] = struct{}{}
	}
	seats := make([]model.Seat, 0, req.Rows*req.Cols)
	for row := uint32(1); row <= req.Rows; row++ {
		seatType := model.SeatRegular
		price := req.PriceCents
		if _, ok := vip[row]; ok {
			seatType = model.SeatVIP
			price = req.VIPPriceCents
		} else if _, ok := couple[row]; ok {
			seatType = model.SeatCouple
			price = req.CouplePriceCents
		}
		for col := uint32(1); col <= req.Cols; col++ {
			seats = append(seats, model.Seat{
				HallID:     hallID,
				RowNum:     row,
				ColNum:     col,
				SeatNumber: seatNumberFor(row, col),
				SeatType:   seatType,
				PriceCents: price,
			})
		}
	}
	return seats
}

// CreateHall handles POST /v1/halls.  The hall row and its full seat
// grid are inserted in one transaction so a hall can never exist with a
// partial layout.
func (h *CatalogHandler) CreateHall(c echo.Context) error {
	var body hallReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.CinemaID == 0 || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cinema_id and name are required"})
	}
	if body.Rows == 0 || body.Cols == 0 || body.Rows > maxHallDim || body.Cols > maxHallDim {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rows and cols must be between 1 and 100"})
	}
	if body.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be positive"})
	}
	if len(body.VIPRows) > 0 && body.VIPPriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vip_price_cents is required with vip_rows"})
	}
	if len(body.CoupleRows) > 0 && body.CouplePriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "couple_price_cents is required with couple_rows"})
	}
	ctx := c.Request().Context()
	if _, err := h.CinemaRepo.GetByID(ctx, body.CinemaID); err != nil {
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify cinema"})
	}

	tx, err := h.HallRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	hall := &model.Hall{
		CinemaID: body.CinemaID,
		Name:     body.Name,
		SeatRows: body.Rows,
		SeatCols: body.Cols,
	}
	if err := h.HallRepo.Create(ctx, tx, hall); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create hall"})
	}
	seats := buildSeatGrid(hall.ID, &body)
	if err := h.HallRepo.CreateSeatsBulk(ctx, tx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create seats"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"id":         hall.ID,
		"cinema_id":  hall.CinemaID,
		"name":       hall.Name,
		"rows":       hall.SeatRows,
		"cols":       hall.SeatCols,
		"seat_count": len(seats),
	})
}

// CreateSnack handles POST /v1/cinemas/:id/snacks.
func (h *CatalogHandler) CreateSnack(c echo.Context) error {
	cinemaID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cinema id"})
	}
	var body struct {
		Name       string `json:"name"`
		PriceCents uint32 `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || body.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive price_cents are required"})
	}
	ctx := c.Request().Context()
	if _, err := h.CinemaRepo.GetByID(ctx, cinemaID); err != nil {
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify cinema"})
	}
	s := &model.Snack{CinemaID: cinemaID, Name: name, PriceCents: body.PriceCents}
	if err := h.CinemaRepo.CreateSnack(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create snack"})
	}
	return c.JSON(http.StatusCreated, s)
}
