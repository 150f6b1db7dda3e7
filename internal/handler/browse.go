package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/cinema-booking/internal/cache"
	"github.com/cinetix/cinema-booking/internal/repository"
)

// BrowseHandler serves the public read side: cinemas, movies, halls,
// sessions, snacks and the popularity ranking.  The ranking query joins
// across three tables, so its result goes through the cache layer with
// a short TTL instead of hitting the database on every request.
type BrowseHandler struct {
	CinemaRepo  *repository.CinemaRepo
	MovieRepo   *repository.MovieRepo
	HallRepo    *repository.HallRepo
	SessionRepo *repository.SessionRepo

	Cache         cache.Cache
	PopularityTTL time.Duration
}

// NewBrowseHandler builds a BrowseHandler.  store may be nil; the
// popularity endpoint then queries the database directly.
func NewBrowseHandler(cinemaRepo *repository.CinemaRepo, movieRepo *repository.MovieRepo, hallRepo *repository.HallRepo, sessionRepo *repository.SessionRepo, store cache.Cache, popularityTTL time.Duration) *BrowseHandler {
	if cinemaRepo == nil || movieRepo == nil || hallRepo == nil || sessionRepo == nil {
		panic("nil repository passed to NewBrowseHandler")
	}
	return &BrowseHandler{
		CinemaRepo:    cinemaRepo,
		MovieRepo:     movieRepo,
		HallRepo:      hallRepo,
		SessionRepo:   sessionRepo,
		Cache:         store,
		PopularityTTL: popularityTTL,
	}
}

// ListCinemas handles GET /v1/cinemas.
func (h *BrowseHandler) ListCinemas(c echo.Context) error {
	list, err := h.CinemaRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cinemas"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ListMovies handles GET /v1/movies.
func (h *BrowseHandler) ListMovies(c echo.Context) error {
	list, err := h.MovieRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ListHalls handles GET /v1/cinemas/:id/halls.
func (h *BrowseHandler) ListHalls(c echo.Context) error {
	cinemaID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cinema id"})
	}
	ctx := c.Request().Context()
	if _, err := h.CinemaRepo.GetByID(ctx, cinemaID); err != nil {
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify cinema"})
	}
	list, err := h.HallRepo.ListByCinema(ctx, cinemaID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load halls"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ListSessions handles GET /v1/halls/:id/sessions.
func (h *BrowseHandler) ListSessions(c echo.Context) error {
	hallID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hall id"})
	}
	ctx := c.Request().Context()
	if _, err := h.HallRepo.GetByID(ctx, hallID); err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify hall"})
	}
	list, err := h.SessionRepo.ListByHall(ctx, hallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load sessions"})
	}
	items := make([]sessionResp, 0, len(list))
	for i := range list {
		items = append(items, toSessionResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListSnacks handles GET /v1/cinemas/:id/snacks.
func (h *BrowseHandler) ListSnacks(c echo.Context) error {
	cinemaID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cinema id"})
	}
	ctx := c.Request().Context()
	if _, err := h.CinemaRepo.GetByID(ctx, cinemaID); err != nil {
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify cinema"})
	}
	list, err := h.CinemaRepo.SnacksByCinema(ctx, cinemaID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load snacks"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// defaultPopularLimit bounds GET /v1/movies/popular when no limit is
// given.
const defaultPopularLimit = 10

// PopularMovies handles GET /v1/movies/popular.  The ranking counts
// live reservations per movie.  Responses are cached per limit value;
// a slightly stale ranking is acceptable, so the TTL trades freshness
// for load.
func (h *BrowseHandler) PopularMovies(c echo.Context) error {
	limit := defaultPopularLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 100"})
		}
		limit = n
	}
	ctx := c.Request().Context()
	compute := func(ctx context.Context) ([]byte, error) {
		ranking, err := h.MovieRepo.PopularityRanking(ctx, limit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(echo.Map{"items": ranking})
	}
	var (
		payload []byte
		err     error
	)
	if h.Cache != nil {
		payload, err = h.Cache.GetOrCompute(ctx, "movies:popular:"+strconv.Itoa(limit), h.PopularityTTL, compute)
	} else {
		payload, err = compute(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load popularity ranking"})
	}
	return c.JSONBlob(http.StatusOK, payload)
}
