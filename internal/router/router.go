// Package router registers the HTTP routes of the API and attaches the
// authentication and role middleware each group needs.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetix/cinema-booking/internal/handler"
	"github.com/cinetix/cinema-booking/internal/middleware"
	"github.com/cinetix/cinema-booking/internal/model"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth        *handler.AuthHandler
	Catalog     *handler.CatalogHandler
	Browse      *handler.BrowseHandler
	Session     *handler.SessionHandler
	Reservation *handler.ReservationHandler
}

// Register attaches all routes to the Echo instance.  Three tiers
// exist: public browse endpoints with no middleware, authenticated
// endpoints behind JWTAuth, and admin endpoints additionally behind
// RequireRole(ADMIN).
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	// Registration and login issue tokens, so they sit outside the
	// authenticated group.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)

	// Public browse tier: guests can explore the catalogue and check
	// seat availability before registering.
	e.GET("/v1/cinemas", h.Browse.ListCinemas)
	e.GET("/v1/cinemas/:id/halls", h.Browse.ListHalls)
	e.GET("/v1/cinemas/:id/snacks", h.Browse.ListSnacks)
	e.GET("/v1/movies", h.Browse.ListMovies)
	e.GET("/v1/movies/popular", h.Browse.PopularMovies)
	e.GET("/v1/halls/:id/sessions", h.Browse.ListSessions)
	e.GET("/v1/sessions/:id/seat-layout", h.Session.GetSeatLayout)
	e.GET("/v1/sessions/:id/reserved-seats", h.Session.GetReservedSeats)

	// Authenticated tier: any logged-in user.
	authed := e.Group("/v1")
	authed.Use(middleware.JWTAuth(jwtSecret))
	authed.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/reservations", h.Reservation.CreateReservation)
	authed.GET("/reservations", h.Reservation.ListMyReservations)
	authed.GET("/reservations/:id", h.Reservation.GetReservation)
	authed.DELETE("/reservations/:id", h.Reservation.DeleteReservation)

	// Admin tier: catalogue writes, session scheduling and the payment
	// status machine.
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.PATCH("/reservations/:id/status", h.Reservation.UpdateStatus)
	admin.POST("/cinemas", h.Catalog.CreateCinema)
	admin.POST("/cinemas/:id/snacks", h.Catalog.CreateSnack)
	admin.POST("/movies", h.Catalog.CreateMovie)
	admin.POST("/halls", h.Catalog.CreateHall)
	admin.POST("/sessions", h.Session.CreateSession)
}
