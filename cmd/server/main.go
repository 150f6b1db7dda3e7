package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/cinetix/cinema-booking/internal/cache"
	"github.com/cinetix/cinema-booking/internal/config"
	"github.com/cinetix/cinema-booking/internal/database"
	"github.com/cinetix/cinema-booking/internal/handler"
	"github.com/cinetix/cinema-booking/internal/middleware"
	"github.com/cinetix/cinema-booking/internal/queue"
	"github.com/cinetix/cinema-booking/internal/repository"
	"github.com/cinetix/cinema-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: the cache falls back to an in-process map and
	// the rate limiter disables itself.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	var store cache.Cache
	switch {
	case !cacheCfg.Enabled:
		store = nil
	case rdb != nil:
		store = cache.NewRedisCache(rdb, cacheCfg.Prefix)
	default:
		log.Println("redis unavailable, using in-memory cache")
		store = cache.NewMemoryCache()
	}

	userRepo := repository.NewUserRepo(db)
	cinemaRepo := repository.NewCinemaRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	hallRepo := repository.NewHallRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	publishEvents := os.Getenv("EVENTS_ENABLED") != "false"
	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost),
		Catalog:     handler.NewCatalogHandler(cinemaRepo, movieRepo, hallRepo),
		Browse:      handler.NewBrowseHandler(cinemaRepo, movieRepo, hallRepo, sessionRepo, store, cacheCfg.PopularityTTL),
		Session:     handler.NewSessionHandler(sessionRepo, hallRepo, movieRepo, cinemaRepo, reservationRepo),
		Reservation: handler.NewReservationHandler(reservationRepo, sessionRepo, hallRepo, cinemaRepo, userRepo, publishEvents),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	router.Register(e, handlers, cfg.JWTSecret)

	if publishEvents {
		go func() {
			if err := queue.StartReservationConsumer(); err != nil {
				log.Printf("reservation consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
