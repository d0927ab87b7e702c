package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/router"
)

func main() {
	// Load .env if present; real deployments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs the rate limiter and the response cache.  A nil client
	// disables both middlewares rather than failing startup.
	rdb := config.NewRedisClient()

	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	allocator := booking.NewAllocator(tables, reservations)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	reservationHandler := handler.NewReservationHandler(allocator, tables, reservations)
	adminReservations := handler.NewAdminReservationHandler(allocator, reservations, tables)
	adminTables := handler.NewAdminTableHandler(allocator, tables)

	e := echo.New()

	var rateMW, cacheMW echo.MiddlewareFunc
	if rdb != nil {
		rateMW = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	router.RegisterRoutes(e)
	if rateMW != nil {
		router.RegisterAuth(e, authHandler, cfg.JWTSecret, rateMW)
		router.RegisterCustomer(e, reservationHandler, cfg.JWTSecret, rateMW)
		router.RegisterAdmin(e, adminReservations, adminTables, cfg.JWTSecret, cacheMW, rateMW)
	} else {
		router.RegisterAuth(e, authHandler, cfg.JWTSecret)
		router.RegisterCustomer(e, reservationHandler, cfg.JWTSecret)
		router.RegisterAdmin(e, adminReservations, adminTables, cfg.JWTSecret, cacheMW)
	}

	// Consume booking events in the background; the consumer reconnects
	// on its own and never takes the server down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
