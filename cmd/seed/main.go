package main // Seeds the database with an administrator account and a starter table layout.

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// starterTables is the default dining-room layout applied when the
// catalog is empty: a mix of two-tops through an eight-top.
var starterTables = []model.Table{
	{TableNumber: 1, Capacity: 2},
	{TableNumber: 2, Capacity: 2},
	{TableNumber: 3, Capacity: 4},
	{TableNumber: 4, Capacity: 4},
	{TableNumber: 5, Capacity: 4},
	{TableNumber: 6, Capacity: 6},
	{TableNumber: 7, Capacity: 6},
	{TableNumber: 8, Capacity: 8},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seedAdmin(ctx, repository.NewUserRepo(db), cfg)
	seedTables(ctx, repository.NewTableRepo(db))
}

// seedAdmin creates the administrator account named by ADMIN_EMAIL and
// ADMIN_PASSWORD.  Registration over the API always produces CUSTOMER
// accounts, so this is the only way an ADMIN comes into existence.
func seedAdmin(ctx context.Context, users *repository.UserRepo, cfg config.Config) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set; skipping admin seed")
		return
	}
	if _, err := users.GetByEmail(ctx, email); err == nil {
		log.Printf("admin %s already exists; skipping", email)
		return
	}
	id, err := users.Create(ctx, email, password, "ADMIN", cfg.BcryptCost)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("created admin %s (id=%d)", email, id)
}

// seedTables inserts the starter layout, but only into an empty catalog
// so reruns never disturb a configured dining room.
func seedTables(ctx context.Context, tables *repository.TableRepo) {
	n, err := tables.Count(ctx)
	if err != nil {
		log.Fatalf("count tables: %v", err)
	}
	if n > 0 {
		log.Printf("catalog already has %d tables; skipping table seed", n)
		return
	}
	for i := range starterTables {
		t := starterTables[i]
		if err := tables.Create(ctx, &t); err != nil {
			log.Fatalf("create table %d: %v", t.TableNumber, err)
		}
	}
	log.Printf("seeded %d tables", len(starterTables))
}
