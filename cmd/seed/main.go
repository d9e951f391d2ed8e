package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JoyKalombo/barber-live-queue-tracker/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := ensureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	shopIDs, err := seedShops(context.Background(), pool, 5)
	if err != nil {
		log.Fatalf("seed shops: %v", err)
	}
	if err := seedQueues(context.Background(), pool, shopIDs); err != nil {
		log.Fatalf("seed queues: %v", err)
	}

	log.Println("seed complete")
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shops (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			open_hour INT NOT NULL,
			close_hour INT NOT NULL,
			slot_minutes INT NOT NULL,
			timezone TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS walkins (
			id UUID PRIMARY KEY,
			shop_id TEXT NOT NULL REFERENCES shops(id),
			name TEXT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS walkins_shop_joined_idx ON walkins (shop_id, joined_at)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			shop_id TEXT NOT NULL REFERENCES shops(id),
			name TEXT NOT NULL,
			phone TEXT,
			slot TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS bookings_shop_slot_idx ON bookings (shop_id, slot)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func seedShops(ctx context.Context, pool *pgxpool.Pool, count int) ([]string, error) {
	log.Printf("seeding %d shops", count)

	timezones := []string{
		"Europe/London",
		"Europe/Berlin",
		"America/New_York",
		"Africa/Lagos",
		"UTC",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ids []string
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s %s", gofakeit.LastName(), gofakeit.RandomString([]string{"Cuts", "Fades", "Barbers", "Grooming"}))
		id := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]
		openHour := gofakeit.Number(8, 10)
		closeHour := gofakeit.Number(17, 22)
		slot := gofakeit.RandomInt([]int{20, 25, 30})

		_, err := tx.Exec(ctx, `
			INSERT INTO shops (id, name, open_hour, close_hour, slot_minutes, timezone, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, id, name, openHour, closeHour, slot, tz)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("shops seeded")
	return ids, nil
}

func seedQueues(ctx context.Context, pool *pgxpool.Pool, shopIDs []string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, shopID := range shopIDs {
		walkins := gofakeit.Number(0, 6)
		for i := 0; i < walkins; i++ {
			joined := now.Add(-time.Duration(gofakeit.Number(1, 120)) * time.Minute)
			_, err := tx.Exec(ctx, `
				INSERT INTO walkins (id, shop_id, name, joined_at, created_at)
				VALUES ($1, $2, $3, $4, now())
			`, uuid.New(), shopID, gofakeit.Name(), joined)
			if err != nil {
				return err
			}
		}

		bookings := gofakeit.Number(0, 4)
		for i := 0; i < bookings; i++ {
			// Rough future slots; overlapping seeds are fine, the allocator
			// treats bookings as authoritative either way.
			slot := now.Truncate(time.Hour).Add(time.Duration(gofakeit.Number(1, 8)) * time.Hour)
			phone := gofakeit.Phone()
			_, err := tx.Exec(ctx, `
				INSERT INTO bookings (id, shop_id, name, phone, slot, status, created_at)
				VALUES ($1, $2, $3, $4, $5, 'confirmed', now())
			`, uuid.New(), shopID, gofakeit.Name(), phone, slot)
			if err != nil {
				return err
			}
		}

		log.Printf("seeded shop=%s walkins=%d bookings=%d", shopID, walkins, bookings)
	}

	return tx.Commit(ctx)
}
