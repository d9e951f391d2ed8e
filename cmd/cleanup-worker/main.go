package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/JoyKalombo/barber-live-queue-tracker/internal/config"
	"github.com/JoyKalombo/barber-live-queue-tracker/internal/db"
	"github.com/JoyKalombo/barber-live-queue-tracker/internal/queue"
	redisclient "github.com/JoyKalombo/barber-live-queue-tracker/internal/redis"
)

// The cleanup worker deletes walk-ins left over from previous days so stale
// queue entries never bleed into today's schedule.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("cleanup-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running cleanup worker in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := queue.NewPgRepository(pgPool)
	locker := redisclient.NewRedisShopLocker(rdb, cfg.LockTTL)
	svc := queue.NewService(repo, locker)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping cleanup worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *queue.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	purged, err := svc.PurgeStaleWalkIns(runCtx)
	if err != nil {
		log.Printf("purge run error: %v", err)
		return
	}
	log.Printf("purge run complete purged=%d duration=%s", purged, time.Since(start))
}
