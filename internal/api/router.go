package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/JoyKalombo/barber-live-queue-tracker/internal/queue"
	"github.com/JoyKalombo/barber-live-queue-tracker/internal/schedule"
)

// QueueService is the part of the queue service the handlers use.
type QueueService interface {
	CreateShop(ctx context.Context, params queue.CreateShopParams) (*queue.Shop, error)
	GetShop(ctx context.Context, id string) (*queue.Shop, error)
	ListShops(ctx context.Context) ([]queue.Shop, error)

	JoinWalkIn(ctx context.Context, shopID, name string) (*queue.JoinResult, error)
	ServeWalkIn(ctx context.Context, shopID string, id uuid.UUID) error

	CreateBooking(ctx context.Context, shopID, name string, phone *string, slot time.Time) (*queue.Booking, error)
	ListBookings(ctx context.Context, shopID string, day time.Time) ([]queue.Booking, error)
	CancelBooking(ctx context.Context, shopID string, id uuid.UUID) error

	Schedule(ctx context.Context, shopID string, day time.Time) (*queue.DaySchedule, error)
	AvailableSlots(ctx context.Context, shopID string, day time.Time) ([]time.Time, error)
	NextSlot(ctx context.Context, shopID string, day time.Time, kind schedule.Source) (time.Time, error)
}

type RouterConfig struct {
	Service QueueService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/shops", createShopHandler(cfg.Service))
	r.Get("/shops", listShopsHandler(cfg.Service))
	r.Get("/shops/{shopID}", getShopHandler(cfg.Service))

	r.Get("/shops/{shopID}/schedule", scheduleHandler(cfg.Service))
	r.Get("/shops/{shopID}/slots", availableSlotsHandler(cfg.Service))
	r.Get("/shops/{shopID}/slots/next", nextSlotHandler(cfg.Service))

	r.Post("/shops/{shopID}/walkins", joinQueueHandler(cfg.Service))
	r.Delete("/shops/{shopID}/walkins/{id}", serveWalkInHandler(cfg.Service))

	r.Post("/shops/{shopID}/bookings", createBookingHandler(cfg.Service))
	r.Get("/shops/{shopID}/bookings", listBookingsHandler(cfg.Service))
	r.Delete("/shops/{shopID}/bookings/{id}", cancelBookingHandler(cfg.Service))

	return r
}
