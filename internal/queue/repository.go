package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrShopNotFound    = errors.New("shop not found")
	ErrShopExists      = errors.New("shop already exists")
	ErrWalkInNotFound  = errors.New("walk-in not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// Repository contains all DB interactions needed by the service. List calls
// take a half-open [from, to) window so the allocator only ever sees the
// target day in the shop's timezone.
type Repository interface {
	CreateShop(ctx context.Context, shop Shop) (*Shop, error)
	GetShopByID(ctx context.Context, id string) (*Shop, error)
	ListShops(ctx context.Context) ([]Shop, error)

	CreateWalkIn(ctx context.Context, shopID, name string, joinedAt time.Time) (*WalkIn, error)
	ListWalkIns(ctx context.Context, shopID string, from, to time.Time) ([]WalkIn, error)
	DeleteWalkIn(ctx context.Context, shopID string, id uuid.UUID) error

	// For the cleanup worker
	DeleteWalkInsBefore(ctx context.Context, shopID string, cutoff time.Time) (int64, error)

	CreateBooking(ctx context.Context, shopID, name string, phone *string, slot time.Time) (*Booking, error)
	ListBookings(ctx context.Context, shopID string, from, to time.Time) ([]Booking, error)
	DeleteBooking(ctx context.Context, shopID string, id uuid.UUID) error
}
