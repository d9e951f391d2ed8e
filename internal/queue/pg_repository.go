package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanShop(row pgx.Row) (*Shop, error) {
	var s Shop

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.OpenHour,
		&s.CloseHour,
		&s.SlotMinutes,
		&s.Timezone,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanWalkIn(row pgx.Row) (*WalkIn, error) {
	var w WalkIn

	err := row.Scan(
		&w.ID,
		&w.ShopID,
		&w.Name,
		&w.JoinedAt,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalkInNotFound
		}
		return nil, err
	}

	return &w, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var phone *string

	err := row.Scan(
		&b.ID,
		&b.ShopID,
		&b.Name,
		&phone,
		&b.Slot,
		&b.Status,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Phone = phone
	return &b, nil
}

// Interface methods

func (r *PgRepository) CreateShop(ctx context.Context, shop Shop) (*Shop, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO shops (id, name, open_hour, close_hour, slot_minutes, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, open_hour, close_hour, slot_minutes, timezone, created_at, updated_at
	`, shop.ID, shop.Name, shop.OpenHour, shop.CloseHour, shop.SlotMinutes, shop.Timezone)

	created, err := scanShop(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrShopExists
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetShopByID(ctx context.Context, id string) (*Shop, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, open_hour, close_hour, slot_minutes, timezone, created_at, updated_at
		FROM shops
		WHERE id = $1
	`, id)
	return scanShop(row)
}

func (r *PgRepository) ListShops(ctx context.Context) ([]Shop, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, open_hour, close_hour, slot_minutes, timezone, created_at, updated_at
		FROM shops
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shops []Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, *s)
	}
	return shops, rows.Err()
}

func (r *PgRepository) CreateWalkIn(ctx context.Context, shopID, name string, joinedAt time.Time) (*WalkIn, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO walkins (id, shop_id, name, joined_at, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, shop_id, name, joined_at, created_at
	`, uuid.New(), shopID, name, joinedAt)
	return scanWalkIn(row)
}

func (r *PgRepository) ListWalkIns(ctx context.Context, shopID string, from, to time.Time) ([]WalkIn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, shop_id, name, joined_at, created_at
		FROM walkins
		WHERE shop_id = $1 AND joined_at >= $2 AND joined_at < $3
		ORDER BY joined_at ASC
	`, shopID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var walkins []WalkIn
	for rows.Next() {
		w, err := scanWalkIn(rows)
		if err != nil {
			return nil, err
		}
		walkins = append(walkins, *w)
	}
	return walkins, rows.Err()
}

func (r *PgRepository) DeleteWalkIn(ctx context.Context, shopID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM walkins WHERE shop_id = $1 AND id = $2
	`, shopID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWalkInNotFound
	}
	return nil
}

func (r *PgRepository) DeleteWalkInsBefore(ctx context.Context, shopID string, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM walkins WHERE shop_id = $1 AND joined_at < $2
	`, shopID, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) CreateBooking(ctx context.Context, shopID, name string, phone *string, slot time.Time) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, shop_id, name, phone, slot, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, shop_id, name, phone, slot, status, created_at
	`, uuid.New(), shopID, name, phone, slot, StatusConfirmed)
	return scanBooking(row)
}

func (r *PgRepository) ListBookings(ctx context.Context, shopID string, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, shop_id, name, phone, slot, status, created_at
		FROM bookings
		WHERE shop_id = $1 AND slot >= $2 AND slot < $3
		ORDER BY slot ASC
	`, shopID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PgRepository) DeleteBooking(ctx context.Context, shopID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM bookings WHERE shop_id = $1 AND id = $2
	`, shopID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}
