package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/JoyKalombo/barber-live-queue-tracker/internal/redis"
	"github.com/JoyKalombo/barber-live-queue-tracker/internal/schedule"
)

var (
	ErrNameRequired = errors.New("name is required")

	// ErrAlreadyQueued means a walk-in with the same name is still waiting.
	ErrAlreadyQueued = errors.New("already in the queue")

	// ErrDuplicateBooking means an identical (slot, contact) booking exists.
	ErrDuplicateBooking = errors.New("an identical booking already exists")

	// ErrSlotTaken means the requested slot was claimed between the caller's
	// availability check and the commit.
	ErrSlotTaken = errors.New("slot taken, please retry")

	// ErrShopBusy means the shop lock could not be acquired even after a retry.
	ErrShopBusy = errors.New("shop is busy, please retry")

	ErrSlotOutsideHours = errors.New("slot is outside business hours")
	ErrSlotInPast       = errors.New("slot is in the past")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// JoinResult is the kiosk confirmation: where in line the customer is and
// when they can expect their cut.
type JoinResult struct {
	WalkIn      *WalkIn
	Position    int
	Start       time.Time
	End         time.Time
	WaitMinutes int
}

// DaySchedule is the merged queue for one shop-day.
type DaySchedule struct {
	Shop    *Shop
	Day     time.Time
	Entries []schedule.Entry
	Skipped int
}

// dayWindow returns the half-open [midnight, next midnight) window containing
// day, in the shop's timezone.
func dayWindow(cfg schedule.Config, day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(cfg.Location).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, cfg.Location)
	return from, from.AddDate(0, 0, 1)
}

func (s *Service) loadDay(ctx context.Context, shopID string, cfg schedule.Config, day time.Time) ([]WalkIn, []Booking, error) {
	from, to := dayWindow(cfg, day)
	walkins, err := s.repo.ListWalkIns(ctx, shopID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("list walk-ins: %w", err)
	}
	bookings, err := s.repo.ListBookings(ctx, shopID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("list bookings: %w", err)
	}
	return walkins, bookings, nil
}

// withShopLock runs fn under the per-shop lock, retrying once when another
// writer holds it. The read-compute-commit sequence inside fn always sees
// fresh records, which closes the race where two customers both decide the
// same slot is free.
func (s *Service) withShopLock(ctx context.Context, shopID string, fn func(ctx context.Context) error) error {
	err := s.locker.WithShopLock(ctx, shopID, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		err = s.locker.WithShopLock(ctx, shopID, fn)
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return ErrShopBusy
		}
	}
	return err
}

// JoinWalkIn adds a customer to today's queue and reports their computed slot.
func (s *Service) JoinWalkIn(ctx context.Context, shopID, name string) (*JoinResult, error) {
	shop, err := s.repo.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	cfg, err := shop.ScheduleConfig()
	if err != nil {
		return nil, err
	}

	name = NormalizeName(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var result *JoinResult
	err = s.withShopLock(ctx, shop.ID, func(ctx context.Context) error {
		now := s.now().In(cfg.Location)

		walkins, bookings, err := s.loadDay(ctx, shop.ID, cfg, now)
		if err != nil {
			return err
		}
		for _, w := range walkins {
			if strings.EqualFold(w.Name, name) {
				return ErrAlreadyQueued
			}
		}

		slot, err := schedule.NextFreeSlot(cfg, now, now,
			toScheduleWalkIns(walkins), toScheduleBookings(bookings), schedule.SourceWalkIn)
		if err != nil {
			return err
		}

		created, err := s.repo.CreateWalkIn(ctx, shop.ID, name, now)
		if err != nil {
			return fmt.Errorf("create walk-in: %w", err)
		}

		wait := int(slot.Sub(now).Minutes())
		if wait < 0 {
			wait = 0
		}
		result = &JoinResult{
			WalkIn:      created,
			Position:    len(walkins) + 1,
			Start:       slot,
			End:         slot.Add(cfg.SlotDuration()),
			WaitMinutes: wait,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateBooking reserves an exact slot. The slot is re-validated against the
// freshly loaded occupied set inside the shop lock right before the insert.
func (s *Service) CreateBooking(ctx context.Context, shopID, name string, phone *string, slot time.Time) (*Booking, error) {
	shop, err := s.repo.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	cfg, err := shop.ScheduleConfig()
	if err != nil {
		return nil, err
	}

	name = NormalizeName(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	slot = slot.In(cfg.Location)
	if slot.Before(cfg.OpenAt(slot)) || slot.Add(cfg.SlotDuration()).After(cfg.CloseAt(slot)) {
		return nil, ErrSlotOutsideHours
	}

	var created *Booking
	err = s.withShopLock(ctx, shop.ID, func(ctx context.Context) error {
		now := s.now().In(cfg.Location)
		if slot.Before(now) {
			return ErrSlotInPast
		}

		walkins, bookings, err := s.loadDay(ctx, shop.ID, cfg, slot)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if b.Slot.Equal(slot) && sameContact(b, name, phone) {
				return ErrDuplicateBooking
			}
		}

		free, err := schedule.IsFree(cfg, now, slot,
			toScheduleWalkIns(walkins), toScheduleBookings(bookings), slot)
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotTaken
		}

		created, err = s.repo.CreateBooking(ctx, shop.ID, name, phone, slot)
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// sameContact matches the duplicate-booking guard: same phone when both have
// one, otherwise same normalized name.
func sameContact(b Booking, name string, phone *string) bool {
	if b.Phone != nil && phone != nil {
		return *b.Phone == *phone
	}
	return strings.EqualFold(b.Name, name)
}

// Schedule computes the merged walk-in/booking schedule for a shop-day.
func (s *Service) Schedule(ctx context.Context, shopID string, day time.Time) (*DaySchedule, error) {
	shop, err := s.repo.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	cfg, err := shop.ScheduleConfig()
	if err != nil {
		return nil, err
	}

	now := s.now().In(cfg.Location)
	if day.IsZero() {
		day = now
	}

	walkins, bookings, err := s.loadDay(ctx, shopID, cfg, day)
	if err != nil {
		return nil, err
	}

	sched, err := schedule.Build(cfg, now, day,
		toScheduleWalkIns(walkins), toScheduleBookings(bookings))
	if err != nil {
		return nil, err
	}
	if sched.Skipped > 0 || sched.Unplaced > 0 {
		log.Printf("schedule degraded shop=%s skipped=%d unplaced=%d", shopID, sched.Skipped, sched.Unplaced)
	}

	return &DaySchedule{Shop: shop, Day: cfg.OpenAt(day), Entries: sched.Entries, Skipped: sched.Skipped}, nil
}

// AvailableSlots returns the free booking grid for a shop-day.
func (s *Service) AvailableSlots(ctx context.Context, shopID string, day time.Time) ([]time.Time, error) {
	shop, err := s.repo.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	cfg, err := shop.ScheduleConfig()
	if err != nil {
		return nil, err
	}

	now := s.now().In(cfg.Location)
	if day.IsZero() {
		day = now
	}

	walkins, bookings, err := s.loadDay(ctx, shopID, cfg, day)
	if err != nil {
		return nil, err
	}
	return schedule.FreeSlots(cfg, now, day,
		toScheduleWalkIns(walkins), toScheduleBookings(bookings))
}

// NextSlot answers the next-free-slot query for a new entry of the given kind.
func (s *Service) NextSlot(ctx context.Context, shopID string, day time.Time, kind schedule.Source) (time.Time, error) {
	shop, err := s.repo.GetShopByID(ctx, shopID)
	if err != nil {
		return time.Time{}, err
	}
	cfg, err := shop.ScheduleConfig()
	if err != nil {
		return time.Time{}, err
	}

	now := s.now().In(cfg.Location)
	if day.IsZero() {
		day = now
	}

	walkins, bookings, err := s.loadDay(ctx, shopID, cfg, day)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.NextFreeSlot(cfg, now, day,
		toScheduleWalkIns(walkins), toScheduleBookings(bookings), kind)
}

// ServeWalkIn removes a walk-in from the queue (admin ticked them off).
func (s *Service) ServeWalkIn(ctx context.Context, shopID string, id uuid.UUID) error {
	return s.repo.DeleteWalkIn(ctx, shopID, id)
}

// CancelBooking removes a booking (cancelled or completed).
func (s *Service) CancelBooking(ctx context.Context, shopID string, id uuid.UUID) error {
	return s.repo.DeleteBooking(ctx, shopID, id)
}

// ListBookings returns a shop's bookings for one day.
func (s *Service) ListBookings(ctx context.Context, shopID string, day time.Time) ([]Booking, error) {
	shop, err := s.repo.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	cfg, err := shop.ScheduleConfig()
	if err != nil {
		return nil, err
	}
	if day.IsZero() {
		day = s.now().In(cfg.Location)
	}
	from, to := dayWindow(cfg, day)
	return s.repo.ListBookings(ctx, shopID, from, to)
}

type CreateShopParams struct {
	ID          string
	Name        string
	OpenHour    int
	CloseHour   int
	SlotMinutes int
	Timezone    string
}

// CreateShop onboards a new tenant. The configuration is validated up front
// so a broken shop never reaches the allocator.
func (s *Service) CreateShop(ctx context.Context, params CreateShopParams) (*Shop, error) {
	id := strings.TrimSpace(params.ID)
	if id == "" {
		return nil, errors.New("shop id is required")
	}

	shop := Shop{
		ID:          id,
		Name:        strings.TrimSpace(params.Name),
		OpenHour:    params.OpenHour,
		CloseHour:   params.CloseHour,
		SlotMinutes: params.SlotMinutes,
		Timezone:    params.Timezone,
	}
	if shop.Name == "" {
		shop.Name = id
	}
	if shop.SlotMinutes == 0 {
		shop.SlotMinutes = 25
	}
	if shop.Timezone == "" {
		shop.Timezone = "UTC"
	}
	if _, err := shop.ScheduleConfig(); err != nil {
		return nil, err
	}

	return s.repo.CreateShop(ctx, shop)
}

func (s *Service) GetShop(ctx context.Context, id string) (*Shop, error) {
	return s.repo.GetShopByID(ctx, id)
}

func (s *Service) ListShops(ctx context.Context) ([]Shop, error) {
	return s.repo.ListShops(ctx)
}

// PurgeStaleWalkIns deletes walk-ins left over from previous days, shop by
// shop in each shop's own timezone. Run periodically by the cleanup worker.
func (s *Service) PurgeStaleWalkIns(ctx context.Context) (int64, error) {
	shops, err := s.repo.ListShops(ctx)
	if err != nil {
		return 0, fmt.Errorf("list shops: %w", err)
	}

	var total int64
	for _, shop := range shops {
		cfg, err := shop.ScheduleConfig()
		if err != nil {
			log.Printf("skipping purge for shop %s: %v", shop.ID, err)
			continue
		}
		startOfToday, _ := dayWindow(cfg, s.now().In(cfg.Location))

		n, err := s.repo.DeleteWalkInsBefore(ctx, shop.ID, startOfToday)
		if err != nil {
			log.Printf("purge failed for shop %s: %v", shop.ID, err)
			continue
		}
		if n > 0 {
			log.Printf("purged stale walk-ins shop=%s count=%d", shop.ID, n)
		}
		total += n
	}
	return total, nil
}
