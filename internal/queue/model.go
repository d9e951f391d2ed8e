package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JoyKalombo/barber-live-queue-tracker/internal/schedule"
)

// Shop is one tenant: its own queue, bookings and opening hours.
type Shop struct {
	ID          string
	Name        string
	OpenHour    int
	CloseHour   int
	SlotMinutes int
	Timezone    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScheduleConfig resolves the shop's timezone and returns the allocator
// configuration. An unknown timezone is a configuration error, not a
// scheduling one.
func (s *Shop) ScheduleConfig() (schedule.Config, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return schedule.Config{}, fmt.Errorf("%w: unknown timezone %q", schedule.ErrInvalidConfig, s.Timezone)
	}
	cfg := schedule.Config{
		OpenHour:    s.OpenHour,
		CloseHour:   s.CloseHour,
		SlotMinutes: s.SlotMinutes,
		Location:    loc,
	}
	if err := cfg.Validate(); err != nil {
		return schedule.Config{}, err
	}
	return cfg, nil
}

type WalkIn struct {
	ID        uuid.UUID
	ShopID    string
	Name      string
	JoinedAt  time.Time
	CreatedAt time.Time
}

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
)

type Booking struct {
	ID        uuid.UUID
	ShopID    string
	Name      string
	Phone     *string
	Slot      time.Time
	Status    BookingStatus
	CreatedAt time.Time
}

var nameCaser = cases.Title(language.Und)

// NormalizeName trims and title-cases a customer name. The duplicate guard
// compares normalized names, so "alice" and "Alice " are the same person.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return nameCaser.String(strings.ToLower(name))
}

func toScheduleWalkIns(walkins []WalkIn) []schedule.WalkIn {
	out := make([]schedule.WalkIn, 0, len(walkins))
	for _, w := range walkins {
		out = append(out, schedule.WalkIn{ID: w.ID.String(), Name: w.Name, JoinedAt: w.JoinedAt})
	}
	return out
}

func toScheduleBookings(bookings []Booking) []schedule.Booking {
	out := make([]schedule.Booking, 0, len(bookings))
	for _, b := range bookings {
		phone := ""
		if b.Phone != nil {
			phone = *b.Phone
		}
		out = append(out, schedule.Booking{ID: b.ID.String(), Name: b.Name, Phone: phone, Slot: b.Slot})
	}
	return out
}
