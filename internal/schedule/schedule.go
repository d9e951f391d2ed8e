package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInvalidConfig means the shop's hours/duration cannot produce a schedule at all.
	// It is distinct from ErrNoCapacity: a valid shop can still be fully booked.
	ErrInvalidConfig = errors.New("invalid shop schedule configuration")

	// ErrNoCapacity means no free slot exists before closing on the requested day.
	ErrNoCapacity = errors.New("no slots available for this date")
)

type Source string

const (
	SourceWalkIn  Source = "walkin"
	SourceBooking Source = "booking"
)

// Config is the per-shop scheduling configuration. Hours are shop-local;
// Location is the shop's IANA timezone and all comparisons happen in it.
type Config struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
	Location    *time.Location
}

func (c Config) Validate() error {
	if c.Location == nil {
		return fmt.Errorf("%w: missing timezone", ErrInvalidConfig)
	}
	if c.OpenHour < 0 || c.OpenHour > 23 {
		return fmt.Errorf("%w: open hour %d out of range", ErrInvalidConfig, c.OpenHour)
	}
	if c.CloseHour < 0 || c.CloseHour > 23 {
		return fmt.Errorf("%w: close hour %d out of range", ErrInvalidConfig, c.CloseHour)
	}
	if c.CloseHour <= c.OpenHour {
		return fmt.Errorf("%w: close hour %d not after open hour %d", ErrInvalidConfig, c.CloseHour, c.OpenHour)
	}
	if c.SlotMinutes <= 0 {
		return fmt.Errorf("%w: slot duration %d minutes", ErrInvalidConfig, c.SlotMinutes)
	}
	return nil
}

// OpenAt returns the opening instant for the day containing day, in shop time.
func (c Config) OpenAt(day time.Time) time.Time {
	y, m, d := day.In(c.Location).Date()
	return time.Date(y, m, d, c.OpenHour, 0, 0, 0, c.Location)
}

// CloseAt returns the closing instant for the day containing day, in shop time.
func (c Config) CloseAt(day time.Time) time.Time {
	y, m, d := day.In(c.Location).Date()
	return time.Date(y, m, d, c.CloseHour, 0, 0, 0, c.Location)
}

// SlotDuration returns the appointment length.
func (c Config) SlotDuration() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

// WalkIn is a customer queuing in person. Queue order is ascending JoinedAt.
type WalkIn struct {
	ID       string
	Name     string
	JoinedAt time.Time
}

// Booking is a pre-arranged appointment at a fixed slot. Slots are honored
// exactly as given; walk-ins route around them.
type Booking struct {
	ID    string
	Name  string
	Phone string
	Slot  time.Time
}

// Entry is one row of the merged schedule.
type Entry struct {
	Source      Source
	ID          string
	Name        string
	Start       time.Time
	End         time.Time
	WaitMinutes int
}

// Schedule is the merged, time-ordered, non-overlapping view of one shop-day.
// Skipped counts records excluded for a missing timestamp; Unplaced counts
// walk-ins that could not be fitted before closing.
type Schedule struct {
	Entries  []Entry
	Skipped  int
	Unplaced int
}

type interval struct {
	start time.Time
	end   time.Time
}

// overlapsAny reports whether [start,end) intersects any occupied interval.
// Intervals are half-open, so touching boundaries do not conflict.
func overlapsAny(start, end time.Time, occupied []interval) bool {
	for _, iv := range occupied {
		if start.Before(iv.end) && iv.start.Before(end) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// placement is the shared result of merging one shop-day: the placed entries,
// the occupied interval set, and the cursor where the next walk-in would go.
type placement struct {
	entries  []Entry
	occupied []interval
	cursor   time.Time
	skipped  int
	unplaced int
}

// place runs the merge: bookings on the target day claim their exact slot,
// then walk-ins (arrival order) are placed from max(now, open), each advanced
// in slot-sized steps until it clears every occupied interval. Walk-ins whose
// slot would run past closing are left unplaced, never rolled to another day.
func place(cfg Config, now, day time.Time, walkins []WalkIn, bookings []Booking) placement {
	open := cfg.OpenAt(day)
	closeAt := cfg.CloseAt(day)
	dur := cfg.SlotDuration()
	now = now.In(cfg.Location)

	p := placement{cursor: open}

	for _, b := range bookings {
		if b.Slot.IsZero() {
			p.skipped++
			continue
		}
		slot := b.Slot.In(cfg.Location)
		if !sameDay(slot, open) {
			continue
		}
		p.occupied = append(p.occupied, interval{slot, slot.Add(dur)})
		p.entries = append(p.entries, Entry{
			Source: SourceBooking,
			ID:     b.ID,
			Name:   b.Name,
			Start:  slot,
			End:    slot.Add(dur),
		})
	}

	if now.After(p.cursor) {
		p.cursor = now
	}

	ordered := make([]WalkIn, len(walkins))
	copy(ordered, walkins)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].JoinedAt.Before(ordered[j].JoinedAt)
	})

	for _, w := range ordered {
		if w.JoinedAt.IsZero() {
			p.skipped++
			continue
		}
		// Entries left over from a previous day are never re-scheduled today.
		if !sameDay(w.JoinedAt.In(cfg.Location), open) {
			continue
		}

		t := p.cursor
		for overlapsAny(t, t.Add(dur), p.occupied) {
			t = t.Add(dur)
		}
		if t.Add(dur).After(closeAt) {
			p.unplaced++
			continue
		}

		p.occupied = append(p.occupied, interval{t, t.Add(dur)})
		p.entries = append(p.entries, Entry{
			Source: SourceWalkIn,
			ID:     w.ID,
			Name:   w.Name,
			Start:  t,
			End:    t.Add(dur),
		})
		p.cursor = t.Add(dur)
	}

	return p
}

// Build computes the merged schedule for one shop-day. It is a pure function
// of its inputs: callers re-fetch records and rebuild on every invocation.
func Build(cfg Config, now, day time.Time, walkins []WalkIn, bookings []Booking) (Schedule, error) {
	if err := cfg.Validate(); err != nil {
		return Schedule{}, err
	}

	p := place(cfg, now, day, walkins, bookings)

	sort.SliceStable(p.entries, func(i, j int) bool {
		return p.entries[i].Start.Before(p.entries[j].Start)
	})

	now = now.In(cfg.Location)
	for i := range p.entries {
		wait := int(p.entries[i].Start.Sub(now).Minutes())
		if wait < 0 {
			wait = 0
		}
		p.entries[i].WaitMinutes = wait
	}

	return Schedule{Entries: p.entries, Skipped: p.skipped, Unplaced: p.unplaced}, nil
}

// NextFreeSlot answers "where would a new entry of this kind go, right now".
//
// A walk-in continues the queue: it goes after every walk-in already placed,
// at the first slot clear of all occupied intervals. A booking may take any
// free grid slot across the business span, as long as it has not passed yet.
func NextFreeSlot(cfg Config, now, day time.Time, walkins []WalkIn, bookings []Booking, kind Source) (time.Time, error) {
	if err := cfg.Validate(); err != nil {
		return time.Time{}, err
	}

	open := cfg.OpenAt(day)
	closeAt := cfg.CloseAt(day)
	dur := cfg.SlotDuration()
	now = now.In(cfg.Location)

	p := place(cfg, now, day, walkins, bookings)

	if kind == SourceWalkIn {
		t := p.cursor
		for overlapsAny(t, t.Add(dur), p.occupied) {
			t = t.Add(dur)
		}
		if t.Add(dur).After(closeAt) {
			return time.Time{}, ErrNoCapacity
		}
		return t, nil
	}

	for t := open; !t.Add(dur).After(closeAt); t = t.Add(dur) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(t, t.Add(dur), p.occupied) {
			return t, nil
		}
	}
	return time.Time{}, ErrNoCapacity
}

// FreeSlots returns every free booking slot on the grid for the given day.
func FreeSlots(cfg Config, now, day time.Time, walkins []WalkIn, bookings []Booking) ([]time.Time, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	open := cfg.OpenAt(day)
	closeAt := cfg.CloseAt(day)
	dur := cfg.SlotDuration()
	now = now.In(cfg.Location)

	p := place(cfg, now, day, walkins, bookings)

	var slots []time.Time
	for t := open; !t.Add(dur).After(closeAt); t = t.Add(dur) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(t, t.Add(dur), p.occupied) {
			slots = append(slots, t)
		}
	}
	return slots, nil
}

// IsFree reports whether the exact interval [slot, slot+duration) is inside
// business hours and clear of every booking and placed walk-in. This is the
// re-validation run under the shop lock right before a booking is committed.
func IsFree(cfg Config, now, day time.Time, walkins []WalkIn, bookings []Booking, slot time.Time) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}

	open := cfg.OpenAt(day)
	closeAt := cfg.CloseAt(day)
	dur := cfg.SlotDuration()
	now = now.In(cfg.Location)
	slot = slot.In(cfg.Location)

	if slot.Before(open) || slot.Add(dur).After(closeAt) {
		return false, nil
	}
	if slot.Before(now) {
		return false, nil
	}

	p := place(cfg, now, day, walkins, bookings)
	return !overlapsAny(slot, slot.Add(dur), p.occupied), nil
}
