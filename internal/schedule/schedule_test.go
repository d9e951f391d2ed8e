package schedule

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{OpenHour: 10, CloseHour: 18, SlotMinutes: 25, Location: time.UTC}
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
}

func TestBuild_WalkInsOnly(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 0)

	walkins := []WalkIn{
		{ID: "w1", Name: "Alice", JoinedAt: at(9, 0)},
		{ID: "w2", Name: "Bob", JoinedAt: at(9, 5)},
		{ID: "w3", Name: "Cara", JoinedAt: at(9, 10)},
	}

	sched, err := Build(cfg, now, day, walkins, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sched.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(sched.Entries))
	}

	wantStarts := []time.Time{at(10, 0), at(10, 25), at(10, 50)}
	wantWaits := []int{0, 25, 50}
	for i, e := range sched.Entries {
		if !e.Start.Equal(wantStarts[i]) {
			t.Errorf("entry %d start = %s, want %s", i, e.Start, wantStarts[i])
		}
		if !e.End.Equal(wantStarts[i].Add(25 * time.Minute)) {
			t.Errorf("entry %d end = %s", i, e.End)
		}
		if e.WaitMinutes != wantWaits[i] {
			t.Errorf("entry %d wait = %d, want %d", i, e.WaitMinutes, wantWaits[i])
		}
	}
}

func TestBuild_WalkInFitsBeforeBooking(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 0)

	walkins := []WalkIn{{ID: "w1", Name: "Alice", JoinedAt: at(9, 30)}}
	bookings := []Booking{{ID: "b1", Name: "Dana", Slot: at(10, 25)}}

	sched, err := Build(cfg, now, day, walkins, bookings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sched.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(sched.Entries))
	}
	if sched.Entries[0].Name != "Alice" || !sched.Entries[0].Start.Equal(at(10, 0)) {
		t.Errorf("first entry = %s at %s, want Alice at 10:00", sched.Entries[0].Name, sched.Entries[0].Start)
	}
	if sched.Entries[1].Name != "Dana" || !sched.Entries[1].Start.Equal(at(10, 25)) {
		t.Errorf("second entry = %s at %s, want Dana at 10:25", sched.Entries[1].Name, sched.Entries[1].Start)
	}
}

func TestBuild_WalkInRoutesAroundBooking(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 0)

	walkins := []WalkIn{{ID: "w1", Name: "Alice", JoinedAt: at(10, 0)}}
	bookings := []Booking{{ID: "b1", Name: "Dana", Slot: at(10, 0)}}

	sched, err := Build(cfg, now, day, walkins, bookings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sched.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(sched.Entries))
	}
	if !sched.Entries[0].Start.Equal(at(10, 0)) || sched.Entries[0].Source != SourceBooking {
		t.Errorf("booking was moved: %+v", sched.Entries[0])
	}
	if !sched.Entries[1].Start.Equal(at(10, 25)) || sched.Entries[1].Source != SourceWalkIn {
		t.Errorf("walk-in not pushed past booking: %+v", sched.Entries[1])
	}
}

func fullyBookedDay(t *testing.T) []Booking {
	t.Helper()
	var bookings []Booking
	i := 0
	for slot := at(10, 0); !slot.Add(25 * time.Minute).After(at(18, 0)); slot = slot.Add(25 * time.Minute) {
		bookings = append(bookings, Booking{ID: string(rune('a' + i)), Name: "Booked", Slot: slot})
		i++
	}
	return bookings
}

func TestNextFreeSlot_FullyBooked(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 0)
	bookings := fullyBookedDay(t)

	for _, kind := range []Source{SourceWalkIn, SourceBooking} {
		_, err := NextFreeSlot(cfg, now, day, nil, bookings, kind)
		if !errors.Is(err, ErrNoCapacity) {
			t.Errorf("kind %s: err = %v, want ErrNoCapacity", kind, err)
		}
	}
}

func TestNextFreeSlot_EmptyFutureDay(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := time.Date(2026, 3, 13, 15, 0, 0, 0, time.UTC)

	slot, err := NextFreeSlot(cfg, now, day, nil, nil, SourceBooking)
	if err != nil {
		t.Fatalf("NextFreeSlot: %v", err)
	}
	if !slot.Equal(at(10, 0)) {
		t.Errorf("slot = %s, want opening time 10:00", slot)
	}
}

func TestNextFreeSlot_WalkInContinuesQueue(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 0)

	walkins := []WalkIn{
		{ID: "w1", Name: "Alice", JoinedAt: at(9, 0)},
		{ID: "w2", Name: "Bob", JoinedAt: at(9, 10)},
	}
	bookings := []Booking{{ID: "b1", Name: "Dana", Slot: at(10, 25)}}

	// Alice 10:00, Dana 10:25, Bob 10:50: a new walk-in belongs at 11:15.
	slot, err := NextFreeSlot(cfg, now, day, walkins, bookings, SourceWalkIn)
	if err != nil {
		t.Fatalf("NextFreeSlot: %v", err)
	}
	if !slot.Equal(at(11, 15)) {
		t.Errorf("slot = %s, want 11:15", slot)
	}

	// A booking may still take an earlier free grid slot than the queue tail.
	bslot, err := NextFreeSlot(cfg, now, day, walkins, bookings, SourceBooking)
	if err != nil {
		t.Fatalf("NextFreeSlot booking: %v", err)
	}
	if !bslot.Equal(at(11, 15)) {
		t.Errorf("booking slot = %s, want 11:15", bslot)
	}
}

func TestBuild_Invariants(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 10)

	walkins := []WalkIn{
		{ID: "w1", Name: "Alice", JoinedAt: at(9, 50)},
		{ID: "w2", Name: "Bob", JoinedAt: at(10, 1)},
		{ID: "w3", Name: "Cara", JoinedAt: at(10, 5)},
	}
	bookings := []Booking{
		{ID: "b1", Name: "Dana", Slot: at(10, 25)},
		{ID: "b2", Name: "Ed", Slot: at(11, 40)},
	}

	sched, err := Build(cfg, now, day, walkins, bookings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	open := cfg.OpenAt(day)
	closeAt := cfg.CloseAt(day)

	for i, e := range sched.Entries {
		if e.Start.Before(open) || e.End.After(closeAt) {
			t.Errorf("entry %d outside business hours: %s-%s", i, e.Start, e.End)
		}
		if e.Source == SourceWalkIn && e.Start.Before(now) {
			t.Errorf("walk-in %d scheduled before now: %s", i, e.Start)
		}
		for j := i + 1; j < len(sched.Entries); j++ {
			o := sched.Entries[j]
			if e.Start.Before(o.End) && o.Start.Before(e.End) {
				t.Errorf("entries %d and %d overlap: %s-%s vs %s-%s", i, j, e.Start, e.End, o.Start, o.End)
			}
		}
	}

	// Bookings keep their exact slot.
	for _, b := range bookings {
		found := false
		for _, e := range sched.Entries {
			if e.Source == SourceBooking && e.ID == b.ID && e.Start.Equal(b.Slot) {
				found = true
			}
		}
		if !found {
			t.Errorf("booking %s was moved from its slot %s", b.ID, b.Slot)
		}
	}

	// Walk-in starts follow arrival order.
	var lastWalkIn time.Time
	for _, e := range sched.Entries {
		if e.Source != SourceWalkIn {
			continue
		}
		if e.Start.Before(lastWalkIn) {
			t.Errorf("walk-in order violated at %s", e.Start)
		}
		lastWalkIn = e.Start
	}
}

func TestBuild_Idempotent(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 10)

	walkins := []WalkIn{
		{ID: "w1", Name: "Alice", JoinedAt: at(9, 50)},
		{ID: "w2", Name: "Bob", JoinedAt: at(10, 1)},
	}
	bookings := []Booking{{ID: "b1", Name: "Dana", Slot: at(11, 0)}}

	first, err := Build(cfg, now, day, walkins, bookings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(cfg, now, day, walkins, bookings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("schedule not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBuild_SkipsStaleAndMalformed(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 0)

	walkins := []WalkIn{
		{ID: "w1", Name: "Yesterday", JoinedAt: at(9, 0).AddDate(0, 0, -1)},
		{ID: "w2", Name: "Broken"}, // zero JoinedAt
		{ID: "w3", Name: "Alice", JoinedAt: at(9, 30)},
	}
	bookings := []Booking{
		{ID: "b1", Name: "NoSlot"}, // zero Slot
		{ID: "b2", Name: "Tomorrow", Slot: at(11, 0).AddDate(0, 0, 1)},
	}

	sched, err := Build(cfg, now, day, walkins, bookings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sched.Entries) != 1 || sched.Entries[0].Name != "Alice" {
		t.Fatalf("expected only Alice scheduled, got %+v", sched.Entries)
	}
	if sched.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", sched.Skipped)
	}
}

func TestBuild_UnplacedWhenDayIsOver(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(17, 50)

	walkins := []WalkIn{{ID: "w1", Name: "Late", JoinedAt: at(17, 45)}}

	sched, err := Build(cfg, now, day, walkins, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sched.Entries) != 0 {
		t.Fatalf("expected no entries, got %+v", sched.Entries)
	}
	if sched.Unplaced != 1 {
		t.Errorf("Unplaced = %d, want 1", sched.Unplaced)
	}
}

func TestBuild_InvalidConfig(t *testing.T) {
	day := at(0, 0)
	now := at(10, 0)

	cases := []Config{
		{OpenHour: 18, CloseHour: 10, SlotMinutes: 25, Location: time.UTC},
		{OpenHour: 10, CloseHour: 10, SlotMinutes: 25, Location: time.UTC},
		{OpenHour: 10, CloseHour: 18, SlotMinutes: 0, Location: time.UTC},
		{OpenHour: 10, CloseHour: 18, SlotMinutes: 25},
	}
	for i, cfg := range cases {
		if _, err := Build(cfg, now, day, nil, nil); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: err = %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestFreeSlots_SkipsPastAndOccupied(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 30)

	bookings := []Booking{{ID: "b1", Name: "Dana", Slot: at(11, 15)}}

	slots, err := FreeSlots(cfg, now, day, nil, bookings)
	if err != nil {
		t.Fatalf("FreeSlots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected free slots")
	}
	if !slots[0].Equal(at(10, 50)) {
		t.Errorf("first slot = %s, want 10:50 (10:00/10:25 are past)", slots[0])
	}
	for _, s := range slots {
		if s.Equal(at(11, 15)) {
			t.Errorf("booked slot 11:15 offered as free")
		}
		if s.Before(now) {
			t.Errorf("past slot %s offered", s)
		}
	}
	last := slots[len(slots)-1]
	if last.Add(cfg.SlotDuration()).After(cfg.CloseAt(day)) {
		t.Errorf("last slot %s runs past closing", last)
	}
}

func TestIsFree(t *testing.T) {
	cfg := testConfig()
	day := at(0, 0)
	now := at(10, 0)

	bookings := []Booking{{ID: "b1", Name: "Dana", Slot: at(11, 0)}}

	cases := []struct {
		name string
		slot time.Time
		want bool
	}{
		{"open slot", at(12, 0), true},
		{"occupied slot", at(11, 0), false},
		{"overlapping slot", at(10, 50), false},
		{"touching slot after", at(11, 25), true},
		{"before opening", at(9, 0), false},
		{"runs past closing", at(17, 50), false},
		{"in the past", at(9, 30), false},
	}
	for _, tc := range cases {
		got, err := IsFree(cfg, now, day, nil, bookings, tc.slot)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: IsFree = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("shop", 2*60*60)

	got, err := ParseTime("2026-03-14T10:00:00+02:00", loc)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 14, 10, 0, 0, 0, loc)) {
		t.Errorf("offset timestamp = %s", got)
	}

	// Offset-less timestamps are pinned to the shop zone, not UTC.
	got, err = ParseTime("2026-03-14T10:00:00", loc)
	if err != nil {
		t.Fatalf("ParseTime naive: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 14, 10, 0, 0, 0, loc)) {
		t.Errorf("naive timestamp = %s, want 10:00 shop time", got)
	}

	if _, err := ParseTime("next tuesday", loc); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
