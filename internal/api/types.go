package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/JoyKalombo/barber-live-queue-tracker/internal/queue"
	"github.com/JoyKalombo/barber-live-queue-tracker/internal/schedule"
)

type CreateShopRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OpenHour    int    `json:"open_hour"`
	CloseHour   int    `json:"close_hour"`
	SlotMinutes int    `json:"slot_minutes"`
	Timezone    string `json:"timezone"`
}

type ShopResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OpenHour    int       `json:"open_hour"`
	CloseHour   int       `json:"close_hour"`
	SlotMinutes int       `json:"slot_minutes"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
}

type JoinQueueRequest struct {
	Name string `json:"name"`
}

type JoinQueueResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	WaitMinutes int       `json:"wait_minutes"`
}

type CreateBookingRequest struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Slot  string  `json:"slot"`
}

type BookingResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Phone  *string   `json:"phone,omitempty"`
	Slot   string    `json:"slot"`
	Status string    `json:"status"`
}

type ScheduleEntryResponse struct {
	Source      string `json:"source"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Start       string `json:"start"`
	End         string `json:"end"`
	WaitMinutes int    `json:"wait_minutes"`
}

type ScheduleResponse struct {
	ShopID  string                  `json:"shop_id"`
	Date    string                  `json:"date"`
	Entries []ScheduleEntryResponse `json:"entries"`
	Skipped int                     `json:"skipped_records,omitempty"`
}

type SlotsResponse struct {
	ShopID string   `json:"shop_id"`
	Date   string   `json:"date"`
	Slots  []string `json:"slots"`
}

type NextSlotResponse struct {
	ShopID    string `json:"shop_id"`
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
	Slot      string `json:"slot,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func shopResponse(s *queue.Shop) ShopResponse {
	return ShopResponse{
		ID:          s.ID,
		Name:        s.Name,
		OpenHour:    s.OpenHour,
		CloseHour:   s.CloseHour,
		SlotMinutes: s.SlotMinutes,
		Timezone:    s.Timezone,
		CreatedAt:   s.CreatedAt,
	}
}

func bookingResponse(b *queue.Booking) BookingResponse {
	return BookingResponse{
		ID:     b.ID,
		Name:   b.Name,
		Phone:  b.Phone,
		Slot:   b.Slot.Format(time.RFC3339),
		Status: string(b.Status),
	}
}

func scheduleResponse(day *queue.DaySchedule) ScheduleResponse {
	entries := make([]ScheduleEntryResponse, 0, len(day.Entries))
	for _, e := range day.Entries {
		entries = append(entries, ScheduleEntryResponse{
			Source:      string(e.Source),
			ID:          e.ID,
			Name:        e.Name,
			Start:       e.Start.Format(time.RFC3339),
			End:         e.End.Format(time.RFC3339),
			WaitMinutes: e.WaitMinutes,
		})
	}
	return ScheduleResponse{
		ShopID:  day.Shop.ID,
		Date:    day.Day.Format("2006-01-02"),
		Entries: entries,
		Skipped: day.Skipped,
	}
}

func sourceFromKind(kind string) (schedule.Source, bool) {
	switch kind {
	case "", string(schedule.SourceWalkIn):
		return schedule.SourceWalkIn, true
	case string(schedule.SourceBooking):
		return schedule.SourceBooking, true
	default:
		return "", false
	}
}
