package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JoyKalombo/barber-live-queue-tracker/internal/queue"
	redisclient "github.com/JoyKalombo/barber-live-queue-tracker/internal/redis"
	"github.com/JoyKalombo/barber-live-queue-tracker/internal/schedule"
)

func createShopHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateShopRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		shop, err := svc.CreateShop(r.Context(), queue.CreateShopParams{
			ID:          req.ID,
			Name:        req.Name,
			OpenHour:    req.OpenHour,
			CloseHour:   req.CloseHour,
			SlotMinutes: req.SlotMinutes,
			Timezone:    req.Timezone,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, shopResponse(shop))
	}
}

func listShopsHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shops, err := svc.ListShops(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]ShopResponse, 0, len(shops))
		for i := range shops {
			resp = append(resp, shopResponse(&shops[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getShopHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, err := svc.GetShop(r.Context(), chi.URLParam(r, "shopID"))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shopResponse(shop))
	}
}

// shopDay loads the shop and resolves the optional ?date= parameter in the
// shop's timezone. A zero day means "today".
func shopDay(r *http.Request, svc QueueService) (*queue.Shop, *time.Location, time.Time, error) {
	shop, err := svc.GetShop(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	cfg, err := shop.ScheduleConfig()
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	var day time.Time
	if d := r.URL.Query().Get("date"); d != "" {
		day, err = schedule.ParseDay(d, cfg.Location)
		if err != nil {
			return nil, nil, time.Time{}, errBadDate
		}
	}
	return shop, cfg.Location, day, nil
}

var errBadDate = errors.New("date must be YYYY-MM-DD")

func scheduleHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, _, day, err := shopDay(r, svc)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		sched, err := svc.Schedule(r.Context(), shop.ID, day)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scheduleResponse(sched))
	}
}

func availableSlotsHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, _, day, err := shopDay(r, svc)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), shop.ID, day)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := SlotsResponse{ShopID: shop.ID, Slots: make([]string, 0, len(slots))}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, s.Format(time.RFC3339))
		}
		if len(slots) > 0 {
			resp.Date = slots[0].Format("2006-01-02")
		} else if d := r.URL.Query().Get("date"); d != "" {
			resp.Date = d
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func nextSlotHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, _, day, err := shopDay(r, svc)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		kind, ok := sourceFromKind(r.URL.Query().Get("kind"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be walkin or booking")
			return
		}

		slot, err := svc.NextSlot(r.Context(), shop.ID, day, kind)
		if errors.Is(err, schedule.ErrNoCapacity) {
			writeJSON(w, http.StatusOK, NextSlotResponse{ShopID: shop.ID, Kind: string(kind), Available: false})
			return
		}
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, NextSlotResponse{
			ShopID:    shop.ID,
			Kind:      string(kind),
			Available: true,
			Slot:      slot.Format(time.RFC3339),
		})
	}
}

func joinQueueHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinQueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		res, err := svc.JoinWalkIn(r.Context(), chi.URLParam(r, "shopID"), req.Name)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, JoinQueueResponse{
			ID:          res.WalkIn.ID,
			Name:        res.WalkIn.Name,
			Position:    res.Position,
			Start:       res.Start.Format(time.RFC3339),
			End:         res.End.Format(time.RFC3339),
			WaitMinutes: res.WaitMinutes,
		})
	}
}

func serveWalkInHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_walkin_id", "id must be a valid UUID")
			return
		}

		if err := svc.ServeWalkIn(r.Context(), chi.URLParam(r, "shopID"), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createBookingHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, loc, _, err := shopDay(r, svc)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slot, err := schedule.ParseTime(req.Slot, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
			return
		}

		booking, err := svc.CreateBooking(r.Context(), shop.ID, req.Name, req.Phone, slot)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, bookingResponse(booking))
	}
}

func listBookingsHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, _, day, err := shopDay(r, svc)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		bookings, err := svc.ListBookings(r.Context(), shop.ID, day)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(bookings))
		for i := range bookings {
			resp = append(resp, bookingResponse(&bookings[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func cancelBookingHandler(svc QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		if err := svc.CancelBooking(r.Context(), chi.URLParam(r, "shopID"), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadDate):
		writeError(w, http.StatusBadRequest, "invalid_date", errBadDate.Error())
	case errors.Is(err, queue.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "name_required", err.Error())
	case errors.Is(err, queue.ErrSlotOutsideHours),
		errors.Is(err, queue.ErrSlotInPast):
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
	case errors.Is(err, queue.ErrShopNotFound):
		writeError(w, http.StatusNotFound, "shop_not_found", err.Error())
	case errors.Is(err, queue.ErrWalkInNotFound):
		writeError(w, http.StatusNotFound, "walkin_not_found", err.Error())
	case errors.Is(err, queue.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, queue.ErrShopExists):
		writeError(w, http.StatusConflict, "shop_exists", err.Error())
	case errors.Is(err, queue.ErrAlreadyQueued):
		writeError(w, http.StatusConflict, "already_queued", err.Error())
	case errors.Is(err, queue.ErrDuplicateBooking):
		writeError(w, http.StatusConflict, "duplicate_booking", err.Error())
	case errors.Is(err, queue.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, queue.ErrShopBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "shop_busy", "another customer is being added, please retry shortly")
	case errors.Is(err, schedule.ErrNoCapacity):
		writeError(w, http.StatusConflict, "no_capacity", err.Error())
	case errors.Is(err, schedule.ErrInvalidConfig):
		writeError(w, http.StatusInternalServerError, "shop_misconfigured", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
