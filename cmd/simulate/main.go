package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// simulate hammers one shop with concurrent joiners and bookers to show the
// per-shop lock turning would-be double bookings into clean 409s.

type SimConfig struct {
	APIBaseURL   string
	ShopID       string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_URL", "http://localhost:8080"),
		ShopID:       getEnv("SIM_SHOP_ID", "fade-culture"),
		Duration:     30 * time.Second,
		Workers:      8,
		BookingRatio: 0.4,
	}
	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Duration = d
		}
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("SIM_BOOKING_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BookingRatio = f
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Report(name string) {
	om.mu.Lock()
	defer om.mu.Unlock()

	fmt.Printf("\n%s: total=%d success=%d conflict=%d error=%d\n",
		name, om.Total, om.Success, om.Conflict, om.Error)

	if len(om.latencies) == 0 {
		return
	}
	sorted := make([]time.Duration, len(om.latencies))
	copy(sorted, om.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	p50 := sorted[len(sorted)*50/100]
	p95idx := len(sorted) * 95 / 100
	if p95idx >= len(sorted) {
		p95idx = len(sorted) - 1
	}
	fmt.Printf("  avg=%s min=%s max=%s p50=%s p95=%s\n",
		sum/time.Duration(len(sorted)), sorted[0], sorted[len(sorted)-1], p50, sorted[p95idx])
}

func main() {
	log.SetFlags(log.LstdFlags)
	cfg := loadSimConfig()
	log.Printf("simulate starting url=%s shop=%s workers=%d duration=%s",
		cfg.APIBaseURL, cfg.ShopID, cfg.Workers, cfg.Duration)

	gofakeit.Seed(time.Now().UnixNano())

	client := &http.Client{Timeout: 10 * time.Second}
	joinMetrics := &OperationMetrics{}
	bookMetrics := &OperationMetrics{}

	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				if rand.Float64() < cfg.BookingRatio {
					doBooking(client, cfg, bookMetrics)
				} else {
					doJoin(client, cfg, joinMetrics)
				}
				time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
			}
		}()
	}

	wg.Wait()

	joinMetrics.Report("join-queue")
	bookMetrics.Report("create-booking")
}

func doJoin(client *http.Client, cfg SimConfig, m *OperationMetrics) {
	body, _ := json.Marshal(map[string]string{"name": gofakeit.Name()})

	start := time.Now()
	resp, err := client.Post(
		fmt.Sprintf("%s/shops/%s/walkins", cfg.APIBaseURL, cfg.ShopID),
		"application/json", bytes.NewReader(body))
	latency := time.Since(start)
	if err != nil {
		m.Record(latency, 0)
		return
	}
	drain(resp)
	m.Record(latency, resp.StatusCode)
}

func doBooking(client *http.Client, cfg SimConfig, m *OperationMetrics) {
	// Everyone fights over the same handful of slots to force conflicts.
	slot := time.Now().Truncate(time.Hour).Add(time.Duration(1+rand.Intn(4)) * time.Hour)
	body, _ := json.Marshal(map[string]string{
		"name":  gofakeit.Name(),
		"phone": gofakeit.Phone(),
		"slot":  slot.Format(time.RFC3339),
	})

	start := time.Now()
	resp, err := client.Post(
		fmt.Sprintf("%s/shops/%s/bookings", cfg.APIBaseURL, cfg.ShopID),
		"application/json", bytes.NewReader(body))
	latency := time.Since(start)
	if err != nil {
		m.Record(latency, 0)
		return
	}
	drain(resp)
	m.Record(latency, resp.StatusCode)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
