package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/esaldgut/booking-payments/utils"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

type MetricsResponse struct {
	GoRoutines int                      `json:"goroutines"`
	Memory     Memory                   `json:"memory"`
	Uptime     string                   `json:"uptime"`
	Settlement map[string]*utils.Metric `json:"settlement,omitempty"`
}

type Memory struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
}

var startTime = time.Now()

func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).String(),
	})
}

// CreateMetricsHandler exposes runtime stats plus the settlement counters.
func CreateMetricsHandler(collector *utils.MetricsCollector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		writeJSON(w, http.StatusOK, MetricsResponse{
			GoRoutines: runtime.NumGoroutine(),
			Memory: Memory{
				Alloc:      m.Alloc,
				TotalAlloc: m.TotalAlloc,
				Sys:        m.Sys,
				NumGC:      m.NumGC,
			},
			Uptime:     time.Since(startTime).String(),
			Settlement: collector.GetAllMetrics(),
		})
	}
}
