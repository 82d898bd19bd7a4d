package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/consumer"
)

// Router 使用标准库 http.ServeMux（method + path pattern）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// IngestStats exposes the consumer counters.
type IngestStats interface {
	Stats() consumer.Stats
}

// BrokerStatus reports the MQTT connection state.
type BrokerStatus interface {
	IsConnected() bool
}

// RegisterHealthRoutes: /health answers 503 while the broker link is down,
// since no reading can be ingested then.
func (r *Router) RegisterHealthRoutes(ingest IngestStats, broker BrokerStatus) {
	r.Handle("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		if !broker.IsConnected() {
			writeJSON(w, http.StatusServiceUnavailable, Result[map[string]string]{
				Code:    ResultError,
				Type:    "error",
				Message: "mqtt disconnected",
				Result:  map[string]string{"status": "degraded", "mqtt": "disconnected"},
			})
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok", "mqtt": "connected"}))
	})
	r.Handle("GET /api/v1/ingest/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(ingest.Stats()))
	})
}

func (r *Router) RegisterDeviceRoutes(h *DeviceHandler) {
	r.Handle("GET /api/v1/devices", h.ListDevices)
	r.Handle("POST /api/v1/devices/claim", h.ClaimDevice)
	r.Handle("DELETE /api/v1/devices/{addr}", h.DeleteDevice)
	r.Handle("PUT /api/v1/devices/{addr}/name", h.RenameDevice)
	r.Handle("PUT /api/v1/devices/{addr}/config", h.UpdateConfig)
	r.Handle("GET /api/v1/devices/{addr}/measurements", h.ListMeasurements)
	r.Handle("POST /api/v1/devices/{addr}/alerts", h.SendAlert)
	r.Handle("GET /api/v1/devices/{addr}/alerts", h.ListAlerts)
}

func (r *Router) RegisterStatsRoutes(h *StatsHandler) {
	r.Handle("GET /api/v1/stats/{addr}/acceleration", h.Acceleration)
	r.Handle("GET /api/v1/stats/{addr}/engine-temp", h.EngineTemp)
}
