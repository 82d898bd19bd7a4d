package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/service"
)

// StatsHandler 驾驶评分 / 发动机温度统计
type StatsHandler struct {
	analytics *service.AnalyticsService
	logger    *zap.Logger
}

func NewStatsHandler(analytics *service.AnalyticsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{analytics: analytics, logger: logger}
}

// Acceleration GET /api/v1/stats/{addr}/acceleration?start_date&end_date
func (h *StatsHandler) Acceleration(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromReq(r)
	if err != nil {
		writeError(w, h.logger, "Acceleration", err)
		return
	}
	addr, err := addressFromReq(r)
	if err != nil {
		writeError(w, h.logger, "Acceleration", err)
		return
	}
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, h.logger, "Acceleration", err)
		return
	}

	score, err := h.analytics.ScoreDrivingSafety(r.Context(), service.ScoreRequest{
		OwnerID: owner,
		Address: addr,
		Start:   start,
		End:     end,
	})
	if err != nil {
		writeError(w, h.logger, "Acceleration", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(score))
}

// EngineTemp GET /api/v1/stats/{addr}/engine-temp?start_date&end_date&min_temp
// A window without readings yields result=null.
func (h *StatsHandler) EngineTemp(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromReq(r)
	if err != nil {
		writeError(w, h.logger, "EngineTemp", err)
		return
	}
	addr, err := addressFromReq(r)
	if err != nil {
		writeError(w, h.logger, "EngineTemp", err)
		return
	}
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, h.logger, "EngineTemp", err)
		return
	}
	minTemp, err := parseFloatPtr(r.URL.Query().Get("min_temp"))
	if err != nil {
		writeError(w, h.logger, "EngineTemp", err)
		return
	}

	summary, err := h.analytics.SummarizeEngineTemperature(r.Context(), service.TemperatureRequest{
		OwnerID: owner,
		Address: addr,
		Start:   start,
		End:     end,
		MinTemp: minTemp,
	})
	if err != nil {
		writeError(w, h.logger, "EngineTemp", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}
