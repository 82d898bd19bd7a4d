package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/analytics"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/store"
)

const (
	DefaultMeasurementsLimit = 100

	cacheKeyPrefix = "car-assistant:analytics:"
)

// ScoreRequest selects the acceleration history to score.
type ScoreRequest struct {
	OwnerID domain.ID
	Address domain.Address
	Start   *time.Time
	End     *time.Time
}

// TemperatureRequest selects the engine temperature history to summarize.
// MinTemp is a strict noise floor.
type TemperatureRequest struct {
	OwnerID domain.ID
	Address domain.Address
	Start   *time.Time
	End     *time.Time
	MinTemp *float64
}

// MeasurementsRequest lists raw readings. Without Start and End the whole
// history is eligible.
type MeasurementsRequest struct {
	OwnerID domain.ID
	Address domain.Address
	Kind    *domain.SensorKind
	Start   *time.Time
	End     *time.Time
	Order   domain.SortOrder
	Limit   int
}

// AnalyticsService 驾驶评分与发动机温度统计（只读）
type AnalyticsService struct {
	devices      repository.DevicesRepository
	measurements repository.MeasurementsRepository
	cache        store.KV // nil disables caching
	cacheTTL     time.Duration
	maxRows      int
	logger       *zap.Logger

	now func() time.Time
}

func NewAnalyticsService(
	repos *repository.Store,
	cache store.KV,
	cacheTTL time.Duration,
	maxRows int,
	logger *zap.Logger,
) *AnalyticsService {
	if maxRows <= 0 || maxRows > analytics.MaxRowsPerQuery {
		maxRows = analytics.MaxRowsPerQuery
	}
	return &AnalyticsService{
		devices:      repos.Devices,
		measurements: repos.Measurements,
		cache:        cache,
		cacheTTL:     cacheTTL,
		maxRows:      maxRows,
		logger:       logger,
		now:          time.Now,
	}
}

// ScoreDrivingSafety scores the acceleration readings of the window.
func (s *AnalyticsService) ScoreDrivingSafety(ctx context.Context, req ScoreRequest) (*analytics.SafetyScore, error) {
	w, err := analytics.ResolveWindow(req.Start, req.End, s.now())
	if err != nil {
		return nil, err
	}
	d, err := ownedDevice(ctx, s.devices, req.OwnerID, req.Address)
	if err != nil {
		return nil, surface(s.logger, "ScoreDrivingSafety", err)
	}

	from, to := w.Bounds()
	key := s.cacheKey(w, "score:%s:%s:%d:%d", d.ID, req.OwnerID, from, to)
	var cached analytics.SafetyScore
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	values, truncated, err := s.scan(ctx, domain.MeasurementQuery{
		DeviceID: d.ID,
		OwnerID:  req.OwnerID,
		Kinds:    []domain.SensorKind{domain.SensorAcceleration},
		From:     from,
		To:       to,
	})
	if err != nil {
		return nil, surface(s.logger, "ScoreDrivingSafety", err)
	}

	score := analytics.ScoreDriving(values, w.DurationDays())
	score.Truncated = truncated
	s.cacheSet(ctx, key, score)
	return &score, nil
}

// SummarizeEngineTemperature returns nil when no reading is above the floor.
func (s *AnalyticsService) SummarizeEngineTemperature(ctx context.Context, req TemperatureRequest) (*analytics.TemperatureSummary, error) {
	w, err := analytics.ResolveWindow(req.Start, req.End, s.now())
	if err != nil {
		return nil, err
	}
	d, err := ownedDevice(ctx, s.devices, req.OwnerID, req.Address)
	if err != nil {
		return nil, surface(s.logger, "SummarizeEngineTemperature", err)
	}

	from, to := w.Bounds()
	floor := "none"
	if req.MinTemp != nil {
		floor = fmt.Sprintf("%g", *req.MinTemp)
	}
	key := s.cacheKey(w, "temp:%s:%s:%d:%d:%s", d.ID, req.OwnerID, from, to, floor)
	var cached analytics.TemperatureSummary
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	values, truncated, err := s.scan(ctx, domain.MeasurementQuery{
		DeviceID: d.ID,
		OwnerID:  req.OwnerID,
		Kinds:    []domain.SensorKind{domain.SensorEngineTempNormal},
		From:     from,
		To:       to,
		MinValue: req.MinTemp,
	})
	if err != nil {
		return nil, surface(s.logger, "SummarizeEngineTemperature", err)
	}

	summary := analytics.SummarizeTemperature(values, req.MinTemp)
	if summary == nil {
		return nil, nil
	}
	summary.Truncated = truncated
	s.cacheSet(ctx, key, summary)
	return summary, nil
}

// QueryMeasurements lists readings of an owned device, never more than the cap.
func (s *AnalyticsService) QueryMeasurements(ctx context.Context, req MeasurementsRequest) ([]domain.Measurement, error) {
	q := domain.MeasurementQuery{
		OwnerID: req.OwnerID,
		Order:   req.Order,
		Limit:   req.Limit,
	}
	switch q.Order {
	case "":
		q.Order = domain.NewestFirst
	case domain.NewestFirst, domain.OldestFirst:
	default:
		return nil, fmt.Errorf("%w: order %q", domain.ErrValidation, req.Order)
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrValidation)
	}
	if q.Limit == 0 {
		q.Limit = DefaultMeasurementsLimit
	}
	if q.Limit > s.maxRows {
		q.Limit = s.maxRows
	}
	if req.Kind != nil {
		q.Kinds = []domain.SensorKind{*req.Kind}
	}
	if req.Start != nil || req.End != nil {
		w, err := analytics.ResolveWindow(req.Start, req.End, s.now())
		if err != nil {
			return nil, err
		}
		q.From, q.To = w.Bounds()
	}

	d, err := ownedDevice(ctx, s.devices, req.OwnerID, req.Address)
	if err != nil {
		return nil, surface(s.logger, "QueryMeasurements", err)
	}
	q.DeviceID = d.ID

	out, err := s.measurements.Query(ctx, q)
	if err != nil {
		return nil, surface(s.logger, "QueryMeasurements", err)
	}
	return out, nil
}

// scan reads at most maxRows values, newest first, and reports whether the
// cap cut the window short.
func (s *AnalyticsService) scan(ctx context.Context, q domain.MeasurementQuery) ([]float64, bool, error) {
	q.Order = domain.NewestFirst
	q.Limit = s.maxRows
	rows, err := s.measurements.Query(ctx, q)
	if err != nil {
		return nil, false, err
	}

	values := make([]float64, len(rows))
	for i, m := range rows {
		values[i] = m.Value
	}
	truncated := len(rows) >= s.maxRows
	if truncated {
		s.logger.Warn("Analytics scan hit row cap",
			zap.String("device_id", q.DeviceID.String()),
			zap.Int("max_rows", s.maxRows),
		)
	}
	return values, truncated, nil
}

// cacheKey returns "" for a window that has not ended yet: readings can
// still land in it, so its result is not stable.
func (s *AnalyticsService) cacheKey(w analytics.Window, format string, args ...any) string {
	if s.cache == nil || s.cacheTTL <= 0 || !w.End.Before(s.now()) {
		return ""
	}
	return cacheKeyPrefix + fmt.Sprintf(format, args...)
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, out any) bool {
	if key == "" {
		return false
	}
	err := store.GetJSON(ctx, s.cache, key, out)
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrMiss) {
		s.logger.Warn("Analytics cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	if err := store.SetJSON(ctx, s.cache, key, v, s.cacheTTL); err != nil {
		s.logger.Warn("Analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
