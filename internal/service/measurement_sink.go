package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
)

// MeasurementSink validates and stores sensor readings.
type MeasurementSink struct {
	measurements repository.MeasurementsRepository
	logger       *zap.Logger
}

func NewMeasurementSink(measurements repository.MeasurementsRepository, logger *zap.Logger) *MeasurementSink {
	return &MeasurementSink{measurements: measurements, logger: logger}
}

// Append stores one reading. Nothing is written when the kind or payload is invalid.
func (s *MeasurementSink) Append(ctx context.Context, deviceID domain.ID, rawKind string, payload []byte) (*domain.Measurement, error) {
	kind, err := domain.ParseSensorKind(rawKind)
	if err != nil {
		return nil, err
	}
	r, err := domain.ParseReading(payload)
	if err != nil {
		return nil, err
	}

	m, err := s.measurements.Append(ctx, domain.NewMeasurement{
		DeviceID:  deviceID,
		Kind:      kind,
		Timestamp: r.Timestamp,
		Value:     r.Value,
	})
	if err != nil {
		return nil, surface(s.logger, "Append", err)
	}
	return m, nil
}
