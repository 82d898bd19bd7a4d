package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
)

// MaxAlertMessageLen bounds an alert text in characters.
const MaxAlertMessageLen = 256

// AlertPublisher delivers an alert to a device.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, owner string, addr domain.Address, message string) error
}

// AlertService 向设备下发告警并记录
type AlertService struct {
	devices        repository.DevicesRepository
	alerts         repository.AlertsRepository
	publisher      AlertPublisher
	defaultMessage string
	logger         *zap.Logger
}

func NewAlertService(repos *repository.Store, pub AlertPublisher, defaultMessage string, logger *zap.Logger) *AlertService {
	if defaultMessage == "" {
		defaultMessage = "BUZZ"
	}
	return &AlertService{
		devices:        repos.Devices,
		alerts:         repos.Alerts,
		publisher:      pub,
		defaultMessage: defaultMessage,
		logger:         logger,
	}
}

// SendAlert publishes message (or the default) to the device and records it.
// Only delivered alerts are recorded.
func (s *AlertService) SendAlert(ctx context.Context, ownerID domain.ID, addr domain.Address, message string) (*domain.Alert, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = s.defaultMessage
	}
	if utf8.RuneCountInString(message) > MaxAlertMessageLen {
		return nil, fmt.Errorf("%w: alert message longer than %d characters", domain.ErrValidation, MaxAlertMessageLen)
	}

	d, err := ownedDevice(ctx, s.devices, ownerID, addr)
	if err != nil {
		return nil, surface(s.logger, "SendAlert", err)
	}

	if err := s.publisher.PublishAlert(ctx, d.TopicLabel, d.Address, message); err != nil {
		s.logger.Warn("Alert delivery failed", zap.String("address", addr.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %s", domain.ErrDeliveryFailed, addr)
	}

	a, err := s.alerts.InsertAlert(ctx, d.ID, message)
	if err != nil {
		return nil, surface(s.logger, "SendAlert", err)
	}
	s.logger.Info("Alert sent", zap.String("address", addr.String()), zap.String("message", message))
	return a, nil
}

func (s *AlertService) ListAlerts(ctx context.Context, ownerID domain.ID, addr domain.Address, limit int) ([]domain.Alert, error) {
	d, err := ownedDevice(ctx, s.devices, ownerID, addr)
	if err != nil {
		return nil, surface(s.logger, "ListAlerts", err)
	}
	if limit <= 0 {
		limit = DefaultMeasurementsLimit
	}
	out, err := s.alerts.ListAlerts(ctx, d.ID, limit)
	if err != nil {
		return nil, surface(s.logger, "ListAlerts", err)
	}
	return out, nil
}
