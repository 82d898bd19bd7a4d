package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/publisher"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
)

// ConfigPublisher delivers device configuration over the broker.
type ConfigPublisher interface {
	PushConfig(ctx context.Context, owner string, addr domain.Address, msg publisher.ConfigMessage) error
}

// ConfigUpdateResult is the persisted device plus whether the push reached the broker.
type ConfigUpdateResult struct {
	Device *domain.Device `json:"device"`
	Pushed bool           `json:"pushed"`
}

// ProvisioningService 账号/设备的自动注册、绑定、解绑与配置
type ProvisioningService struct {
	owners  repository.OwnersRepository
	devices repository.DevicesRepository
	configs ConfigPublisher
	logger  *zap.Logger
}

func NewProvisioningService(store *repository.Store, configs ConfigPublisher, logger *zap.Logger) *ProvisioningService {
	return &ProvisioningService{
		owners:  store.Owners,
		devices: store.Devices,
		configs: configs,
		logger:  logger,
	}
}

// EnsureOwner returns the owner for label, creating it on first contact.
func (s *ProvisioningService) EnsureOwner(ctx context.Context, label string) (domain.ID, error) {
	if strings.TrimSpace(label) == "" || strings.Contains(label, "/") {
		return domain.NilID, fmt.Errorf("%w: owner label %q", domain.ErrValidation, label)
	}
	id, err := s.owners.GetOrCreateOwner(ctx, label)
	return id, surface(s.logger, "EnsureOwner", err)
}

// Handshake is the first-contact upsert: owner and device are created if
// missing, otherwise only last_seen moves. Safe to repeat.
func (s *ProvisioningService) Handshake(ctx context.Context, label string, addr domain.Address) (*domain.Device, error) {
	ownerID, err := s.EnsureOwner(ctx, label)
	if err != nil {
		return nil, err
	}
	d, err := s.devices.UpsertFromHandshake(ctx, ownerID, label, addr)
	if err != nil {
		return nil, surface(s.logger, "Handshake", err)
	}
	return d, nil
}

func (s *ProvisioningService) ListDevices(ctx context.Context, ownerID domain.ID) ([]*domain.Device, error) {
	list, err := s.devices.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, surface(s.logger, "ListDevices", err)
	}
	return list, nil
}

func (s *ProvisioningService) GetOwnedDevice(ctx context.Context, ownerID domain.ID, addr domain.Address) (*domain.Device, error) {
	d, err := ownedDevice(ctx, s.devices, ownerID, addr)
	if err != nil {
		return nil, surface(s.logger, "GetOwnedDevice", err)
	}
	return d, nil
}

// ClaimDevice binds a device that has already announced itself.
func (s *ProvisioningService) ClaimDevice(ctx context.Context, ownerID domain.ID, addr domain.Address) (domain.ClaimStatus, error) {
	status, err := s.devices.Claim(ctx, ownerID, addr)
	if err != nil {
		return "", surface(s.logger, "ClaimDevice", err)
	}
	s.logger.Info("Device claimed",
		zap.String("address", addr.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("status", string(status)),
	)
	return status, nil
}

func (s *ProvisioningService) UnbindDevice(ctx context.Context, ownerID domain.ID, addr domain.Address) error {
	if err := s.devices.Unbind(ctx, ownerID, addr); err != nil {
		return surface(s.logger, "UnbindDevice", err)
	}
	s.logger.Info("Device unbound", zap.String("address", addr.String()), zap.String("owner_id", ownerID.String()))
	return nil
}

// RenameDevice trims name; blank clears it.
func (s *ProvisioningService) RenameDevice(ctx context.Context, ownerID domain.ID, addr domain.Address, name string) (*domain.Device, error) {
	var n *string
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		if utf8.RuneCountInString(trimmed) > domain.MaxDeviceNameLen {
			return nil, fmt.Errorf("%w: name longer than %d characters", domain.ErrValidation, domain.MaxDeviceNameLen)
		}
		n = &trimmed
	}
	d, err := s.devices.Rename(ctx, ownerID, addr, n)
	if err != nil {
		return nil, surface(s.logger, "RenameDevice", err)
	}
	return d, nil
}

// UpdateDeviceConfig persists the new settings and pushes the full config to
// the device. A failed push is reported through Pushed, the update stands.
func (s *ProvisioningService) UpdateDeviceConfig(ctx context.Context, ownerID domain.ID, addr domain.Address, upd domain.DeviceConfigUpdate) (*ConfigUpdateResult, error) {
	if err := validateConfig(upd); err != nil {
		return nil, err
	}

	d, err := s.devices.UpdateConfig(ctx, ownerID, addr, upd)
	if err != nil {
		return nil, surface(s.logger, "UpdateDeviceConfig", err)
	}

	res := &ConfigUpdateResult{Device: d}
	msg := publisher.ConfigMessage{Interval: d.SampleIntervalMs, Threshold: d.AlertThreshold}
	if err := s.configs.PushConfig(ctx, d.TopicLabel, d.Address, msg); err != nil {
		s.logger.Warn("Config push failed",
			zap.String("address", addr.String()),
			zap.Error(err),
		)
		return res, nil
	}
	res.Pushed = true
	return res, nil
}

func validateConfig(upd domain.DeviceConfigUpdate) error {
	if upd.Empty() {
		return fmt.Errorf("%w: no config field supplied", domain.ErrValidation)
	}
	if upd.SampleIntervalMs != nil && *upd.SampleIntervalMs <= 0 {
		return fmt.Errorf("%w: interval must be positive", domain.ErrValidation)
	}
	if upd.AlertThreshold != nil && (math.IsNaN(*upd.AlertThreshold) || math.IsInf(*upd.AlertThreshold, 0)) {
		return fmt.Errorf("%w: threshold must be a finite number", domain.ErrValidation)
	}
	return nil
}

// DeleteDevice removes the device together with its history.
func (s *ProvisioningService) DeleteDevice(ctx context.Context, ownerID domain.ID, addr domain.Address) error {
	if err := s.devices.DeleteDevice(ctx, ownerID, addr); err != nil {
		return surface(s.logger, "DeleteDevice", err)
	}
	s.logger.Info("Device deleted", zap.String("address", addr.String()), zap.String("owner_id", ownerID.String()))
	return nil
}
