package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
)

var callerErrors = []error{
	domain.ErrMalformedTopic,
	domain.ErrMalformedPayload,
	domain.ErrUnknownSensorKind,
	domain.ErrOwnershipConflict,
	domain.ErrPermissionDenied,
	domain.ErrNotFound,
	domain.ErrValidation,
	domain.ErrDeliveryFailed,
}

// surface passes taxonomy errors through and hides everything else behind
// ErrStorage after logging the cause.
func surface(logger *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range callerErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	logger.Error(op+" failed", zap.Error(err))
	return domain.ErrStorage
}

// ownedDevice loads addr and checks that ownerID holds the claim.
func ownedDevice(ctx context.Context, devices repository.DevicesRepository, ownerID domain.ID, addr domain.Address) (*domain.Device, error) {
	d, err := devices.GetByAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !d.OwnedBy(ownerID) {
		return nil, domain.ErrPermissionDenied
	}
	return d, nil
}
