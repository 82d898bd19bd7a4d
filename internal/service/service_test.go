package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/publisher"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
)

const testAddr = domain.Address("AABBCCDDEEFF")

type mockConfigPublisher struct {
	mock.Mock
}

func (m *mockConfigPublisher) PushConfig(ctx context.Context, owner string, addr domain.Address, msg publisher.ConfigMessage) error {
	return m.Called(ctx, owner, addr, msg).Error(0)
}

type mockAlertPublisher struct {
	mock.Mock
}

func (m *mockAlertPublisher) PublishAlert(ctx context.Context, owner string, addr domain.Address, message string) error {
	return m.Called(ctx, owner, addr, message).Error(0)
}

// failingDevices fails every call it overrides; the rest panic via the nil interface.
type failingDevices struct {
	repository.DevicesRepository
	err error
}

func (f failingDevices) ListByOwner(context.Context, domain.ID) ([]*domain.Device, error) {
	return nil, f.err
}

func (f failingDevices) Claim(context.Context, domain.ID, domain.Address) (domain.ClaimStatus, error) {
	return "", f.err
}
