package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
)

func newAlertFixture(t *testing.T) (*AlertService, *mockAlertPublisher, domain.ID) {
	t.Helper()
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	owner, _ := mem.GetOrCreateOwner(ctx, "alice")
	_, err := mem.UpsertFromHandshake(ctx, owner, "alice", testAddr)
	require.NoError(t, err)

	pub := &mockAlertPublisher{}
	return NewAlertService(mem.Store(), pub, "BUZZ", zap.NewNop()), pub, owner
}

func TestSendAlert_DefaultMessage(t *testing.T) {
	svc, pub, owner := newAlertFixture(t)
	ctx := context.Background()
	pub.On("PublishAlert", mock.Anything, "alice", testAddr, "BUZZ").Return(nil).Once()

	a, err := svc.SendAlert(ctx, owner, testAddr, "  ")

	require.NoError(t, err)
	assert.Equal(t, "BUZZ", a.Message)
	pub.AssertExpectations(t)

	list, err := svc.ListAlerts(ctx, owner, testAddr, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestSendAlert_DeliveryFailureRecordsNothing(t *testing.T) {
	svc, pub, owner := newAlertFixture(t)
	ctx := context.Background()
	pub.On("PublishAlert", mock.Anything, "alice", testAddr, "Check oil").Return(domain.ErrDeliveryFailed)

	_, err := svc.SendAlert(ctx, owner, testAddr, "Check oil")
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)

	list, err := svc.ListAlerts(ctx, owner, testAddr, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendAlert_Rejected(t *testing.T) {
	svc, pub, owner := newAlertFixture(t)
	ctx := context.Background()

	_, err := svc.SendAlert(ctx, domain.NewID(), testAddr, "hi")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.SendAlert(ctx, owner, "001122334455", "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.SendAlert(ctx, owner, testAddr, strings.Repeat("a", MaxAlertMessageLen+1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	pub.AssertNotCalled(t, "PublishAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendAlert_AfterTransferUsesDeviceTopics(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	alice, _ := mem.GetOrCreateOwner(ctx, "alice")
	bob, _ := mem.GetOrCreateOwner(ctx, "bob")
	_, err := mem.UpsertFromHandshake(ctx, alice, "alice", testAddr)
	require.NoError(t, err)
	require.NoError(t, mem.Unbind(ctx, alice, testAddr))
	_, err = mem.Claim(ctx, bob, testAddr)
	require.NoError(t, err)

	pub := &mockAlertPublisher{}
	pub.On("PublishAlert", mock.Anything, "alice", testAddr, "BUZZ").Return(nil).Once()
	svc := NewAlertService(mem.Store(), pub, "BUZZ", zap.NewNop())

	_, err = svc.SendAlert(ctx, bob, testAddr, "")

	require.NoError(t, err)
	pub.AssertExpectations(t)
}
