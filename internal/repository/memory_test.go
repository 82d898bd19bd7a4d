package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

func TestMemoryStore_HandshakeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	alice, err := s.GetOrCreateOwner(ctx, "alice")
	require.NoError(t, err)
	again, err := s.GetOrCreateOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, again)

	first, err := s.UpsertFromHandshake(ctx, alice, "alice", testAddr)
	require.NoError(t, err)
	second, err := s.UpsertFromHandshake(ctx, alice, "alice", testAddr)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice", second.OwnerLabel)
	assert.Equal(t, domain.DefaultSampleIntervalMs, second.SampleIntervalMs)
	assert.Equal(t, domain.DefaultAlertThreshold, second.AlertThreshold)

	list, err := s.ListByOwner(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore_HandshakeNeverReclaims(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, _ := s.GetOrCreateOwner(ctx, "alice")
	bob, _ := s.GetOrCreateOwner(ctx, "bob")

	_, err := s.UpsertFromHandshake(ctx, alice, "alice", testAddr)
	require.NoError(t, err)
	d, err := s.UpsertFromHandshake(ctx, bob, "bob", testAddr)
	require.NoError(t, err)

	assert.True(t, d.OwnedBy(alice))
	assert.Equal(t, "bob", d.TopicLabel, "topics follow the latest announcement")
}

func TestMemoryStore_ClaimUnbindStateMachine(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, _ := s.GetOrCreateOwner(ctx, "alice")
	bob, _ := s.GetOrCreateOwner(ctx, "bob")

	_, err := s.Claim(ctx, alice, testAddr)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.UpsertFromHandshake(ctx, alice, "alice", testAddr)
	require.NoError(t, err)

	status, err := s.Claim(ctx, alice, testAddr)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimAlreadyOwned, status)

	_, err = s.Claim(ctx, bob, testAddr)
	assert.ErrorIs(t, err, domain.ErrOwnershipConflict)

	assert.ErrorIs(t, s.Unbind(ctx, bob, testAddr), domain.ErrPermissionDenied)

	name := "Family car"
	_, err = s.Rename(ctx, alice, testAddr, &name)
	require.NoError(t, err)
	require.NoError(t, s.Unbind(ctx, alice, testAddr))

	d, err := s.GetByAddress(ctx, testAddr)
	require.NoError(t, err)
	assert.False(t, d.IsClaimed())
	assert.Nil(t, d.Name)
	assert.Nil(t, d.ClaimedAt)

	status, err = s.Claim(ctx, bob, testAddr)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimClaimed, status)

	d, err = s.GetByAddress(ctx, testAddr)
	require.NoError(t, err)
	assert.True(t, d.OwnedBy(bob))
	assert.Equal(t, "bob", d.OwnerLabel)
	assert.Equal(t, "alice", d.TopicLabel, "claim does not move the firmware's topics")
}

func TestMemoryStore_MeasurementsFollowOwnerAtWriteTime(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, _ := s.GetOrCreateOwner(ctx, "alice")
	bob, _ := s.GetOrCreateOwner(ctx, "bob")
	d, _ := s.UpsertFromHandshake(ctx, alice, "alice", testAddr)

	_, err := s.Append(ctx, domain.NewMeasurement{DeviceID: d.ID, Kind: domain.SensorAcceleration, Timestamp: 10, Value: 1.0})
	require.NoError(t, err)

	require.NoError(t, s.Unbind(ctx, alice, testAddr))
	m, err := s.Append(ctx, domain.NewMeasurement{DeviceID: d.ID, Kind: domain.SensorAcceleration, Timestamp: 20, Value: 2.0})
	require.NoError(t, err)
	assert.Nil(t, m.OwnerID)

	_, err = s.Claim(ctx, bob, testAddr)
	require.NoError(t, err)
	_, err = s.Append(ctx, domain.NewMeasurement{DeviceID: d.ID, Kind: domain.SensorAcceleration, Timestamp: 30, Value: 3.0})
	require.NoError(t, err)

	forAlice, err := s.Query(ctx, domain.MeasurementQuery{DeviceID: d.ID, OwnerID: alice})
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
	assert.Equal(t, int64(10), forAlice[0].Timestamp)

	forBob, err := s.Query(ctx, domain.MeasurementQuery{DeviceID: d.ID, OwnerID: bob})
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, int64(30), forBob[0].Timestamp)
}

func TestMemoryStore_QueryFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, _ := s.GetOrCreateOwner(ctx, "alice")
	d, _ := s.UpsertFromHandshake(ctx, alice, "alice", testAddr)

	for i, v := range []float64{30, 60, 90, 45} {
		_, err := s.Append(ctx, domain.NewMeasurement{
			DeviceID: d.ID, Kind: domain.SensorEngineTempNormal, Timestamp: int64(100 + i), Value: v,
		})
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, domain.NewMeasurement{DeviceID: d.ID, Kind: domain.SensorAcceleration, Timestamp: 101, Value: 1})
	require.NoError(t, err)

	floor := 45.0
	out, err := s.Query(ctx, domain.MeasurementQuery{
		DeviceID: d.ID,
		OwnerID:  alice,
		Kinds:    []domain.SensorKind{domain.SensorEngineTempNormal},
		From:     100,
		To:       102,
		MinValue: &floor,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 90.0, out[0].Value, "newest first by default")
	assert.Equal(t, 60.0, out[1].Value)

	out, err = s.Query(ctx, domain.MeasurementQuery{DeviceID: d.ID, OwnerID: alice, Order: domain.OldestFirst, Limit: 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(100), out[0].Timestamp)
}

func TestMemoryStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, _ := s.GetOrCreateOwner(ctx, "alice")
	d, _ := s.UpsertFromHandshake(ctx, alice, "alice", testAddr)

	_, err := s.Append(ctx, domain.NewMeasurement{DeviceID: d.ID, Kind: domain.SensorAcceleration, Timestamp: 1, Value: 1})
	require.NoError(t, err)
	_, err = s.InsertAlert(ctx, d.ID, "BUZZ")
	require.NoError(t, err)

	require.NoError(t, s.DeleteDevice(ctx, alice, testAddr))

	_, err = s.GetByAddress(ctx, testAddr)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	alerts, err := s.ListAlerts(ctx, d.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	out, err := s.Query(ctx, domain.MeasurementQuery{DeviceID: d.ID, OwnerID: alice})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMemoryStore_UpdateConfigPartial(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, _ := s.GetOrCreateOwner(ctx, "alice")
	_, _ = s.UpsertFromHandshake(ctx, alice, "alice", testAddr)

	th := 30.5
	d, err := s.UpdateConfig(ctx, alice, testAddr, domain.DeviceConfigUpdate{AlertThreshold: &th})
	require.NoError(t, err)
	assert.Equal(t, 30.5, d.AlertThreshold)
	assert.Equal(t, domain.DefaultSampleIntervalMs, d.SampleIntervalMs)

	_, err = s.UpdateConfig(ctx, domain.NewID(), testAddr, domain.DeviceConfigUpdate{AlertThreshold: &th})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}
