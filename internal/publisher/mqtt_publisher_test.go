package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Publish(topic string, qos byte, retained bool, payload []byte) error {
	args := m.Called(topic, qos, retained, payload)
	return args.Error(0)
}

func TestPushConfig(t *testing.T) {
	tr := &mockTransport{}
	tr.On("Publish", "alice/AABBCCDDEEFF/config", ConfigQoS, false, []byte(`{"interval":2000,"threshold":30.5}`)).
		Return(nil).Once()
	p := NewMQTTPublisher(tr, zap.NewNop())

	err := p.PushConfig(context.Background(), "alice", "AABBCCDDEEFF", ConfigMessage{Interval: 2000, Threshold: 30.5})

	require.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestPublishAlert(t *testing.T) {
	tr := &mockTransport{}
	tr.On("Publish", "alice/AABBCCDDEEFF/alerts", AlertQoS, false, []byte("BUZZ")).Return(nil).Once()
	p := NewMQTTPublisher(tr, zap.NewNop())

	require.NoError(t, p.PublishAlert(context.Background(), "alice", "AABBCCDDEEFF", "BUZZ"))
	tr.AssertExpectations(t)
}

func TestPublishAlert_TransportFailure(t *testing.T) {
	tr := &mockTransport{}
	tr.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("not connected"))
	p := NewMQTTPublisher(tr, zap.NewNop())

	err := p.PublishAlert(context.Background(), "alice", "AABBCCDDEEFF", "BUZZ")

	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
}
