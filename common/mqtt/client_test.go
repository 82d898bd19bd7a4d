package mqtt

import (
	"testing"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientOptions(t *testing.T) {
	cfg := &config.MQTTConfig{
		Broker:   "tcp://broker.local:1883",
		ClientID: "car-assistant",
		Username: "svc",
		Password: "secret",
	}

	opts := newClientOptions(cfg)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker.local:1883", opts.Servers[0].Host)
	assert.Equal(t, "car-assistant", opts.ClientID)
	assert.Equal(t, "svc", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.True(t, opts.AutoReconnect)
	assert.True(t, opts.CleanSession)
	assert.Equal(t, int64(60), opts.KeepAlive)
}

func TestNewClientOptions_Anonymous(t *testing.T) {
	opts := newClientOptions(&config.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "x"})

	assert.Empty(t, opts.Username)
	assert.Empty(t, opts.Password)
}
