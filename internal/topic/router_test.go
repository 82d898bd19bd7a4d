package topic

import (
	"testing"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  Event
	}{
		{
			name:  "reading",
			topic: "alice/a1b2c3d4e5f6/sensor/acceleration",
			want:  Event{Type: Reading, OwnerLabel: "alice", Address: "A1B2C3D4E5F6", Kind: "acceleration"},
		},
		{
			name:  "kind is lower-cased",
			topic: "alice/A1B2C3D4E5F6/sensor/Engine-Temp-Normal",
			want:  Event{Type: Reading, OwnerLabel: "alice", Address: "A1B2C3D4E5F6", Kind: "engine-temp-normal"},
		},
		{
			name:  "unknown kind still routes",
			topic: "bob/001122334455/sensor/humidity",
			want:  Event{Type: Reading, OwnerLabel: "bob", Address: "001122334455", Kind: "humidity"},
		},
		{
			name:  "alerts",
			topic: "bob/001122aabbcc/alerts",
			want:  Event{Type: AlertAck, OwnerLabel: "bob", Address: "001122AABBCC"},
		},
		{name: "short address", topic: "alice/a1b2c3d4e5/sensor/acceleration", want: Event{Type: NoMatch}},
		{name: "long address", topic: "alice/a1b2c3d4e5f6a7/sensor/acceleration", want: Event{Type: NoMatch}},
		{name: "non-hex address", topic: "alice/z1b2c3d4e5f6/sensor/acceleration", want: Event{Type: NoMatch}},
		{name: "colon address", topic: "alice/a1:b2:c3:d4:e5:f6/sensor/acceleration", want: Event{Type: NoMatch}},
		{name: "empty owner", topic: "/a1b2c3d4e5f6/sensor/acceleration", want: Event{Type: NoMatch}},
		{name: "missing kind", topic: "alice/a1b2c3d4e5f6/sensor/", want: Event{Type: NoMatch}},
		{name: "extra segment", topic: "alice/a1b2c3d4e5f6/sensor/acceleration/x", want: Event{Type: NoMatch}},
		{name: "config is publish only", topic: "alice/a1b2c3d4e5f6/config", want: Event{Type: NoMatch}},
		{name: "foreign traffic", topic: "logs/sensor-ingestor", want: Event{Type: NoMatch}},
		{name: "empty", topic: "", want: Event{Type: NoMatch}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.topic))
		})
	}
}

func TestTopicBuilders(t *testing.T) {
	addr := domain.Address("A1B2C3D4E5F6")

	assert.Equal(t, "alice/A1B2C3D4E5F6/alerts", AlertTopic("alice", addr))
	assert.Equal(t, "alice/A1B2C3D4E5F6/config", ConfigTopic("alice", addr))

	// outbound alert topics parse back as acknowledgements
	assert.Equal(t, AlertAck, Parse(AlertTopic("alice", addr)).Type)
}
