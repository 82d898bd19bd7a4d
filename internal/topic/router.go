// Package topic parses and builds the MQTT channel names used by the devices.
//
//	{owner}/{mac12hex}/sensor/{kind}   reading or "hello" handshake
//	{owner}/{mac12hex}/alerts          alert delivery / acknowledgement
//	{owner}/{mac12hex}/config          config push (publish only)
package topic

import (
	"strings"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

// EventType classifies a channel name.
type EventType int

const (
	NoMatch EventType = iota
	Reading
	AlertAck
)

func (t EventType) String() string {
	switch t {
	case Reading:
		return "reading"
	case AlertAck:
		return "alert_ack"
	default:
		return "no_match"
	}
}

// Event is the parsed form of a channel name. Kind is lower-cased but not yet
// validated against the known sensor kinds.
type Event struct {
	Type       EventType
	OwnerLabel string
	Address    domain.Address
	Kind       string
}

const (
	segSensor = "sensor"
	segAlerts = "alerts"
	segConfig = "config"
)

// Parse never fails: anything outside the grammar is NoMatch.
func Parse(name string) Event {
	parts := strings.Split(name, "/")
	if len(parts) < 3 || parts[0] == "" || !domain.IsHexAddress(parts[1]) {
		return Event{Type: NoMatch}
	}

	addr := domain.Address(strings.ToUpper(parts[1]))

	switch {
	case len(parts) == 4 && parts[2] == segSensor && parts[3] != "":
		return Event{
			Type:       Reading,
			OwnerLabel: parts[0],
			Address:    addr,
			Kind:       strings.ToLower(parts[3]),
		}
	case len(parts) == 3 && parts[2] == segAlerts:
		return Event{Type: AlertAck, OwnerLabel: parts[0], Address: addr}
	}
	return Event{Type: NoMatch}
}

// AlertTopic is the channel alerts are delivered to the device on.
func AlertTopic(owner string, addr domain.Address) string {
	return owner + "/" + string(addr) + "/" + segAlerts
}

// ConfigTopic is the channel config pushes are published on.
func ConfigTopic(owner string, addr domain.Address) string {
	return owner + "/" + string(addr) + "/" + segConfig
}
