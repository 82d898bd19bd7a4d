package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/topic"
)

// QoS levels the device firmware subscribes with.
const (
	ConfigQoS byte = 1
	AlertQoS  byte = 0
)

// Transport is the part of the shared MQTT client used for outbound traffic.
type Transport interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// ConfigMessage is the config push body understood by the firmware.
type ConfigMessage struct {
	Interval  int     `json:"interval"`
	Threshold float64 `json:"threshold"`
}

// MQTTPublisher 下行消息发布（配置下发、告警）
type MQTTPublisher struct {
	transport Transport
	logger    *zap.Logger
}

func NewMQTTPublisher(transport Transport, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{transport: transport, logger: logger}
}

// PushConfig publishes the device's current interval/threshold to {owner}/{addr}/config.
func (p *MQTTPublisher) PushConfig(_ context.Context, owner string, addr domain.Address, msg ConfigMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	name := topic.ConfigTopic(owner, addr)
	if err := p.transport.Publish(name, ConfigQoS, false, payload); err != nil {
		return fmt.Errorf("%w: publish %s: %v", domain.ErrDeliveryFailed, name, err)
	}
	p.logger.Debug("Config pushed", zap.String("topic", name), zap.ByteString("payload", payload))
	return nil
}

// PublishAlert sends a raw text alert to {owner}/{addr}/alerts.
func (p *MQTTPublisher) PublishAlert(_ context.Context, owner string, addr domain.Address, message string) error {
	name := topic.AlertTopic(owner, addr)
	if err := p.transport.Publish(name, AlertQoS, false, []byte(message)); err != nil {
		return fmt.Errorf("%w: publish %s: %v", domain.ErrDeliveryFailed, name, err)
	}
	p.logger.Debug("Alert published", zap.String("topic", name), zap.String("message", message))
	return nil
}
