package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	mqttcommon "github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/mqtt"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/topic"
)

// Subscriber is the part of the shared MQTT client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Provisioner performs the first-contact upsert.
type Provisioner interface {
	Handshake(ctx context.Context, label string, addr domain.Address) (*domain.Device, error)
}

// Sink stores a validated reading.
type Sink interface {
	Append(ctx context.Context, deviceID domain.ID, rawKind string, payload []byte) (*domain.Measurement, error)
}

// Topics are the subscription patterns.
type Topics struct {
	Sensor string
	Alerts string
	QoS    byte
}

// Stats are the ingestion counters since start.
type Stats struct {
	Received   uint64 `json:"received"`
	Stored     uint64 `json:"stored"`
	Handshakes uint64 `json:"handshakes"`
	Dropped    uint64 `json:"dropped"`
}

// MQTTConsumer MQTT 上行消息消费者
//
// Every message is handled to completion or dropped with a log line; no
// error or panic escapes to the transport.
type MQTTConsumer struct {
	topics      Topics
	client      Subscriber
	provisioner Provisioner
	sink        Sink
	logger      *zap.Logger

	received   atomic.Uint64
	stored     atomic.Uint64
	handshakes atomic.Uint64
	dropped    atomic.Uint64
}

func NewMQTTConsumer(topics Topics, client Subscriber, provisioner Provisioner, sink Sink, logger *zap.Logger) *MQTTConsumer {
	return &MQTTConsumer{
		topics:      topics,
		client:      client,
		provisioner: provisioner,
		sink:        sink,
		logger:      logger,
	}
}

// Start subscribes both patterns and returns.
func (c *MQTTConsumer) Start(_ context.Context) error {
	for _, pattern := range []string{c.topics.Sensor, c.topics.Alerts} {
		if err := c.client.Subscribe(pattern, c.topics.QoS, c.handleMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
		}
	}
	c.logger.Info("MQTT consumer started",
		zap.String("sensor_topic", c.topics.Sensor),
		zap.String("alert_topic", c.topics.Alerts),
	)
	return nil
}

// Stop 取消订阅
func (c *MQTTConsumer) Stop(_ context.Context) error {
	if err := c.client.Unsubscribe(c.topics.Sensor, c.topics.Alerts); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
		return err
	}
	c.logger.Info("MQTT consumer stopped", zap.Any("stats", c.Stats()))
	return nil
}

func (c *MQTTConsumer) Stats() Stats {
	return Stats{
		Received:   c.received.Load(),
		Stored:     c.stored.Load(),
		Handshakes: c.handshakes.Load(),
		Dropped:    c.dropped.Load(),
	}
}

// handleMessage adapts HandleMessage to the transport callback; it always
// returns nil so the transport never sees an ingestion failure.
func (c *MQTTConsumer) handleMessage(name string, payload []byte) error {
	c.HandleMessage(context.Background(), name, payload)
	return nil
}

// HandleMessage routes one inbound message.
func (c *MQTTConsumer) HandleMessage(ctx context.Context, name string, payload []byte) {
	c.received.Add(1)
	defer func() {
		if r := recover(); r != nil {
			c.dropped.Add(1)
			c.logger.Error("Panic while handling message",
				zap.String("topic", name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	ev := topic.Parse(name)
	switch ev.Type {
	case topic.NoMatch:
		c.drop(name, domain.ErrMalformedTopic)
	case topic.AlertAck:
		c.logger.Debug("Alert channel message ignored",
			zap.String("topic", name),
			zap.Int("payload_size", len(payload)),
		)
	case topic.Reading:
		c.handleReading(ctx, name, ev, payload)
	}
}

func (c *MQTTConsumer) handleReading(ctx context.Context, name string, ev topic.Event, payload []byte) {
	if domain.IsHandshake(payload) {
		d, err := c.provisioner.Handshake(ctx, ev.OwnerLabel, ev.Address)
		if err != nil {
			c.drop(name, err)
			return
		}
		c.handshakes.Add(1)
		c.logger.Info("Device handshake",
			zap.String("owner", ev.OwnerLabel),
			zap.String("address", d.Address.String()),
		)
		return
	}

	// validate before provisioning so a bad message leaves no trace
	if _, err := domain.ParseSensorKind(ev.Kind); err != nil {
		c.drop(name, err)
		return
	}
	if _, err := domain.ParseReading(payload); err != nil {
		c.drop(name, err)
		return
	}

	d, err := c.provisioner.Handshake(ctx, ev.OwnerLabel, ev.Address)
	if err != nil {
		c.drop(name, err)
		return
	}
	m, err := c.sink.Append(ctx, d.ID, ev.Kind, payload)
	if err != nil {
		c.drop(name, err)
		return
	}
	c.stored.Add(1)
	c.logger.Debug("Measurement stored",
		zap.String("address", d.Address.String()),
		zap.String("kind", string(m.Kind)),
		zap.Float64("value", m.Value),
		zap.Int64("timestamp", m.Timestamp),
	)
}

func (c *MQTTConsumer) drop(name string, err error) {
	c.dropped.Add(1)
	if errors.Is(err, domain.ErrStorage) {
		c.logger.Error("Message dropped", zap.String("topic", name), zap.Error(err))
		return
	}
	c.logger.Warn("Message dropped", zap.String("topic", name), zap.String("reason", err.Error()))
}
