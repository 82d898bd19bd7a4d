package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/database"
	mqttcommon "github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/mqtt"
	rediscommon "github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/redis"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/config"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/consumer"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/publisher"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/repository"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/store"
)

// App 进程级组件：连接、仓储、服务与消费者
type App struct {
	config *config.Config
	logger *zap.Logger

	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqttcommon.Client

	Provisioning *ProvisioningService
	Sink         *MeasurementSink
	Analytics    *AnalyticsService
	Alerts       *AlertService
	Consumer     *consumer.MQTTConsumer

	server *Server
}

// NewApp opens every connection and builds the service graph. The MQTT
// client is created once and shared by the consumer and the publisher.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{config: cfg, logger: logger}

	var repos *repository.Store
	if cfg.DBEnabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		repos = repository.NewPostgresStore(db, logger)
	} else {
		logger.Warn("DB_ENABLED=false, using in-memory store")
		repos = repository.NewMemoryStore().Store()
	}

	var cache store.KV
	if cfg.RedisEnabled {
		client, err := rediscommon.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			// analytics still works uncached
			logger.Warn("Redis unavailable, analytics cache disabled", zap.Error(err))
		} else {
			a.redis = client
			cache = store.NewRedisKV(client)
		}
	}

	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	a.mqttClient = mqttClient

	pub := publisher.NewMQTTPublisher(mqttClient, logger)
	a.Provisioning = NewProvisioningService(repos, pub, logger)
	a.Sink = NewMeasurementSink(repos.Measurements, logger)
	a.Analytics = NewAnalyticsService(repos, cache, cfg.Analytics.CacheTTL, cfg.Analytics.MaxRows, logger)
	a.Alerts = NewAlertService(repos, pub, cfg.Alerts.DefaultMessage, logger)
	a.Consumer = consumer.NewMQTTConsumer(consumer.Topics{
		Sensor: cfg.Ingest.SensorTopic,
		Alerts: cfg.Ingest.AlertTopic,
		QoS:    cfg.MQTT.QoS,
	}, mqttClient, a.Provisioning, a.Sink, logger)

	return a, nil
}

// Broker is the shared MQTT connection, for health reporting.
func (a *App) Broker() *mqttcommon.Client {
	return a.mqttClient
}

// Start begins ingestion and serves handler on the configured address.
// The returned channel reports a fatal HTTP listener error.
func (a *App) Start(ctx context.Context, handler http.Handler) (<-chan error, error) {
	if err := a.Consumer.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MQTT consumer: %w", err)
	}
	a.server = NewServer(a.config.HTTP.Addr, handler, a.logger)
	return a.server.Start(), nil
}

// Stop releases everything in reverse order of acquisition.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("Stopping car-assistant")

	if a.Consumer != nil {
		if err := a.Consumer.Stop(ctx); err != nil {
			a.logger.Error("Error stopping consumer", zap.Error(err))
		}
	}
	if a.server != nil {
		if err := a.server.Stop(ctx); err != nil {
			a.logger.Error("Error stopping HTTP server", zap.Error(err))
		}
	}
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	a.closeStores()

	a.logger.Info("car-assistant stopped")
	return nil
}

func (a *App) closeStores() {
	if a.redis != nil {
		if err := rediscommon.Close(a.redis); err != nil {
			a.logger.Error("Error closing redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Error("Error closing database", zap.Error(err))
		}
	}
}
