package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/config"
)

const ServiceName = "car-assistant"

// Config car-assistant 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}

	Database config.DatabaseConfig
	// DBEnabled=false falls back to the in-memory store (local runs, demos).
	DBEnabled bool

	Redis        config.RedisConfig
	RedisEnabled bool

	MQTT config.MQTTConfig

	Ingest struct {
		SensorTopic string // subscription pattern for readings and handshakes
		AlertTopic  string // subscription pattern for alert acknowledgements
	}

	Analytics struct {
		MaxRows  int
		CacheTTL time.Duration
	}

	Alerts struct {
		DefaultMessage string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBEnabled = getEnvBool("DB_ENABLED", true)
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "car_assistant",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnvBool("REDIS_ENABLED", true)
	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: ServiceName,
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Ingest.SensorTopic = getEnv("MQTT_SENSOR_TOPIC", "+/+/sensor/+")
	cfg.Ingest.AlertTopic = getEnv("MQTT_ALERT_TOPIC", "+/+/alerts")

	cfg.Analytics.MaxRows = getEnvInt("ANALYTICS_MAX_ROWS", 5000)
	if cfg.Analytics.MaxRows <= 0 || cfg.Analytics.MaxRows > 5000 {
		cfg.Analytics.MaxRows = 5000
	}
	ttl := getEnvInt("ANALYTICS_CACHE_TTL_SECONDS", 60)
	if ttl < 0 {
		ttl = 0
	}
	cfg.Analytics.CacheTTL = time.Duration(ttl) * time.Second

	cfg.Alerts.DefaultMessage = getEnv("DEFAULT_ALERT_MESSAGE", "BUZZ")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
