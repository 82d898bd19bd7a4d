package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/common/logger"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/config"
	httpapi "github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/http"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	lg, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, config.ServiceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	lg.Info("Starting car-assistant",
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Bool("db_enabled", cfg.DBEnabled),
		zap.Bool("redis_enabled", cfg.RedisEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := service.NewApp(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to create service", zap.Error(err))
	}

	router := httpapi.NewRouter(lg)
	router.RegisterHealthRoutes(app.Consumer, app.Broker())
	router.RegisterDeviceRoutes(httpapi.NewDeviceHandler(app.Provisioning, app.Analytics, app.Alerts, lg))
	router.RegisterStatsRoutes(httpapi.NewStatsHandler(app.Analytics, lg))

	serveErr, err := app.Start(ctx, router)
	if err != nil {
		lg.Fatal("Failed to start service", zap.Error(err))
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serveErr:
		lg.Error("HTTP server exited, shutting down", zap.Error(err))
	}

	// 优雅关闭
	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		lg.Error("Error during shutdown", zap.Error(err))
	}
}
