package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/simulator"
)

type simConfig struct {
	Port         int           `mapstructure:"port"`
	BackendURL   string        `mapstructure:"backend_url"`
	DeviceKey    string        `mapstructure:"device_key"`
	TenantID     int64         `mapstructure:"tenant_id"`
	GreenhouseID int64         `mapstructure:"greenhouse_id"`
	PushInterval time.Duration `mapstructure:"push_interval"`
}

func main() {
	godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load simulator configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	state := simulator.NewState(time.Now().UnixNano())
	router := simulator.Router(state, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Push readings to the backend only when a target is configured; a bare
	// simulator still serves its own endpoints for polling.
	if cfg.BackendURL != "" {
		pusher := simulator.NewPusher(state, cfg.BackendURL, cfg.DeviceKey,
			cfg.TenantID, cfg.GreenhouseID, cfg.PushInterval, logger)
		go pusher.Run(ctx)
		logger.Info("Push loop started",
			zap.String("backend", cfg.BackendURL),
			zap.Duration("interval", cfg.PushInterval))
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Simulator starting", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start simulator", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down simulator...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Simulator forced to shutdown", zap.Error(err))
	}
}

func loadConfig() (*simConfig, error) {
	v := viper.New()

	v.SetDefault("port", 8090)
	v.SetDefault("push_interval", "30s")
	v.SetDefault("tenant_id", 1)
	v.SetDefault("greenhouse_id", 1)
	v.SetDefault("backend_url", "")
	v.SetDefault("device_key", "")

	v.SetEnvPrefix("sim")
	v.AutomaticEnv()

	var cfg simConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.BackendURL != "" && cfg.DeviceKey == "" {
		return nil, fmt.Errorf("device_key is required when backend_url is set")
	}

	return &cfg, nil
}
