// cmd/cohost/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cohost-dashboard/internal/cohost"
	"cohost-dashboard/internal/common/config"
	"cohost-dashboard/internal/common/database"
	"cohost-dashboard/internal/common/logger"
	"cohost-dashboard/internal/common/observability"
	"cohost-dashboard/internal/dashboard"
	"cohost-dashboard/internal/dashboard/store"
	"cohost-dashboard/internal/server"
)

const sweepInterval = time.Minute

// sessionStore is what the process needs from either backend.
type sessionStore interface {
	dashboard.Store
	server.Pinger
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting co-host dashboard...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	var outputs []string
	if cfg.Logging.Output != "" {
		outputs = append(outputs, cfg.Logging.Output)
	}
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format, outputs...)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if cfg.EnvFile != "" {
		zapLog.Info("loaded environment file", zap.String("path", cfg.EnvFile))
	}

	obs, err := observability.New(observability.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
	})
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	zapLog.Info("observability ready", zap.Bool("tracing", obs.TracingEnabled()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, closeStore := openSessionStore(ctx, cfg, zapLog)

	gateway := cohost.NewClient(cohost.LoadConfig(cfg.CoHostAPI), log)
	controller := dashboard.NewController(
		dashboard.Config{
			RequesterID: cfg.Session.RequesterID,
			Preferences: cohost.DefaultSellerPreferences(),
		},
		gateway, sessions, obs, log,
	)

	srvConfig := server.LoadConfig(cfg)
	srv, err := server.New(srvConfig, controller, sessions, log)
	if err != nil {
		zapLog.Fatal("server init failed", zap.Error(err))
	}

	go func() {
		if err := srv.Run(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	zapLog.Info("co-host dashboard started",
		zap.String("address", srvConfig.Address),
		zap.String("cohostAPI", cfg.CoHostAPI.BaseURL),
		zap.String("sessionStore", cfg.Session.Store),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zapLog.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), srvConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if err := closeStore(); err != nil {
		zapLog.Error("session store close failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}

// openSessionStore connects the configured backend and returns it with its closer.
func openSessionStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (sessionStore, func() error) {
	ttl := config.GetDuration(cfg.Session.TTL)

	if cfg.Session.Store != "redis" {
		mem := store.NewMemory(ttl)
		if ttl > 0 {
			go mem.RunSweeper(ctx, sweepInterval)
		}
		zapLog.Info("using in-memory session store", zap.Duration("ttl", ttl))
		return mem, mem.Close
	}

	var rdb *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(ctx, cfg.Database.Redis)
		return err
	}, 10, time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully", zap.String("address", cfg.Database.Redis.Address))

	return store.NewRedis(rdb.Client, ttl), rdb.Close
}
