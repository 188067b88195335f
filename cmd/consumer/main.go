package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/fuselink/internal/container"
	"github.com/serroba/fuselink/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	opts := &container.Options{
		DatabaseURL:         getEnv("SERVICE_DATABASE_URL", "memory://"),
		RedisAddr:           getEnv("SERVICE_REDIS_ADDR", "localhost:6379"),
		CacheTTLSeconds:     getEnvInt("SERVICE_CACHE_TTL_SECONDS", 3600),
		ReapIntervalSeconds: getEnvInt("SERVICE_REAP_INTERVAL_SECONDS", 60),
		AllocationAttempts:  getEnvInt("SERVICE_ALLOCATION_ATTEMPTS", 64),
		LogFormat:           getEnv("SERVICE_LOG_FORMAT", "console"),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.StorePackage(injector)
	container.CachePackage(injector)
	container.PublisherGroupPackage(injector)
	container.ObserverPackage(injector)
	container.LinkPackage(injector)
	container.ReaperPackage(injector)
	container.WorkerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)

	if !opts.RedisEnabled() {
		logger.Fatal("the consumer needs Redis: set SERVICE_REDIS_ADDR")
	}

	if container.InProcessStore(opts.DatabaseURL) {
		logger.Warn("in-memory store is private to this process, the reaper will find nothing to erase")
	}

	group, err := do.Invoke[*messaging.Group](injector)
	if err != nil {
		logger.Fatal("failed to build worker group", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Run(ctx); err != nil {
		logger.Error("worker group stopped with errors", zap.Error(err))
	}

	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return v
}
