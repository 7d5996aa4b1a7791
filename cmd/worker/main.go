package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/app"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/config"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/logger"
)

// Worker consumes certificate events from the queue and records them in the
// events table.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.QueueBackend == config.BackendMemory {
		zlog.Fatal("worker needs a shared queue, set QUEUE_BACKEND=redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		zlog.Info("shutdown signal received")
		cancel()
	}()

	startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
	a, err := app.New(startCtx, cfg, zlog)
	if err != nil {
		cancelStart()
		zlog.Fatal("startup failed", zap.Error(err))
	}
	sink := a.Sink(startCtx)
	cancelStart()
	defer func() { _ = a.Close() }()

	if err := a.Consume(ctx, sink); err != nil {
		zlog.Error("worker failed", zap.Error(err))
		return
	}
	zlog.Info("worker stopped")
}
