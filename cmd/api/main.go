package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/app"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/audit"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/config"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/logger"
)

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

	if logger.IsProduction(cfg.Env) {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, zlog); err != nil {
		zlog.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	a, err := app.New(startCtx, cfg, zlog)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			zlog.Warn("close failed", zap.Error(err))
		}
	}()

	a.LogAssetCheck(ctx)

	// Without a shared broker nothing else drains the queue.
	if cfg.QueueBackend == config.BackendMemory {
		var sink audit.Sink = audit.NewLogSink(zlog)
		if a.DB != nil {
			sink = audit.NewRepository(a.DB.Client)
		}
		go func() {
			if err := a.Consume(ctx, sink); err != nil {
				zlog.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      a.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("addr", srv.Addr),
			zap.String("store", cfg.StoreBackend), zap.String("queue", cfg.QueueBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	zlog.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server forced shutdown", zap.Error(err))
	}

	zlog.Info("server exited, waiting for pending certificate writes")
	return nil
}
