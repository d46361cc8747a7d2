package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"goalengine/internal/config"
	"goalengine/internal/httpserver"
	"goalengine/internal/repository"
	"goalengine/internal/service"
	"goalengine/pkg/circuitbreaker"
	"goalengine/pkg/db"
	"goalengine/pkg/generator"
	"goalengine/pkg/logger"
	"goalengine/pkg/mq"
	"goalengine/pkg/redis"
	"goalengine/pkg/util"
)

const serviceName = "recurrence-runner"

func main() {
	log := logger.NewLogger(serviceName)
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	loc, err := cfg.Engine.Location()
	if err != nil {
		log.Fatal("Invalid engine timezone", zap.Error(err))
	}

	log.Info("Starting recurrence-runner...",
		zap.String("db_host", cfg.DB.Host),
		zap.Duration("interval", cfg.Runner.Interval),
		zap.String("timezone", loc.String()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	pool, err := db.NewConnection(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()

	// Redis（去重锁）
	rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()

	// MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL, serviceName)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	orchestrator := service.NewOrchestrator(
		repository.NewGoalRepository(pool, loc, log),
		repository.NewTodoRepository(pool, loc, log),
		generator.New(),
		service.NewBreakerPublisher(publisher, circuitbreaker.New(circuitbreaker.DefaultConfig()), log),
		util.NewDeduper(rdb, cfg.Redis.DedupTTL, log),
		log,
	)

	sweep := func() {
		if err := orchestrator.Sweep(ctx, time.Now().In(loc)); err != nil {
			log.Error("Recurrence sweep failed", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Runner.Interval)
		defer ticker.Stop()

		if cfg.Runner.RunOnStart {
			sweep()
		}
		for {
			select {
			case <-ctx.Done():
				log.Info("Recurrence sweep loop stopped")
				return
			case <-ticker.C:
				log.Info("Running recurrence sweep...")
				sweep()
			}
		}
	}()

	// HTTP Server (for health checks)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           httpserver.NewHealthRouter(log, pool, publisher),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("recurrence-runner is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down recurrence-runner gracefully...")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("recurrence-runner shutdown complete")
}
