package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	contractsmq "goalengine/contracts/mq"
	"goalengine/internal/config"
	"goalengine/internal/handler"
	"goalengine/internal/httpserver"
	"goalengine/internal/mqhandler"
	"goalengine/internal/repository"
	"goalengine/internal/service"
	"goalengine/pkg/db"
	"goalengine/pkg/logger"
	"goalengine/pkg/mq"
)

const serviceName = "goal-api"

func main() {
	log := logger.NewLogger(serviceName)
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret is required")
	}
	loc, err := cfg.Engine.Location()
	if err != nil {
		log.Fatal("Invalid engine timezone", zap.Error(err))
	}

	log.Info("Starting goal-api...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
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

	goalRepo := repository.NewGoalRepository(pool, loc, log)
	logRepo := repository.NewLogRepository(pool, log)
	todoRepo := repository.NewTodoRepository(pool, loc, log)

	goalService := service.NewGoalService(goalRepo, loc, cfg.Engine.MaxOccurrences, log)
	progressService := service.NewProgressService(goalRepo, logRepo, cfg.Engine.DashboardWorkers, log)

	// MQ Publisher (instance.created 事件 + DLQ)
	publisher, err := mq.NewPublisher(cfg.MQ.URL, serviceName)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	goalInstanceHandler := mqhandler.NewGoalInstanceHandler(goalRepo, publisher, log)
	todoInstanceHandler := mqhandler.NewTodoInstanceHandler(todoRepo, publisher, log)

	bindings := []struct {
		queue, routingKey string
		handle            mq.MessageHandler
	}{
		{"goal.instance.requested.q", contractsmq.GoalInstanceRequested, goalInstanceHandler.Handle},
		{"todo.instance.requested.q", contractsmq.TodoInstanceRequested, todoInstanceHandler.Handle},
	}

	var wg sync.WaitGroup
	checks := []httpserver.ConnChecker{publisher}
	for _, b := range bindings {
		log.Info("Initializing MQ consumer...",
			zap.String("queue", b.queue),
			zap.String("routing_key", b.routingKey),
		)
		consumer, err := mq.NewConsumer(cfg.MQ.URL, b.queue, b.routingKey, cfg.MQ.Prefetch, log)
		if err != nil {
			log.Fatal("Failed to init consumer", zap.String("queue", b.queue), zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(b.handle)
		consumer.SetDeadLetter(publisher)
		checks = append(checks, consumer)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.StartConsuming(ctx); err != nil {
				log.Error("Consumer stopped", zap.String("queue", b.queue), zap.Error(err))
			}
		}()
	}

	// HTTP Server
	goalHandler := handler.NewGoalHandler(goalService, progressService, loc, log)
	router := httpserver.NewRouter(goalHandler, cfg.JWT.Secret, log, pool, checks...)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("goal-api is fully initialized and running")

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down goal-api gracefully...")

	// 停止 MQ 消费者
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("goal-api shutdown complete")
}
