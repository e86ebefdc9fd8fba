package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-api/config"
	"github.com/d60-Lab/social-api/internal/broker"
	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/database"
	"github.com/d60-Lab/social-api/pkg/logger"
	"github.com/d60-Lab/social-api/pkg/tracing"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()

	flush, err := tracing.InitSentry(cfg.Sentry, version)
	if err != nil {
		logger.Fatal("sentry", zap.Error(err))
	}
	defer flush()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	rdb := database.InitRedis(cfg)
	queue := broker.NewQueue(rdb, cfg.Broker.QueueKey)

	runner := service.NewJobRunner(
		queue,
		repository.NewUserRepository(db),
		repository.NewPostRepository(db),
		cfg.Broker.Workers,
		cfg.Broker.ClaimLimit,
		cfg.Broker.PollInterval,
	)
	stop := runner.Start()
	logger.Info("worker started",
		zap.String("queue", queue.Key()),
		zap.Int("workers", cfg.Broker.Workers),
		zap.Duration("poll", cfg.Broker.PollInterval),
	)

	// 周期输出执行延迟和积压
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		var lagMax time.Duration
		for {
			select {
			case d := <-runner.Metrics():
				if d > lagMax {
					lagMax = d
				}
			case <-ticker.C:
				backlog, err := queue.Len(context.Background())
				if err != nil {
					logger.Warn("queue length", zap.Error(err))
				}
				processed, failed := runner.Stats()
				logger.Info("worker stats",
					zap.Int64("processed", processed),
					zap.Int64("failed", failed),
					zap.Int64("backlog", backlog),
					zap.Duration("lag_max", lagMax),
				)
				lagMax = 0
			case <-done:
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("worker stop", zap.Error(err))
	}
	close(done)
	processed, failed := runner.Stats()
	logger.Info("worker stopped", zap.Int64("processed", processed), zap.Int64("failed", failed))
	_ = rdb.Close()
	_ = database.Close(db)
}
