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

	"github.com/d60-Lab/social-api/config"
	"github.com/d60-Lab/social-api/internal/api"
	"github.com/d60-Lab/social-api/internal/api/handler"
	"github.com/d60-Lab/social-api/internal/broker"
	"github.com/d60-Lab/social-api/internal/cache"
	"github.com/d60-Lab/social-api/internal/repository"
	"github.com/d60-Lab/social-api/internal/service"
	"github.com/d60-Lab/social-api/pkg/database"
	"github.com/d60-Lab/social-api/pkg/logger"
	"github.com/d60-Lab/social-api/pkg/token"
	"github.com/d60-Lab/social-api/pkg/tracing"
)

var version = "dev"

// @title Social API
// @version 1.0
// @description 帖子、评论、赞/踩、关注与延迟发帖
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	rdb := database.InitRedis(cfg)

	queue := broker.NewQueue(rdb, cfg.Broker.QueueKey)
	monitor := broker.NewMonitor(queue, cfg.Broker.ProbeTimeout, cfg.Broker.ProbeInterval)
	stopMonitor := monitor.Start()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	commentaryRepo := repository.NewCommentaryRepository(db)
	followRepo := repository.NewFollowRepository(db)
	following := cache.NewFollowingCache(rdb, cfg.Cache.FollowingTTL)

	scheduler := service.NewSwitchingScheduler(
		monitor,
		service.NewQueueScheduler(queue),
		service.NewImmediateScheduler(postRepo, userRepo),
	)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)

	h := handler.New(handler.Deps{
		Users:     service.NewUserService(userRepo, tokens),
		Profiles:  service.NewProfileService(profileRepo),
		Posts:     service.NewPostService(postRepo, reactionRepo, commentaryRepo, followRepo, following, scheduler),
		Reactions: service.NewReactionService(reactionRepo, postRepo),
		Comments:  service.NewCommentService(commentaryRepo, postRepo),
		Relations: service.NewRelationshipService(followRepo, profileRepo, following),
		Broker:    monitor,
		DB:        sqlDB,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(cfg, h, tokens),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.Bool("broker_healthy", monitor.Healthy()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := stopMonitor(ctx); err != nil {
		logger.Warn("monitor stop", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	_ = rdb.Close()
	_ = database.Close(db)
}
