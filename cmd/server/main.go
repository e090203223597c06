package main

import (
	"Orion_Video/internal/bootstrap"
	"Orion_Video/internal/config"
	"Orion_Video/internal/data"
	"Orion_Video/internal/handler"
	"Orion_Video/internal/media"
	"Orion_Video/internal/repository"
	"Orion_Video/internal/router"
	"Orion_Video/internal/service"
	"Orion_Video/pkg/logger"
	"Orion_Video/pkg/rabbitmq"
	"Orion_Video/pkg/redis"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(logger.Options{
		File:       cfg.LogFile,
		Level:      cfg.LogLevel,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		logger.Log.Fatal(err)
	}

	// Redis只承担缓存时可以缺席；分布式锁依赖它，必须连上
	var redisClient *goredis.Client
	redisClient, err = redis.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		if cfg.LockBackend == config.LockBackendRedis {
			logger.Log.Fatalf("无法连接到Redis: %v", err)
		}
		logger.Log.WithError(err).Warn("Redis不可用，视频缓存关闭")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Log.Info("Redis连接成功")
	}

	store, err := bootstrap.NewMediaStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("媒体存储初始化失败: %v", err)
	}
	var cleaner media.Cleaner = media.NewDirectCleaner(store)
	if cfg.MediaCleanup == config.MediaCleanupQueue {
		rabbitMQConn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logger.Log.Fatalf("无法连接到RabbitMQ: %v", err)
		}
		defer rabbitMQConn.Close()
		if err := rabbitmq.DeclareQueues(rabbitMQConn); err != nil {
			logger.Log.Fatalf("声明队列失败: %v", err)
		}
		logger.Log.Info("RabbitMQ连接成功，媒体清理走队列")
		cleaner = media.NewQueueCleaner(rabbitMQConn, cleaner)
	}

	commentRepo, closeComments, err := bootstrap.NewCommentRepository(ctx, cfg, db)
	if err != nil {
		logger.Log.Fatal(err)
	}
	defer closeComments()

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db, redisClient)
	likeRepo := repository.NewLikeRepository(db)
	uow := data.NewUnitOfWork(db, videoRepo, userRepo, likeRepo)
	coord := data.NewCoordinator(uow)
	locker := bootstrap.NewLocker(cfg, redisClient)

	videoService := service.NewVideoService(videoRepo, likeRepo, userRepo, commentRepo, uow, coord, locker, cleaner,
		service.VideoOptions{CascadeCommentThreads: cfg.CascadeCommentThreads})
	commentService := service.NewCommentService(commentRepo, userRepo, videoService, locker,
		service.CommentOptions{RequireAuthor: cfg.RequireCommentAuthor})
	userService := service.NewUserService(userRepo, cfg.JWTSecretKey, cfg.JWTTTL)

	r := router.SetupRouter(
		router.Options{JWTSecretKey: cfg.JWTSecretKey, OpTimeout: cfg.OpTimeout},
		handler.NewUserHandler(userService, store, cleaner),
		handler.NewVideoHandler(videoService, store, cleaner, cfg.MaxUploadMB),
		handler.NewCommentHandler(commentService),
	)

	srv := &http.Server{Addr: cfg.Address, Handler: r}
	go func() {
		logger.Log.WithField("address", cfg.Address).Info("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("收到退出信号，开始关闭服务器")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("服务器关闭失败")
	}
}
