package main

import (
	"Orion_Video/internal/bootstrap"
	"Orion_Video/internal/config"
	"Orion_Video/internal/data"
	"Orion_Video/internal/media"
	"Orion_Video/internal/model"
	"Orion_Video/internal/repository"
	"Orion_Video/internal/service"
	"Orion_Video/pkg/keylock"
	"Orion_Video/pkg/logger"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/go-faker/faker/v4"
)

// 填充测试数据：视频一律经过协调器创建，保证作者的视频列表和视频表一致
func main() {
	userCount := flag.Int("users", 100, "用户数量")
	videoCount := flag.Int("videos", 500, "视频数量")
	likeCount := flag.Int("likes", 1000, "随机点赞次数")
	commentCount := flag.Int("comments", 1000, "随机评论数量")
	reset := flag.Bool("reset", false, "先删除所有表再重建（会清空数据）")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	ctx := context.Background()

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		logger.Log.Fatal(err)
	}
	if *reset {
		logger.Log.Info("正在清理旧数据...")
		if err := db.Migrator().DropTable(model.AllModels()...); err != nil {
			logger.Log.Fatalf("删除旧表失败: %v", err)
		}
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Log.Fatalf("数据库迁移失败: %v", err)
		}
	}

	store, err := bootstrap.NewMediaStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("媒体存储初始化失败: %v", err)
	}
	commentRepo, closeComments, err := bootstrap.NewCommentRepository(ctx, cfg, db)
	if err != nil {
		logger.Log.Fatal(err)
	}
	defer closeComments()

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db, nil)
	likeRepo := repository.NewLikeRepository(db)
	uow := data.NewUnitOfWork(db, videoRepo, userRepo, likeRepo)
	locker := keylock.NewMemoryLocker()

	videoService := service.NewVideoService(videoRepo, likeRepo, userRepo, commentRepo, uow, data.NewCoordinator(uow), locker,
		media.NewDirectCleaner(store), service.VideoOptions{})
	commentService := service.NewCommentService(commentRepo, userRepo, videoService, locker, service.CommentOptions{})
	userService := service.NewUserService(userRepo, cfg.JWTSecretKey, cfg.JWTTTL)

	// 1、用户，所有人的默认密码都是 "password"
	var userIDs []uint64
	for i := 0; i < *userCount; i++ {
		u, err := userService.Register(ctx, service.RegisterInput{
			Name:     faker.Username(),
			Email:    fmt.Sprintf("%d.%s", i, faker.Email()),
			Password: "password",
		})
		if err != nil {
			logger.Log.WithError(err).Warn("创建用户失败，跳过")
			continue
		}
		userIDs = append(userIDs, u.ID)
	}
	logger.Log.Infof("成功创建 %d 个用户", len(userIDs))
	if len(userIDs) == 0 {
		return
	}
	randomUser := func() uint64 { return userIDs[rand.Intn(len(userIDs))] }

	// 2、视频，媒体路径只是占位
	var videoIDs []uint64
	for i := 0; i < *videoCount; i++ {
		v, err := videoService.Create(ctx, service.CreateVideoInput{
			AuthorID:    randomUser(),
			Title:       faker.Sentence(),
			Description: faker.Paragraph(),
			ImagePath:   fmt.Sprintf("seed/cover_%d.png", i),
			VideoPath:   fmt.Sprintf("seed/video_%d.mp4", i),
		})
		if err != nil {
			logger.Log.WithError(err).Warn("创建视频失败，跳过")
			continue
		}
		videoIDs = append(videoIDs, v.ID)
	}
	logger.Log.Infof("成功创建 %d 个视频", len(videoIDs))
	if len(videoIDs) == 0 {
		return
	}
	randomVideo := func() uint64 { return videoIDs[rand.Intn(len(videoIDs))] }

	// 3、点赞，走ToggleLike，like_count和likes表自然保持一致
	for i := 0; i < *likeCount; i++ {
		if _, err := videoService.ToggleLike(ctx, randomVideo(), randomUser()); err != nil {
			logger.Log.WithError(err).Warn("点赞失败")
		}
	}

	// 4、评论
	for i := 0; i < *commentCount; i++ {
		if _, err := commentService.AppendComment(ctx, randomVideo(), randomUser(), faker.Sentence()); err != nil {
			logger.Log.WithError(err).Warn("评论失败")
		}
	}
	logger.Log.Info("所有测试数据填充完毕")
}
