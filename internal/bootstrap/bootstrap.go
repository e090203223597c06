// Package bootstrap 按配置创建各进程共用的基础设施
package bootstrap

import (
	"Orion_Video/internal/config"
	"Orion_Video/internal/media"
	"Orion_Video/internal/model"
	"Orion_Video/internal/repository"
	"Orion_Video/pkg/database"
	"Orion_Video/pkg/keylock"
	"Orion_Video/pkg/logger"
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// OpenDatabase 连接数据库并迁移
// AutoMigrate没有这个表就创建，没有列就加列，不会删除和修改
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("无法连接到数据库: %w", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	logger.Log.WithField("driver", cfg.DBDriver).Info("数据库连接并迁移成功")
	return db, nil
}

// NewMediaStore 本地目录或S3
func NewMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendS3:
		return media.NewS3Store(ctx, cfg.S3Bucket, "videos/")
	default:
		return media.NewLocalStore(cfg.UploadDir)
	}
}

// NewCommentRepository SQL或MongoDB评论存储；返回的close用于进程退出时断开MongoDB
func NewCommentRepository(ctx context.Context, cfg *config.Config, db *gorm.DB) (repository.CommentRepository, func(), error) {
	if cfg.CommentBackend != config.CommentBackendMongo {
		return repository.NewCommentRepository(db), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("无法连接到MongoDB: %w", err)
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Log.WithError(err).Warn("断开MongoDB失败")
		}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("MongoDB ping失败: %w", err)
	}
	repo, err := repository.NewMongoCommentRepository(connectCtx, client.Database(cfg.MongoDatabase))
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("MongoDB评论存储初始化失败: %w", err)
	}
	logger.Log.WithField("database", cfg.MongoDatabase).Info("MongoDB评论存储就绪")
	return repo, closeFn, nil
}

// NewLocker 单实例用进程内锁表，多实例部署用Redis锁
func NewLocker(cfg *config.Config, rdb *redis.Client) keylock.Locker {
	if cfg.LockBackend == config.LockBackendRedis && rdb != nil {
		return keylock.NewRedisLocker(rdb, cfg.LockTTL)
	}
	return keylock.NewMemoryLocker()
}
