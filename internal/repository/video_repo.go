package repository

import (
	"Orion_Video/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	FindAll(ctx context.Context) ([]model.Video, error)
	FindLatest(ctx context.Context, limit int) ([]model.Video, error)
	FindByAuthor(ctx context.Context, authorID uint64) ([]model.Video, error)
	FindByID(ctx context.Context, videoID uint64) (*model.Video, error)
	// 带锁的查找，只在事务里有意义
	FindByIDForUpdate(ctx context.Context, videoID uint64) (*model.Video, error)

	UpdateDetails(ctx context.Context, videoID uint64, title, description string) error
	Delete(ctx context.Context, videoID uint64) (bool, error)

	IncrementViews(ctx context.Context, videoID uint64) (bool, error)
	IncrementLikeCount(ctx context.Context, videoID uint64) error
	DecrementLikeCount(ctx context.Context, videoID uint64) error

	// Redis缓存，rdb为nil时全部退化为未命中/空操作
	GetVideoCache(ctx context.Context, videoID uint64) (*model.Video, error)
	SetVideoCache(ctx context.Context, video *model.Video) error
	DelVideoCache(ctx context.Context, videoID uint64) error

	WithTx(tx *gorm.DB) VideoRepository
}

type videoRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewVideoRepository(db *gorm.DB, rdb *redis.Client) VideoRepository {
	return &videoRepository{
		db:  db,
		rdb: rdb,
	}
}

// WithTx 返回一个新的、使用事务的 videoRepository 实例，事务中不操作Redis
func (r *videoRepository) WithTx(tx *gorm.DB) VideoRepository {
	return &videoRepository{
		db: tx,
	}
}

func (r *videoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// 全部视频，按ID排序保证顺序稳定
func (r *videoRepository) FindAll(ctx context.Context) ([]model.Video, error) {
	var videos []model.Video
	err := r.db.WithContext(ctx).Preload("Author").Order("id asc").Find(&videos).Error
	return videos, err
}

// 按时间倒序查询最新的视频列表
func (r *videoRepository) FindLatest(ctx context.Context, limit int) ([]model.Video, error) {
	var videos []model.Video
	// Preload("Author")在查询视频的同时，预加载关联的作者信息,时间倒序,限制数量
	err := r.db.WithContext(ctx).Preload("Author").Order("created_at desc").Order("id desc").Limit(limit).Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *videoRepository) FindByAuthor(ctx context.Context, authorID uint64) ([]model.Video, error) {
	videos := []model.Video{}
	err := r.db.WithContext(ctx).Preload("Author").Where("author_id = ?", authorID).Order("id asc").Find(&videos).Error
	return videos, err
}

// 利用videoID找视频，preload其中的Author结构
func (r *videoRepository) FindByID(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video model.Video
	if err := r.db.WithContext(ctx).Preload("Author").First(&video, videoID).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) FindByIDForUpdate(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video model.Video
	// SELECT * FROM `videos` WHERE `id` = ? LIMIT 1 FOR UPDATE;
	// FOR UPDATE锁的生命周期和事务的生命周期是完全绑定的
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&video, videoID).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// 只允许修改标题和简介
func (r *videoRepository) UpdateDetails(ctx context.Context, videoID uint64, title, description string) error {
	return r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).
		Updates(map[string]interface{}{"title": title, "description": description}).Error
}

// 物理删除，视频记录要么存在要么彻底消失
func (r *videoRepository) Delete(ctx context.Context, videoID uint64) (bool, error) {
	result := r.db.WithContext(ctx).Unscoped().Delete(&model.Video{}, videoID)
	return result.RowsAffected > 0, result.Error
}

// UPDATE `videos` SET `views` = `views` + 1 WHERE id = ?，数据库保证原子性，不会丢计数
func (r *videoRepository) IncrementViews(ctx context.Context, videoID uint64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	return result.RowsAffected > 0, result.Error
}

func (r *videoRepository) IncrementLikeCount(ctx context.Context, videoID uint64) error {
	// 使用GORM的表达式来执行原子更新：UPDATE `videos` SET `like_count` = `like_count` + 1 WHERE id = ?
	return r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error
}

func (r *videoRepository) DecrementLikeCount(ctx context.Context, videoID uint64) error {
	// UPDATE `videos` SET `like_count` = `like_count` - 1 WHERE id = ? AND like_count > 0
	return r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ? AND like_count > 0", videoID).
		UpdateColumn("like_count", gorm.Expr("like_count - ?", 1)).Error
}

// 返回存储单个视频信息的字符串Key
func (r *videoRepository) keyVideoInfo(videoID uint64) string {
	return fmt.Sprintf("video:info:%d", videoID)
}

// 从Redis缓存中获取单个Video信息：1、利用VideoID组装key 2、拿key去rdb中寻找videoJSON 3、利用json.Unmarshal将拿到的videoJSON反序列化
func (r *videoRepository) GetVideoCache(ctx context.Context, videoID uint64) (*model.Video, error) {
	if r.rdb == nil {
		return nil, nil
	}
	videoJSON, err := r.rdb.Get(ctx, r.keyVideoInfo(videoID)).Result()
	if err == redis.Nil {
		return nil, nil // 如果缓存不存在，但是Redis正常工作
	} else if err != nil {
		return nil, err // Redis本身出错了
	}
	var video model.Video
	if err := json.Unmarshal([]byte(videoJSON), &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// 将单个视频信息存入Redis缓存，作者的密码哈希不进缓存
func (r *videoRepository) SetVideoCache(ctx context.Context, video *model.Video) error {
	if r.rdb == nil {
		return nil
	}
	cached := *video
	cached.Author.Password = ""
	cached.Author.VideoRefs = nil
	cached.Likes = nil
	videoJSON, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	// 设置过期时间，再加上随机性防止缓存雪崩
	expiration := time.Minute*5 + time.Duration(rand.Intn(60))*time.Second
	return r.rdb.Set(ctx, r.keyVideoInfo(video.ID), videoJSON, expiration).Err()
}

func (r *videoRepository) DelVideoCache(ctx context.Context, videoID uint64) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, r.keyVideoInfo(videoID)).Err()
}
