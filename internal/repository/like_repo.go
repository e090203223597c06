package repository

import (
	"Orion_Video/internal/model"
	"Orion_Video/pkg/logger"
	"context"

	"gorm.io/gorm"
)

// 点赞集合：每个(user, video)最多一行
type LikeRepository interface {
	Create(ctx context.Context, like *model.Like) error
	Delete(ctx context.Context, userID, videoID uint64) (bool, error)
	Exists(ctx context.Context, userID, videoID uint64) (bool, error)
	ListUserIDs(ctx context.Context, videoID uint64) ([]uint64, error)
	ListUserIDsByVideos(ctx context.Context, videoIDs []uint64) (map[uint64][]uint64, error)
	DeleteByVideo(ctx context.Context, videoID uint64) error

	WithTx(tx *gorm.DB) LikeRepository
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) WithTx(tx *gorm.DB) LikeRepository {
	return &likeRepository{db: tx}
}

func (r *likeRepository) Create(ctx context.Context, like *model.Like) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		logger.Log.WithError(err).WithField("video_id", like.VideoID).Error("添加点赞记录失败")
		return err
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, videoID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&model.Like{})
	if result.Error != nil {
		logger.Log.WithError(result.Error).WithField("video_id", videoID).Error("删除点赞记录失败")
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, videoID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Count(&count).Error
	return count > 0, err
}

// 点赞用户ID，按点赞先后排列
func (r *likeRepository) ListUserIDs(ctx context.Context, videoID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("video_id = ?", videoID).
		Order("id asc").
		Pluck("user_id", &ids).Error
	return ids, err
}

// 批量查询多个视频的点赞用户，避免列表接口一条视频一次查询
func (r *likeRepository) ListUserIDsByVideos(ctx context.Context, videoIDs []uint64) (map[uint64][]uint64, error) {
	result := make(map[uint64][]uint64, len(videoIDs))
	if len(videoIDs) == 0 {
		return result, nil
	}
	var likes []model.Like
	err := r.db.WithContext(ctx).
		Where("video_id IN ?", videoIDs).
		Order("id asc").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	for _, l := range likes {
		result[l.VideoID] = append(result[l.VideoID], l.UserID)
	}
	return result, nil
}

func (r *likeRepository) DeleteByVideo(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&model.Like{}).Error
}
