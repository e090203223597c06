package data

import (
	"Orion_Video/internal/model"
	"Orion_Video/pkg/logger"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrAuthorNotFound = errors.New("作者不存在")
	ErrVideoNotFound  = errors.New("视频不存在")
	ErrNotVideoAuthor = errors.New("只有作者本人可以操作该视频")
)

// Coordinator 一致性协调器：视频记录和作者视频列表之间的交叉引用只能由它修改
type Coordinator struct {
	uow UnitOfWork
}

func NewCoordinator(uow UnitOfWork) *Coordinator {
	return &Coordinator{uow: uow}
}

// CreateAtomic 创建视频：1、校验作者存在 2、写入视频 3、把视频ID追加到作者的视频列表
// 任何一步失败整个事务回滚，不会留下孤儿视频或悬空引用
func (c *Coordinator) CreateAtomic(ctx context.Context, video *model.Video) error {
	return c.uow.Execute(ctx, func(repos *TransactionalRepositories) error {
		if _, err := repos.UserRepo.FindByID(ctx, video.AuthorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAuthorNotFound
			}
			return err
		}
		video.Views = 0
		video.LikeCount = 0
		if err := repos.VideoRepo.Create(ctx, video); err != nil {
			return fmt.Errorf("写入视频失败: %w", err)
		}
		if err := repos.UserRepo.AppendVideoRef(ctx, video.AuthorID, video.ID); err != nil {
			return fmt.Errorf("追加作者视频引用失败: %w", err)
		}
		return nil
	})
}

// DeleteAtomic 删除视频：1、FOR UPDATE锁住视频并校验作者 2、删除点赞集合 3、删除视频 4、从作者的视频列表移除
// 返回被删除的视频，媒体文件由调用方在提交后清理
func (c *Coordinator) DeleteAtomic(ctx context.Context, videoID, authorID uint64) (*model.Video, error) {
	var deleted *model.Video
	err := c.uow.Execute(ctx, func(repos *TransactionalRepositories) error {
		video, err := repos.VideoRepo.FindByIDForUpdate(ctx, videoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVideoNotFound
			}
			return err
		}
		if video.AuthorID != authorID {
			return ErrNotVideoAuthor
		}
		if err := repos.LikeRepo.DeleteByVideo(ctx, videoID); err != nil {
			return fmt.Errorf("删除点赞记录失败: %w", err)
		}
		if _, err := repos.VideoRepo.Delete(ctx, videoID); err != nil {
			return fmt.Errorf("删除视频失败: %w", err)
		}
		removed, err := repos.UserRepo.RemoveVideoRef(ctx, authorID, videoID)
		if err != nil {
			return fmt.Errorf("移除作者视频引用失败: %w", err)
		}
		if !removed {
			logger.Log.WithField("video_id", videoID).WithField("user_id", authorID).Warn("作者视频列表里没有该视频的引用")
		}
		deleted = video
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
