package service

import (
	"Orion_Video/internal/data"
	"Orion_Video/internal/media"
	"Orion_Video/internal/model"
	"Orion_Video/internal/repository"
	"Orion_Video/pkg/keylock"
	"Orion_Video/pkg/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var validate = validator.New()

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100

	peekLookupTimeout = 5 * time.Second
)

// CreateVideoInput 创建视频需要的参数，媒体文件已经由上传环节存好
type CreateVideoInput struct {
	AuthorID    uint64 `validate:"required"`
	Title       string `validate:"required"`
	Description string `validate:"required,min=5"`
	ImagePath   string `validate:"required"`
	VideoPath   string `validate:"required"`
}

type updateVideoInput struct {
	Title       string `validate:"required"`
	Description string `validate:"required,min=5"`
}

// LikeResult 点赞切换之后的状态
type LikeResult struct {
	Liked     bool
	Likes     []uint64
	LikeCount uint64
}

type VideoService interface {
	List(ctx context.Context) ([]model.Video, error)
	Feed(ctx context.Context, limit int) ([]model.Video, error)
	// GetByID 公开的“看一个视频”，观看数+1
	GetByID(ctx context.Context, videoID uint64) (*model.Video, error)
	// Peek 只做存在性查询，走缓存，不计观看数
	Peek(ctx context.Context, videoID uint64) (*model.Video, error)
	// Exists 不走缓存的存在性检查
	Exists(ctx context.Context, videoID uint64) error
	ListByAuthor(ctx context.Context, authorID uint64) ([]model.Video, error)

	Create(ctx context.Context, in CreateVideoInput) (*model.Video, error)
	Update(ctx context.Context, videoID, callerID uint64, title, description string) (*model.Video, error)
	ToggleLike(ctx context.Context, videoID, userID uint64) (*LikeResult, error)
	Delete(ctx context.Context, videoID, callerID uint64) error
}

// VideoOptions 视频服务的行为开关
type VideoOptions struct {
	// 删除视频时是否连带删除评论串
	CascadeCommentThreads bool
}

type videoService struct {
	sf singleflight.Group

	videoRepo   repository.VideoRepository
	likeRepo    repository.LikeRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	uow         data.UnitOfWork
	coord       *data.Coordinator

	locker  keylock.Locker
	cleaner media.Cleaner
	opts    VideoOptions
}

func NewVideoService(
	videoRepo repository.VideoRepository,
	likeRepo repository.LikeRepository,
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	uow data.UnitOfWork,
	coord *data.Coordinator,
	locker keylock.Locker,
	cleaner media.Cleaner,
	opts VideoOptions,
) VideoService {
	return &videoService{
		videoRepo:   videoRepo,
		likeRepo:    likeRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		uow:         uow,
		coord:       coord,
		locker:      locker,
		cleaner:     cleaner,
		opts:        opts,
	}
}

func likesLockKey(videoID uint64) string {
	return fmt.Sprintf("video:%d:likes", videoID)
}

func commentsLockKey(videoID uint64) string {
	return fmt.Sprintf("video:%d:comments", videoID)
}

func (s *videoService) List(ctx context.Context) ([]model.Video, error) {
	videos, err := s.videoRepo.FindAll(ctx)
	if err != nil {
		return nil, internalError("查询视频列表", err)
	}
	return s.attachLikes(ctx, videos)
}

// 获取视频Feed流，limit不合法时用默认值
func (s *videoService) Feed(ctx context.Context, limit int) ([]model.Video, error) {
	if limit <= 0 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	videos, err := s.videoRepo.FindLatest(ctx, limit)
	if err != nil {
		return nil, internalError("查询Feed流", err)
	}
	return s.attachLikes(ctx, videos)
}

func (s *videoService) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Video, error) {
	videos, err := s.videoRepo.FindByAuthor(ctx, authorID)
	if err != nil {
		return nil, internalError("查询作者视频", err)
	}
	return s.attachLikes(ctx, videos)
}

// 一次查出整页视频的点赞集合
func (s *videoService) attachLikes(ctx context.Context, videos []model.Video) ([]model.Video, error) {
	if videos == nil {
		videos = []model.Video{}
	}
	ids := make([]uint64, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	likes, err := s.likeRepo.ListUserIDsByVideos(ctx, ids)
	if err != nil {
		return nil, internalError("查询点赞集合", err)
	}
	for i := range videos {
		videos[i].Likes = likes[videos[i].ID]
		if videos[i].Likes == nil {
			videos[i].Likes = []uint64{}
		}
	}
	return videos, nil
}

// 获取视频：同一个事务里 1、原子地观看数+1，没有行被更新说明视频不存在 2、重新读出最新记录和点赞集合
// 任何一步失败整体回滚，观看数不会白加
func (s *videoService) GetByID(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video *model.Video
	err := s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		ok, err := repos.VideoRepo.IncrementViews(ctx, videoID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrVideoNotFound
		}
		if video, err = repos.VideoRepo.FindByID(ctx, videoID); err != nil {
			return err
		}
		video.Likes, err = repos.LikeRepo.ListUserIDs(ctx, videoID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, internalError("获取视频", err)
	}
	return video, nil
}

// 根据videoID查找视频：1、查找Redis缓存 2、通过SingleFlight合并并发的数据库查找并回写缓存
// 合并后的查询用自己的ctx，某个调用方超时只影响它自己
func (s *videoService) Peek(ctx context.Context, videoID uint64) (*model.Video, error) {
	video, err := s.videoRepo.GetVideoCache(ctx, videoID)
	if err != nil {
		// Redis出错不影响查询，退回数据库
		logger.Log.WithField("video_id", videoID).WithError(err).Warn("读取视频缓存失败")
	}
	if video != nil {
		return video, nil
	}

	key := fmt.Sprintf("get_video_%d", videoID)
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), peekLookupTimeout)
		defer cancel()
		dbVideo, dbErr := s.videoRepo.FindByID(lookupCtx, videoID)
		if dbErr != nil {
			return nil, dbErr
		}
		if err := s.videoRepo.SetVideoCache(lookupCtx, dbVideo); err != nil {
			logger.Log.WithField("video_id", videoID).WithError(err).Warn("写入视频缓存失败")
		}
		return dbVideo, nil
	})

	select {
	case <-ctx.Done():
		return nil, internalError("查询视频", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, gorm.ErrRecordNotFound) {
				return nil, ErrVideoNotFound
			}
			return nil, internalError("查询视频", res.Err)
		}
		return res.Val.(*model.Video), nil
	}
}

// 绕过缓存直接查库，缓存里可能还留着刚删掉的视频
func (s *videoService) Exists(ctx context.Context, videoID uint64) error {
	if _, err := s.videoRepo.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return internalError("查询视频", err)
	}
	return nil
}

// 创建视频：1、校验参数 2、确认作者存在 3、协调器在一个事务里写视频和作者引用
// 失败时已经存好的媒体文件交给清理器
func (s *videoService) Create(ctx context.Context, in CreateVideoInput) (*model.Video, error) {
	video, err := s.create(ctx, in)
	if err != nil {
		s.cleaner.Cleanup(ctx, in.ImagePath, in.VideoPath)
		return nil, err
	}
	return video, nil
}

func (s *videoService) create(ctx context.Context, in CreateVideoInput) (*model.Video, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}
	author, err := s.userRepo.FindByID(ctx, in.AuthorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("查询作者", err)
	}

	video := &model.Video{
		AuthorID:    in.AuthorID,
		Title:       in.Title,
		Description: in.Description,
		ImagePath:   in.ImagePath,
		VideoPath:   in.VideoPath,
	}
	if err := s.coord.CreateAtomic(ctx, video); err != nil {
		if errors.Is(err, data.ErrAuthorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("创建视频", err)
	}
	video.Author = *author
	video.Likes = []uint64{}
	logger.Log.WithField("video_id", video.ID).WithField("user_id", video.AuthorID).Info("视频创建成功")
	return video, nil
}

// 修改视频：只有作者本人可以改，只能改标题和简介
func (s *videoService) Update(ctx context.Context, videoID, callerID uint64, title, description string) (*model.Video, error) {
	if err := validate.Struct(updateVideoInput{Title: title, Description: description}); err != nil {
		return nil, invalidInput(err)
	}
	var updated *model.Video
	err := s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		video, err := repos.VideoRepo.FindByIDForUpdate(ctx, videoID)
		if err != nil {
			return err
		}
		if video.AuthorID != callerID {
			return ErrNotVideoAuthor
		}
		if err := repos.VideoRepo.UpdateDetails(ctx, videoID, title, description); err != nil {
			return err
		}
		if updated, err = repos.VideoRepo.FindByID(ctx, videoID); err != nil {
			return err
		}
		updated.Likes, err = repos.LikeRepo.ListUserIDs(ctx, videoID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrVideoNotFound
		case errors.Is(err, ErrForbidden):
			return nil, err
		}
		return nil, internalError("修改视频", err)
	}
	s.invalidate(ctx, videoID)
	return updated, nil
}

// 切换点赞：1、按视频加锁串行化 2、事务里FOR UPDATE锁住视频行 3、在集合里就删，不在就加，冗余计数同步维护
func (s *videoService) ToggleLike(ctx context.Context, videoID, userID uint64) (*LikeResult, error) {
	unlock, err := s.locker.Lock(ctx, likesLockKey(videoID))
	if err != nil {
		return nil, internalError("等待点赞锁", err)
	}
	defer unlock()

	result := &LikeResult{}
	err = s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		if _, err := repos.VideoRepo.FindByIDForUpdate(ctx, videoID); err != nil {
			return err
		}
		liked, err := repos.LikeRepo.Exists(ctx, userID, videoID)
		if err != nil {
			return err
		}
		if liked {
			if _, err := repos.LikeRepo.Delete(ctx, userID, videoID); err != nil {
				return err
			}
			if err := repos.VideoRepo.DecrementLikeCount(ctx, videoID); err != nil {
				return err
			}
		} else {
			if err := repos.LikeRepo.Create(ctx, &model.Like{UserID: userID, VideoID: videoID}); err != nil {
				return err
			}
			if err := repos.VideoRepo.IncrementLikeCount(ctx, videoID); err != nil {
				return err
			}
		}
		result.Liked = !liked
		result.Likes, err = repos.LikeRepo.ListUserIDs(ctx, videoID)
		result.LikeCount = uint64(len(result.Likes))
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, internalError("切换点赞", err)
	}
	s.invalidate(ctx, videoID)
	return result, nil
}

// 删除视频：1、协调器在一个事务里删记录和作者引用 2、提交后清缓存、清理媒体文件 3、按配置连带删除评论串
// 第2、3步失败只记日志，记录已经删掉了
func (s *videoService) Delete(ctx context.Context, videoID, callerID uint64) error {
	deleted, err := s.coord.DeleteAtomic(ctx, videoID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrVideoNotFound):
			return ErrVideoNotFound
		case errors.Is(err, data.ErrNotVideoAuthor):
			return ErrNotVideoAuthor
		}
		return internalError("删除视频", err)
	}
	logCtx := logger.Log.WithField("video_id", videoID).WithField("user_id", callerID)
	logCtx.Info("视频已删除")

	s.invalidate(ctx, videoID)
	s.cleaner.Cleanup(ctx, deleted.ImagePath, deleted.VideoPath)
	if s.opts.CascadeCommentThreads {
		s.dropThread(ctx, videoID)
	}
	return nil
}

func (s *videoService) dropThread(ctx context.Context, videoID uint64) {
	logCtx := logger.Log.WithField("video_id", videoID)
	unlock, err := s.locker.Lock(ctx, commentsLockKey(videoID))
	if err != nil {
		logCtx.WithError(err).Warn("等待评论锁失败，评论串未删除")
		return
	}
	defer unlock()
	if err := s.commentRepo.DeleteThread(ctx, videoID); err != nil {
		logCtx.WithError(err).Warn("删除评论串失败")
	}
}

func (s *videoService) invalidate(ctx context.Context, videoID uint64) {
	if err := s.videoRepo.DelVideoCache(ctx, videoID); err != nil {
		logger.Log.WithField("video_id", videoID).WithError(err).Warn("删除视频缓存失败")
	}
}
