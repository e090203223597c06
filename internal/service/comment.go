package service

import (
	"Orion_Video/internal/model"
	"Orion_Video/internal/repository"
	"Orion_Video/pkg/keylock"
	"Orion_Video/pkg/logger"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type commentInput struct {
	Content string `validate:"required"`
}

// CommentView 带上“当前查看者能否编辑”的评论，Editable为nil表示匿名查看
type CommentView struct {
	model.Comment
	Editable *bool
}

// ThreadView 视频的评论串，评论按最新在前排列
type ThreadView struct {
	VideoID  uint64
	Comments []CommentView
}

type CommentService interface {
	AppendComment(ctx context.Context, videoID, authorID uint64, content string) (*model.Comment, error)
	GetThread(ctx context.Context, videoID uint64, viewerID *uint64) (*ThreadView, error)
	// 评论不存在时返回 (nil, nil)
	GetCommentByID(ctx context.Context, videoID uint64, commentID string) (*model.Comment, error)
	EditComment(ctx context.Context, videoID uint64, commentID string, callerID uint64, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, videoID uint64, commentID string, callerID uint64) error
}

// CommentOptions 评论服务的行为开关
type CommentOptions struct {
	// 评论作者查不到时拒绝评论；默认照样创建，作者名和头像留空
	RequireAuthor bool
}

type commentService struct {
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	videos      VideoService

	locker keylock.Locker
	opts   CommentOptions
}

func NewCommentService(commentRepo repository.CommentRepository, userRepo repository.UserRepository, videos VideoService, locker keylock.Locker, opts CommentOptions) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		videos:      videos,
		locker:      locker,
		opts:        opts,
	}
}

// 追加评论：1、确认视频存在 2、按视频加评论锁，持锁后绕过缓存再确认一次 3、解析作者快照 4、生成ID和时间并追加到评论串
func (s *commentService) AppendComment(ctx context.Context, videoID, authorID uint64, content string) (*model.Comment, error) {
	if err := validate.Struct(commentInput{Content: content}); err != nil {
		return nil, invalidInput(err)
	}
	if _, err := s.videos.Peek(ctx, videoID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, commentsLockKey(videoID))
	if err != nil {
		return nil, internalError("等待评论锁", err)
	}
	defer unlock()
	if err := s.videos.Exists(ctx, videoID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.snapshotAuthor(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Append(ctx, videoID, comment); err != nil {
		return nil, internalError("追加评论", err)
	}
	return comment, nil
}

// 作者名和头像在评论时定格
func (s *commentService) snapshotAuthor(ctx context.Context, comment *model.Comment) error {
	author, err := s.userRepo.FindByID(ctx, comment.AuthorID)
	if err == nil {
		comment.AuthorName = author.Name
		comment.AuthorImage = author.Image
		return nil
	}
	if s.opts.RequireAuthor {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return internalError("查询评论作者", err)
	}
	logger.Log.WithField("user_id", comment.AuthorID).WithError(err).Warn("评论作者解析失败，作者信息留空")
	return nil
}

// 获取评论串：没有评论串时返回空列表；传了viewerID就给每条评论标上能否编辑
func (s *commentService) GetThread(ctx context.Context, videoID uint64, viewerID *uint64) (*ThreadView, error) {
	view := &ThreadView{VideoID: videoID, Comments: []CommentView{}}
	thread, err := s.commentRepo.FindThread(ctx, videoID)
	if errors.Is(err, repository.ErrThreadNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, internalError("查询评论串", err)
	}

	// 存储顺序是追加顺序，倒过来就是最新在前
	for i := len(thread.Comments) - 1; i >= 0; i-- {
		cv := CommentView{Comment: thread.Comments[i]}
		if viewerID != nil {
			editable := cv.AuthorID == *viewerID
			cv.Editable = &editable
		}
		view.Comments = append(view.Comments, cv)
	}
	return view, nil
}

func (s *commentService) GetCommentByID(ctx context.Context, videoID uint64, commentID string) (*model.Comment, error) {
	comment, err := s.commentRepo.FindComment(ctx, videoID, commentID)
	if errors.Is(err, repository.ErrCommentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internalError("查询评论", err)
	}
	return comment, nil
}

// 编辑评论：只改内容，ID、作者和评论时间都不变
func (s *commentService) EditComment(ctx context.Context, videoID uint64, commentID string, callerID uint64, content string) (*model.Comment, error) {
	if err := validate.Struct(commentInput{Content: content}); err != nil {
		return nil, invalidInput(err)
	}
	unlock, err := s.locker.Lock(ctx, commentsLockKey(videoID))
	if err != nil {
		return nil, internalError("等待评论锁", err)
	}
	defer unlock()

	if _, err := s.ownedComment(ctx, videoID, commentID, callerID); err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(ctx, videoID, commentID, content); err != nil {
		return nil, s.mapCommentErr("编辑评论", err)
	}
	updated, err := s.commentRepo.FindComment(ctx, videoID, commentID)
	if err != nil {
		return nil, s.mapCommentErr("查询评论", err)
	}
	return updated, nil
}

func (s *commentService) DeleteComment(ctx context.Context, videoID uint64, commentID string, callerID uint64) error {
	unlock, err := s.locker.Lock(ctx, commentsLockKey(videoID))
	if err != nil {
		return internalError("等待评论锁", err)
	}
	defer unlock()

	if _, err := s.ownedComment(ctx, videoID, commentID, callerID); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, videoID, commentID); err != nil {
		return s.mapCommentErr("删除评论", err)
	}
	return nil
}

// 持锁状态下读出评论并校验评论者本人
func (s *commentService) ownedComment(ctx context.Context, videoID uint64, commentID string, callerID uint64) (*model.Comment, error) {
	comment, err := s.commentRepo.FindComment(ctx, videoID, commentID)
	if err != nil {
		return nil, s.mapCommentErr("查询评论", err)
	}
	if comment.AuthorID != callerID {
		return nil, ErrNotCommentAuthor
	}
	return comment, nil
}

func (s *commentService) mapCommentErr(op string, err error) error {
	if errors.Is(err, repository.ErrCommentNotFound) || errors.Is(err, repository.ErrThreadNotFound) {
		return ErrCommentNotFound
	}
	return internalError(op, err)
}
