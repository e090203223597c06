package repository

import (
	"Orion_Video/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository 按视频ID组织的评论串存储
// 评论串第一次追加时创建，删空了也保留
type CommentRepository interface {
	// 评论按存储顺序（追加顺序）返回；没有评论串时返回 ErrThreadNotFound
	FindThread(ctx context.Context, videoID uint64) (*model.CommentThread, error)
	FindComment(ctx context.Context, videoID uint64, commentID string) (*model.Comment, error)
	// 追加评论，评论串不存在就创建，comment.Seq 由存储层分配
	Append(ctx context.Context, videoID uint64, comment *model.Comment) error
	UpdateContent(ctx context.Context, videoID uint64, commentID, content string) error
	Delete(ctx context.Context, videoID uint64, commentID string) error
	DeleteThread(ctx context.Context, videoID uint64) error
}

type commentRepository struct {
	db *gorm.DB
}

var _ CommentRepository = (*commentRepository)(nil)

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) FindThread(ctx context.Context, videoID uint64) (*model.CommentThread, error) {
	var thread model.CommentThread
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq asc")
		}).
		Where("video_id = ?", videoID).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *commentRepository) FindComment(ctx context.Context, videoID uint64, commentID string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Where("video_id = ? AND id = ?", videoID, commentID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// 追加评论：1、评论串不存在就插入（唯一索引冲突时什么都不做） 2、FOR UPDATE锁住评论串，取出序号 3、插入评论并推进序号
func (r *commentRepository) Append(ctx context.Context, videoID uint64, comment *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 并发的“第一条评论”只会有一个真正建出评论串
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}},
			DoNothing: true,
		}).Create(&model.CommentThread{VideoID: videoID}).Error
		if err != nil && !IsDuplicateKey(err) {
			return err
		}

		var thread model.CommentThread
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("video_id = ?", videoID).First(&thread).Error; err != nil {
			return err
		}

		comment.ThreadID = thread.ID
		comment.VideoID = videoID
		comment.Seq = thread.NextSeq
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&model.CommentThread{}).Where("id = ?", thread.ID).
			UpdateColumn("next_seq", gorm.Expr("next_seq + ?", 1)).Error
	})
}

func (r *commentRepository) UpdateContent(ctx context.Context, videoID uint64, commentID, content string) error {
	result := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("video_id = ? AND id = ?", videoID, commentID).
		Update("content", content)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, videoID uint64, commentID string) error {
	result := r.db.WithContext(ctx).
		Where("video_id = ? AND id = ?", videoID, commentID).
		Delete(&model.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) DeleteThread(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("video_id = ?", videoID).Delete(&model.CommentThread{}).Error
	})
}
