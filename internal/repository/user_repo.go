package repository

import (
	"Orion_Video/internal/model"
	"context"

	"gorm.io/gorm"
)

// 用户仓库接口（身份存储）：1、创建和查找用户 2、维护用户的视频引用列表
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID uint64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// 视频引用列表，只应由一致性协调器在事务里修改
	AppendVideoRef(ctx context.Context, userID, videoID uint64) error
	RemoveVideoRef(ctx context.Context, userID, videoID uint64) (bool, error)
	ListVideoRefs(ctx context.Context, userID uint64) ([]uint64, error)

	WithTx(tx *gorm.DB) UserRepository
}

// 数据库接口封装
type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

// 用户插入表
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, userID uint64) (*model.User, error) {
	var result model.User
	if err := r.db.WithContext(ctx).First(&result, userID).Error; err != nil {
		return nil, err // 如果有错（包括没找到），直接返回
	}
	return &result, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var result model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *userRepository) AppendVideoRef(ctx context.Context, userID, videoID uint64) error {
	return r.db.WithContext(ctx).Create(&model.UserVideo{UserID: userID, VideoID: videoID}).Error
}

// 删除引用，返回是否真的删掉了一行
func (r *userRepository) RemoveVideoRef(ctx context.Context, userID, videoID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&model.UserVideo{})
	return result.RowsAffected > 0, result.Error
}

// 按追加顺序返回视频ID
func (r *userRepository) ListVideoRefs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).Model(&model.UserVideo{}).
		Where("user_id = ?", userID).
		Order("id asc").
		Pluck("video_id", &ids).Error
	return ids, err
}
