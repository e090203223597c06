package data

import (
	"Orion_Video/internal/repository"
	"context"

	"gorm.io/gorm"
)

// UnitOfWork 事务管理器
type UnitOfWork interface {
	// Execute 把fn包在一个数据库事务里执行，fn返回error就回滚
	Execute(ctx context.Context, fn func(repos *TransactionalRepositories) error) error
}

// TransactionalRepositories 绑定在同一个事务上的Repository
// 事务里只能通过它们访问数据库，不能再用事务外的db
type TransactionalRepositories struct {
	VideoRepo repository.VideoRepository
	UserRepo  repository.UserRepository
	LikeRepo  repository.LikeRepository
}

type gormUnitOfWork struct {
	db        *gorm.DB
	videoRepo repository.VideoRepository
	userRepo  repository.UserRepository
	likeRepo  repository.LikeRepository
}

// NewUnitOfWork 接收的是事务外的repositories，Execute时再用WithTx派生事务副本
func NewUnitOfWork(db *gorm.DB, videoRepo repository.VideoRepository, userRepo repository.UserRepository, likeRepo repository.LikeRepository) UnitOfWork {
	return &gormUnitOfWork{
		db:        db,
		videoRepo: videoRepo,
		userRepo:  userRepo,
		likeRepo:  likeRepo,
	}
}

func (u *gormUnitOfWork) Execute(ctx context.Context, fn func(repos *TransactionalRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TransactionalRepositories{
			VideoRepo: u.videoRepo.WithTx(tx),
			UserRepo:  u.userRepo.WithTx(tx),
			LikeRepo:  u.likeRepo.WithTx(tx),
		})
	})
}
