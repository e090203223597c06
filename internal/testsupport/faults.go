package testsupport

import (
	"Orion_Video/internal/repository"
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrInjected = errors.New("injected fault")

// FaultyUserRepo 包装UserRepository，在指定步骤注入失败；WithTx后依然保持包装
type FaultyUserRepo struct {
	repository.UserRepository
	FailAppend bool
	FailRemove bool
}

func (f *FaultyUserRepo) AppendVideoRef(ctx context.Context, userID, videoID uint64) error {
	if f.FailAppend {
		return ErrInjected
	}
	return f.UserRepository.AppendVideoRef(ctx, userID, videoID)
}

func (f *FaultyUserRepo) RemoveVideoRef(ctx context.Context, userID, videoID uint64) (bool, error) {
	if f.FailRemove {
		return false, ErrInjected
	}
	return f.UserRepository.RemoveVideoRef(ctx, userID, videoID)
}

func (f *FaultyUserRepo) WithTx(tx *gorm.DB) repository.UserRepository {
	return &FaultyUserRepo{
		UserRepository: f.UserRepository.WithTx(tx),
		FailAppend:     f.FailAppend,
		FailRemove:     f.FailRemove,
	}
}

// FaultyLikeRepo 包装LikeRepository，读点赞集合时注入失败
type FaultyLikeRepo struct {
	repository.LikeRepository
	FailList bool
}

func (f *FaultyLikeRepo) ListUserIDs(ctx context.Context, videoID uint64) ([]uint64, error) {
	if f.FailList {
		return nil, ErrInjected
	}
	return f.LikeRepository.ListUserIDs(ctx, videoID)
}

func (f *FaultyLikeRepo) WithTx(tx *gorm.DB) repository.LikeRepository {
	return &FaultyLikeRepo{
		LikeRepository: f.LikeRepository.WithTx(tx),
		FailList:       f.FailList,
	}
}
