package service

import (
	"Orion_Video/pkg/logger"
	"context"
	"errors"
	"fmt"
)

// 错误类别，调用方用 errors.Is 判断
var (
	ErrNotFound     = errors.New("资源不存在")
	ErrForbidden    = errors.New("没有权限")
	ErrInvalidInput = errors.New("参数不合法")
	ErrInternal     = errors.New("服务内部错误")
	ErrUnavailable  = errors.New("服务暂不可用")
)

var (
	ErrVideoNotFound    = fmt.Errorf("%w: 视频不存在", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("%w: 用户不存在", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("%w: 评论不存在", ErrNotFound)
	ErrNotVideoAuthor   = fmt.Errorf("%w: 只有作者本人可以操作该视频", ErrForbidden)
	ErrNotCommentAuthor = fmt.Errorf("%w: 只有评论者本人可以操作该评论", ErrForbidden)
	ErrRejectedMimeType = fmt.Errorf("%w: 不支持的文件类型", ErrInvalidInput)
	ErrEmailTaken       = fmt.Errorf("%w: 邮箱已被注册", ErrInvalidInput)
	ErrBadCredentials   = fmt.Errorf("%w: 邮箱或密码错误", ErrForbidden)
)

// internalError 把存储层错误收敛成 ErrInternal/ErrUnavailable，细节只进日志
func internalError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.Log.WithField("op", op).WithError(err).Warn("操作超时或被取消")
		return fmt.Errorf("%w: %s", ErrUnavailable, op)
	}
	logger.Log.WithField("op", op).WithError(err).Error("存储操作失败")
	return fmt.Errorf("%w: %s", ErrInternal, op)
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
