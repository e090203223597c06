// Package media 管理上传的封面和视频文件：保存、删除，以及删除失败时只记日志的清理
package media

import (
	"context"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrRejectedMimeType = errors.New("不支持的文件类型")

// 允许上传的MIME类型和落盘扩展名
var mimeTypeExt = map[string]string{
	"video/x-matroska": "mkv",
	"video/mp4":        "mp4",
	"image/png":        "png",
	"image/jpeg":       "jpeg",
	"image/jpg":        "jpg",
}

// Store 媒体存储，Delete必须幂等：文件不存在也算成功
type Store interface {
	StorePending(ctx context.Context, data []byte, declaredMimeType string) (string, error)
	Delete(ctx context.Context, path string) error
}

// fileName 校验类型并生成 <uuid>.<ext> 文件名
// 1、声明类型必须在白名单里 2、嗅探出的大类（video/image）不能和声明的矛盾
func fileName(data []byte, declaredMimeType string) (string, error) {
	declared := strings.ToLower(strings.TrimSpace(declaredMimeType))
	ext, ok := mimeTypeExt[declared]
	if !ok {
		return "", ErrRejectedMimeType
	}
	if !sniffMatches(data, declared) {
		return "", ErrRejectedMimeType
	}
	return uuid.NewString() + "." + ext, nil
}

func sniffMatches(data []byte, declared string) bool {
	detected := mimetype.Detect(data)
	// 认不出来的二进制内容放行，交给后续转码环节
	if detected.Is("application/octet-stream") {
		return true
	}
	declaredTop := topLevel(declared)
	for m := detected; m != nil; m = m.Parent() {
		if topLevel(m.String()) == declaredTop {
			return true
		}
	}
	return false
}

func topLevel(mime string) string {
	if i := strings.IndexByte(mime, '/'); i > 0 {
		return mime[:i]
	}
	return mime
}
