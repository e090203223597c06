package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore 保存到本地目录，返回的路径就是相对于进程的文件路径
type LocalStore struct {
	dir string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) StorePending(ctx context.Context, data []byte, declaredMimeType string) (string, error) {
	name, err := fileName(data, declaredMimeType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入媒体文件失败: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除媒体文件失败: %w", err)
	}
	return nil
}
