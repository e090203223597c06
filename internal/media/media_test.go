package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestLocalStoreStoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	path, err := store.StorePending(ctx, pngHeader, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
	assert.True(t, strings.HasSuffix(path, ".png"))
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	// 再删一次也算成功
	assert.NoError(t, store.Delete(ctx, path))
}

func TestLocalStoreRejectsMimeTypes(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.StorePending(ctx, []byte("%PDF-1.4"), "application/pdf")
	assert.ErrorIs(t, err, ErrRejectedMimeType)

	// 内容是图片却声明成视频
	_, err = store.StorePending(ctx, pngHeader, "video/mp4")
	assert.ErrorIs(t, err, ErrRejectedMimeType)

	// 认不出来的二进制放行
	path, err := store.StorePending(ctx, []byte{0x00, 0x01, 0x02, 0xff}, "video/x-matroska")
	require.NoError(t, err)
	assert.Equal(t, ".mkv", filepath.Ext(path))
}

func TestFileNameExtensions(t *testing.T) {
	for mime, ext := range map[string]string{
		"image/jpg":  "jpg",
		"image/jpeg": "jpeg",
		"IMAGE/PNG":  "png",
	} {
		name, err := fileName([]byte{0x00, 0x01, 0xfe}, mime)
		require.NoError(t, err, mime)
		assert.True(t, strings.HasSuffix(name, "."+ext), name)
	}
}

type recordingStore struct {
	mu      sync.Mutex
	deleted []string
	failOn  string
}

func (s *recordingStore) StorePending(context.Context, []byte, string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *recordingStore) Delete(_ context.Context, path string) error {
	if path == s.failOn {
		return errors.New("disk on fire")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	return nil
}

func TestDeleteAllContinuesAfterFailure(t *testing.T) {
	store := &recordingStore{failOn: "b"}
	err := DeleteAll(context.Background(), store, []string{"a", "b", "", "c"})
	assert.Error(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, store.deleted)
}

func TestQueueCleanerFallsBackWithoutConnection(t *testing.T) {
	store := &recordingStore{}
	cleaner := NewQueueCleaner(nil, NewDirectCleaner(store))
	cleaner.Cleanup(context.Background(), "x.mp4", "x.png")
	assert.ElementsMatch(t, []string{"x.mp4", "x.png"}, store.deleted)
}

func TestHandleCleanupMessage(t *testing.T) {
	store := &recordingStore{failOn: "bad"}
	ctx := context.Background()

	retry, err := HandleCleanupMessage(ctx, store, []byte("{not json"))
	assert.Error(t, err)
	assert.False(t, retry)

	retry, err = HandleCleanupMessage(ctx, store, []byte(`{"paths":["ok.mp4"]}`))
	assert.NoError(t, err)
	assert.False(t, retry)

	retry, err = HandleCleanupMessage(ctx, store, []byte(`{"paths":["bad"]}`))
	assert.Error(t, err)
	assert.True(t, retry)
}
