package service_test

import (
	"Orion_Video/internal/data"
	"Orion_Video/internal/model"
	"Orion_Video/internal/repository"
	"Orion_Video/internal/service"
	"Orion_Video/internal/testsupport"
	"Orion_Video/pkg/keylock"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingCleaner struct {
	mu    sync.Mutex
	paths []string
}

func (c *recordingCleaner) Cleanup(_ context.Context, paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, paths...)
}

func (c *recordingCleaner) cleaned() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

type env struct {
	ctx      context.Context
	db       *gorm.DB
	users    *testsupport.FaultyUserRepo
	likes    *testsupport.FaultyLikeRepo
	videoDB  repository.VideoRepository
	comments repository.CommentRepository
	locker   keylock.Locker
	cleaner  *recordingCleaner

	videos   service.VideoService
	threads  service.CommentService
	accounts service.UserService
}

type envOptions struct {
	video   service.VideoOptions
	comment service.CommentOptions
	rdb     *redis.Client

	// 只替换服务直接持有的VideoRepository，事务里用的不受影响
	wrapVideos func(repository.VideoRepository) repository.VideoRepository
}

func newEnv(t testing.TB, opts envOptions) *env {
	db := testsupport.OpenDB(t)
	e := &env{
		ctx:      context.Background(),
		db:       db,
		users:    &testsupport.FaultyUserRepo{UserRepository: repository.NewUserRepository(db)},
		likes:    &testsupport.FaultyLikeRepo{LikeRepository: repository.NewLikeRepository(db)},
		videoDB:  repository.NewVideoRepository(db, opts.rdb),
		comments: repository.NewCommentRepository(db),
		locker:   keylock.NewMemoryLocker(),
		cleaner:  &recordingCleaner{},
	}
	videoRepo := e.videoDB
	if opts.wrapVideos != nil {
		videoRepo = opts.wrapVideos(e.videoDB)
	}
	uow := data.NewUnitOfWork(db, e.videoDB, e.users, e.likes)
	e.videos = service.NewVideoService(videoRepo, e.likes, e.users, e.comments, uow, data.NewCoordinator(uow), e.locker, e.cleaner, opts.video)
	e.threads = service.NewCommentService(e.comments, e.users, e.videos, e.locker, opts.comment)
	e.accounts = service.NewUserService(e.users, "test-secret", time.Hour)
	return e
}

func (e *env) user(t testing.TB, name string) *model.User {
	return testsupport.CreateUser(t, e.db, name)
}

func (e *env) createVideo(t testing.TB, authorID uint64) *model.Video {
	v, err := e.videos.Create(e.ctx, service.CreateVideoInput{
		AuthorID:    authorID,
		Title:       "Demo",
		Description: "A five-plus char description",
		ImagePath:   "uploads/videos/demo.png",
		VideoPath:   "uploads/videos/demo.mp4",
	})
	require.NoError(t, err)
	return v
}

func (e *env) videoCount(t testing.TB) int64 {
	var n int64
	require.NoError(t, e.db.Model(&model.Video{}).Count(&n).Error)
	return n
}

// 对所有视频和所有用户双向检查：视频在作者的引用列表里，引用列表里的视频都存在
func (e *env) assertSymmetric(t *testing.T, users ...*model.User) {
	t.Helper()
	all, err := e.videos.List(e.ctx)
	require.NoError(t, err)
	byID := map[uint64]model.Video{}
	for _, v := range all {
		byID[v.ID] = v
		refs, err := e.users.ListVideoRefs(e.ctx, v.AuthorID)
		require.NoError(t, err)
		assert.Contains(t, refs, v.ID)
	}
	for _, u := range users {
		refs, err := e.users.ListVideoRefs(e.ctx, u.ID)
		require.NoError(t, err)
		for _, id := range refs {
			v, ok := byID[id]
			if assert.True(t, ok, "引用了不存在的视频 %d", id) {
				assert.Equal(t, u.ID, v.AuthorID)
			}
		}
	}
}
