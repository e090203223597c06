package service_test

import (
	"Orion_Video/internal/model"
	"Orion_Video/internal/repository"
	"Orion_Video/internal/service"
	"Orion_Video/internal/testsupport"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentsReturnNewestFirst(t *testing.T) {
	e := newEnv(t, envOptions{})
	u := e.user(t, "u")
	v := e.createVideo(t, u.ID)

	for _, content := range []string{"C1", "C2", "C3"} {
		_, err := e.threads.AppendComment(e.ctx, v.ID, u.ID, content)
		require.NoError(t, err)
	}
	view, err := e.threads.GetThread(e.ctx, v.ID, nil)
	require.NoError(t, err)
	require.Len(t, view.Comments, 3)
	var got []string
	for _, c := range view.Comments {
		got = append(got, c.Content)
		assert.Nil(t, c.Editable)
	}
	assert.Equal(t, []string{"C3", "C2", "C1"}, got)
}

func TestCommentEditScenario(t *testing.T) {
	e := newEnv(t, envOptions{})
	u1, u2 := e.user(t, "u1"), e.user(t, "u2")
	v := e.createVideo(t, u1.ID)

	c, err := e.threads.AppendComment(e.ctx, v.ID, u1.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.AuthorName)
	assert.Equal(t, u1.Image, c.AuthorImage)
	view, err := e.threads.GetThread(e.ctx, v.ID, nil)
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)

	edited, err := e.threads.EditComment(e.ctx, v.ID, c.ID, u1.ID, "hi there")
	require.NoError(t, err)
	assert.Equal(t, "hi there", edited.Content)
	assert.Equal(t, c.ID, edited.ID)
	assert.Equal(t, c.AuthorID, edited.AuthorID)
	assert.True(t, c.CreatedAt.Equal(edited.CreatedAt), "评论时间不随编辑改变")

	_, err = e.threads.EditComment(e.ctx, v.ID, c.ID, u2.ID, "hijacked")
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, e.threads.DeleteComment(e.ctx, v.ID, c.ID, u2.ID), service.ErrNotCommentAuthor)

	got, err := e.threads.GetCommentByID(e.ctx, v.ID, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hi there", got.Content)
}

func TestDeleteUnknownCommentLeavesThreadUnchanged(t *testing.T) {
	e := newEnv(t, envOptions{})
	u := e.user(t, "u")
	v := e.createVideo(t, u.ID)
	c, err := e.threads.AppendComment(e.ctx, v.ID, u.ID, "keep me")
	require.NoError(t, err)

	err = e.threads.DeleteComment(e.ctx, v.ID, "no-such-comment", u.ID)
	assert.ErrorIs(t, err, service.ErrCommentNotFound)
	_, err = e.threads.EditComment(e.ctx, v.ID+1, c.ID, u.ID, "x")
	assert.ErrorIs(t, err, service.ErrCommentNotFound)

	view, err := e.threads.GetThread(e.ctx, v.ID, nil)
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, c.ID, view.Comments[0].ID)

	require.NoError(t, e.threads.DeleteComment(e.ctx, v.ID, c.ID, u.ID))
	view, err = e.threads.GetThread(e.ctx, v.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, view.Comments)
	// 删空之后评论串依然存在
	_, err = e.comments.FindThread(e.ctx, v.ID)
	assert.NoError(t, err)
}

func TestGetThreadWithoutThread(t *testing.T) {
	e := newEnv(t, envOptions{})
	view, err := e.threads.GetThread(e.ctx, 77, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), view.VideoID)
	assert.NotNil(t, view.Comments)
	assert.Empty(t, view.Comments)

	c, err := e.threads.GetCommentByID(e.ctx, 77, "missing")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestEditableFlagUsesViewerIdentity(t *testing.T) {
	e := newEnv(t, envOptions{})
	u1, u2 := e.user(t, "u1"), e.user(t, "u2")
	v := e.createVideo(t, u1.ID)
	_, err := e.threads.AppendComment(e.ctx, v.ID, u1.ID, "from u1")
	require.NoError(t, err)
	_, err = e.threads.AppendComment(e.ctx, v.ID, u2.ID, "from u2")
	require.NoError(t, err)

	view, err := e.threads.GetThread(e.ctx, v.ID, &u1.ID)
	require.NoError(t, err)
	require.Len(t, view.Comments, 2)
	require.NotNil(t, view.Comments[0].Editable)
	assert.False(t, *view.Comments[0].Editable, "u2的评论")
	assert.True(t, *view.Comments[1].Editable, "u1自己的评论")
}

func TestAppendCommentRequiresVideo(t *testing.T) {
	e := newEnv(t, envOptions{})
	u := e.user(t, "u")
	_, err := e.threads.AppendComment(e.ctx, 404, u.ID, "hello")
	assert.ErrorIs(t, err, service.ErrVideoNotFound)

	v := e.createVideo(t, u.ID)
	_, err = e.threads.AppendComment(e.ctx, v.ID, u.ID, "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUnknownCommentAuthor(t *testing.T) {
	t.Run("默认照样创建", func(t *testing.T) {
		e := newEnv(t, envOptions{})
		v := e.createVideo(t, e.user(t, "u").ID)
		c, err := e.threads.AppendComment(e.ctx, v.ID, 999, "ghost")
		require.NoError(t, err)
		assert.Empty(t, c.AuthorName)
		assert.Empty(t, c.AuthorImage)
		assert.Equal(t, uint64(999), c.AuthorID)
	})
	t.Run("开启后拒绝", func(t *testing.T) {
		e := newEnv(t, envOptions{comment: service.CommentOptions{RequireAuthor: true}})
		v := e.createVideo(t, e.user(t, "u").ID)
		_, err := e.threads.AppendComment(e.ctx, v.ID, 999, "ghost")
		assert.ErrorIs(t, err, service.ErrUserNotFound)
		view, err := e.threads.GetThread(e.ctx, v.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, view.Comments)
	})
}

func TestConcurrentCommentWrites(t *testing.T) {
	e := newEnv(t, envOptions{})
	u := e.user(t, "u")
	v := e.createVideo(t, u.ID)
	seed, err := e.threads.AppendComment(e.ctx, v.ID, u.ID, "seed")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := e.threads.AppendComment(e.ctx, v.ID, u.ID, fmt.Sprintf("c%d", i))
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := e.threads.EditComment(e.ctx, v.ID, seed.ID, u.ID, fmt.Sprintf("seed v%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	view, err := e.threads.GetThread(e.ctx, v.ID, nil)
	require.NoError(t, err)
	assert.Len(t, view.Comments, 11, "并发追加和编辑不能丢评论")
	assert.Equal(t, seed.ID, view.Comments[len(view.Comments)-1].ID)
}

func TestAppendCommentIgnoresStaleVideoCache(t *testing.T) {
	rdb, mr := testsupport.OpenRedis(t)
	e := newEnv(t, envOptions{rdb: rdb})
	u := e.user(t, "u")
	v := e.createVideo(t, u.ID)

	_, err := e.videos.Peek(e.ctx, v.ID)
	require.NoError(t, err)
	// 绕过服务删掉视频，缓存里留下一份过期记录
	require.NoError(t, e.db.Unscoped().Delete(&model.Video{}, v.ID).Error)
	require.True(t, mr.Exists(fmt.Sprintf("video:info:%d", v.ID)))

	_, err = e.threads.AppendComment(e.ctx, v.ID, u.ID, "too late")
	assert.ErrorIs(t, err, service.ErrVideoNotFound)
	_, err = e.comments.FindThread(e.ctx, v.ID)
	assert.ErrorIs(t, err, repository.ErrThreadNotFound)
}
