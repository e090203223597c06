package router_test

import (
	"Orion_Video/internal/data"
	"Orion_Video/internal/handler"
	"Orion_Video/internal/media"
	"Orion_Video/internal/repository"
	"Orion_Video/internal/router"
	"Orion_Video/internal/service"
	"Orion_Video/internal/testsupport"
	"Orion_Video/pkg/keylock"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-test-secret"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type apiClient struct {
	t *testing.T
	r *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	gin.SetMode(gin.TestMode)
	db := testsupport.OpenDB(t)
	store, err := media.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	cleaner := media.NewDirectCleaner(store)

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db, nil)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	uow := data.NewUnitOfWork(db, videoRepo, userRepo, likeRepo)
	locker := keylock.NewMemoryLocker()

	videoService := service.NewVideoService(videoRepo, likeRepo, userRepo, commentRepo, uow, data.NewCoordinator(uow), locker, cleaner, service.VideoOptions{})
	commentService := service.NewCommentService(commentRepo, userRepo, videoService, locker, service.CommentOptions{})
	userService := service.NewUserService(userRepo, secret, time.Hour)

	r := router.SetupRouter(
		router.Options{JWTSecretKey: secret, OpTimeout: 5 * time.Second},
		handler.NewUserHandler(userService, store, cleaner),
		handler.NewVideoHandler(videoService, store, cleaner, 16),
		handler.NewCommentHandler(commentService),
	)
	return &apiClient{t: t, r: r}
}

func (a *apiClient) do(req *http.Request, token string) (int, map[string]interface{}) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func (a *apiClient) json(method, path, token string, payload interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, token)
}

func (a *apiClient) signup(name string) string {
	email := name + "@orion.test"
	code, _ := a.json(http.MethodPost, "/api/v1/users/register", "", gin.H{"name": name, "email": email, "password": "secret1"})
	require.Equal(a.t, http.StatusCreated, code)
	code, body := a.json(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(a.t, http.StatusOK, code)
	return body["data"].(map[string]interface{})["token"].(string)
}

func (a *apiClient) upload(token, title, description, videoMime string) (int, map[string]interface{}) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(a.t, mw.WriteField("title", title))
	require.NoError(a.t, mw.WriteField("description", description))
	for _, f := range []struct{ field, name, mime string }{
		{"image", "cover.png", "image/png"},
		{"video", "clip.mkv", videoMime},
	} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		h.Set("Content-Type", f.mime)
		part, err := mw.CreatePart(h)
		require.NoError(a.t, err)
		if f.field == "image" {
			_, err = part.Write(pngBytes)
		} else {
			_, err = part.Write([]byte{0x1a, 0x45, 0xdf, 0xa3, 0x00, 0x00})
		}
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, token)
}

func TestVideoAndCommentFlow(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")
	bob := api.signup("bob")

	code, _ := api.upload("", "Demo", "A five-plus char description", "video/x-matroska")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := api.upload(alice, "Demo", "A five-plus char description", "video/x-matroska")
	require.Equal(t, http.StatusCreated, code, body)
	video := body["data"].(map[string]interface{})
	videoID := uint64(video["id"].(float64))
	assert.Equal(t, float64(0), video["views"])
	videoFile := video["video"].(string)
	_, err := os.Stat(videoFile)
	require.NoError(t, err)

	code, body = api.json(http.MethodGet, fmt.Sprintf("/api/v1/videos/%d", videoID), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["views"])

	code, body = api.json(http.MethodPost, fmt.Sprintf("/api/v1/videos/%d/like", videoID), bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["data"].(map[string]interface{})["liked"])

	code, body = api.json(http.MethodPost, fmt.Sprintf("/api/v1/videos/%d/comments", videoID), bob, gin.H{"content": "nice"})
	require.Equal(t, http.StatusCreated, code)
	commentID := body["data"].(map[string]interface{})["id"].(string)

	code, body = api.json(http.MethodGet, fmt.Sprintf("/api/v1/videos/%d/comments", videoID), bob, nil)
	require.Equal(t, http.StatusOK, code)
	comments := body["data"].(map[string]interface{})["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, true, comments[0].(map[string]interface{})["editable"])

	code, body = api.json(http.MethodGet, fmt.Sprintf("/api/v1/videos/%d/comments", videoID), "", nil)
	require.Equal(t, http.StatusOK, code)
	comments = body["data"].(map[string]interface{})["comments"].([]interface{})
	assert.NotContains(t, comments[0].(map[string]interface{}), "editable")

	code, _ = api.json(http.MethodPatch, fmt.Sprintf("/api/v1/videos/%d/comments/%s", videoID, commentID), alice, gin.H{"content": "mine now"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = api.json(http.MethodDelete, fmt.Sprintf("/api/v1/videos/%d/comments/%s", videoID, "nope"), bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.json(http.MethodDelete, fmt.Sprintf("/api/v1/videos/%d", videoID), bob, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = api.json(http.MethodDelete, fmt.Sprintf("/api/v1/videos/%d", videoID), alice, nil)
	require.Equal(t, http.StatusOK, code)

	_, err = os.Stat(videoFile)
	assert.True(t, os.IsNotExist(err), "删除后媒体文件被清理")
	code, _ = api.json(http.MethodGet, fmt.Sprintf("/api/v1/videos/%d", videoID), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUploadRejectsMimeType(t *testing.T) {
	api := newAPI(t)
	token := api.signup("carol")

	code, body := api.upload(token, "Demo", "A five-plus char description", "application/zip")
	assert.Equal(t, http.StatusUnprocessableEntity, code, body)

	code, body = api.json(http.MethodGet, "/api/v1/videos", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"])
}

func TestValidationAndProfile(t *testing.T) {
	api := newAPI(t)
	token := api.signup("dave")

	code, _ := api.upload(token, "Demo", "abc", "video/mp4")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := api.json(http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dave", body["data"].(map[string]interface{})["name"])
	assert.Empty(t, body["data"].(map[string]interface{})["videos"])

	code, _ = api.json(http.MethodGet, "/api/v1/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.json(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "dave@orion.test", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, code)
}
