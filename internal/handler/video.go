package handler

import (
	"Orion_Video/internal/dto"
	"Orion_Video/internal/media"
	"Orion_Video/internal/service"
	"Orion_Video/pkg/logger"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type VideoHandler interface {
	ListVideos(c *gin.Context)
	GetFeed(c *gin.Context)
	GetVideoByID(c *gin.Context)
	ListUserVideos(c *gin.Context)

	CreateVideo(c *gin.Context)
	UpdateVideo(c *gin.Context)
	DeleteVideo(c *gin.Context)
	ToggleLike(c *gin.Context)
}

type videoHandler struct {
	VideoService service.VideoService
	Store        media.Store
	Cleaner      media.Cleaner
	maxUpload    int64
}

// maxUploadMB 限制单个上传文件的大小
func NewVideoHandler(videoService service.VideoService, store media.Store, cleaner media.Cleaner, maxUploadMB int64) VideoHandler {
	return &videoHandler{
		VideoService: videoService,
		Store:        store,
		Cleaner:      cleaner,
		maxUpload:    maxUploadMB << 20,
	}
}

type CreateVideoRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required,min=5"`
}

type UpdateVideoRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=5"`
}

func (h *videoHandler) ListVideos(c *gin.Context) {
	logCtx := logger.Log.WithField("ip", c.ClientIP())
	videos, err := h.VideoService.List(c.Request.Context())
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.ToVideoResponses(videos)})
}

// 获取视频Feed流：1、将请求附上用户IP，进行问题溯源 2、通过service层请求Feed流 3、dto层安全地返回
func (h *videoHandler) GetFeed(c *gin.Context) {
	logCtx := logger.Log.WithField("ip", c.ClientIP())
	logCtx.Info("开始处理获取Feed流请求")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	videos, err := h.VideoService.Feed(c.Request.Context(), limit)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}

	logCtx.WithField("count", len(videos)).Info("成功获取Feed流")
	c.JSON(http.StatusOK, gin.H{
		"message": "成功获取视频流",
		"data":    dto.ToVideoResponses(videos),
	})
}

func (h *videoHandler) GetVideoByID(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID)
	video, err := h.VideoService.GetByID(c.Request.Context(), videoID)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.ToVideoResponse(video)})
}

func (h *videoHandler) ListUserVideos(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id", "无效的用户ID")
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", userID)
	videos, err := h.VideoService.ListByAuthor(c.Request.Context(), userID)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.ToVideoResponses(videos)})
}

// 发布视频：1、解析表单 2、先存封面和视频文件 3、service层在事务里创建视频，失败时service负责清理已存的文件
func (h *videoHandler) CreateVideo(c *gin.Context) {
	authorID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req CreateVideoRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Log.WithError(err).Warn("发布视频参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	// 蛇形命名法（日志聚合平台ELK、前端JavaScript）
	logCtx := logger.Log.WithField("author_id", authorID)
	logCtx.Info("开始处理发布视频请求")

	ctx := c.Request.Context()
	imagePath, err := h.storeFormFile(c, "image")
	if err != nil {
		h.sendUploadError(c, logCtx, err)
		return
	}
	videoPath, err := h.storeFormFile(c, "video")
	if err != nil {
		h.Cleaner.Cleanup(ctx, imagePath)
		h.sendUploadError(c, logCtx, err)
		return
	}

	video, err := h.VideoService.Create(ctx, service.CreateVideoInput{
		AuthorID:    authorID,
		Title:       req.Title,
		Description: req.Description,
		ImagePath:   imagePath,
		VideoPath:   videoPath,
	})
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	logCtx.WithField("video_id", video.ID).Info("视频发布成功")

	c.JSON(http.StatusCreated, gin.H{
		"message": "视频发布成功",
		"data":    dto.ToVideoResponse(video),
	})
}

var errMissingFile = errors.New("缺少上传文件")

func (h *videoHandler) storeFormFile(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errMissingFile, field)
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return "", fmt.Errorf("%w: %s 超过大小限制", service.ErrInvalidInput, field)
	}
	content, err := readFormFile(fh)
	if err != nil {
		return "", err
	}
	return h.Store.StorePending(c.Request.Context(), content, fh.Header.Get("Content-Type"))
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *videoHandler) sendUploadError(c *gin.Context, logCtx *logrus.Entry, err error) {
	switch {
	case errors.Is(err, errMissingFile):
		logCtx.WithError(err).Warn("上传文件缺失")
		sendErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrRejectedMimeType):
		sendServiceError(c, logCtx, service.ErrRejectedMimeType)
	default:
		sendServiceError(c, logCtx, err)
	}
}

// 修改视频：只有作者可以改标题和简介
func (h *videoHandler) UpdateVideo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	var req UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Warn("修改视频参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID).WithField("user_id", userID)
	video, err := h.VideoService.Update(c.Request.Context(), videoID, userID, req.Title, req.Description)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	logCtx.Info("视频修改成功")
	c.JSON(http.StatusOK, gin.H{"data": dto.ToVideoResponse(video)})
}

func (h *videoHandler) DeleteVideo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID).WithField("user_id", userID)
	if err := h.VideoService.Delete(c.Request.Context(), videoID, userID); err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "视频已删除"})
}

// 点赞/取消点赞：同一个接口，按当前状态翻转
func (h *videoHandler) ToggleLike(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID).WithField("user_id", userID)
	result, err := h.VideoService.ToggleLike(c.Request.Context(), videoID, userID)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	message := "点赞成功"
	if !result.Liked {
		message = "取消点赞成功"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "data": dto.ToLikeResponse(result)})
}
