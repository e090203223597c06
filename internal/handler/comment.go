package handler

import (
	"Orion_Video/internal/dto"
	"Orion_Video/internal/service"
	"Orion_Video/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CommentHandler interface {
	GetComments(c *gin.Context)
	GetComment(c *gin.Context)
	CreateComment(c *gin.Context)
	EditComment(c *gin.Context)
	DeleteComment(c *gin.Context)
}

type commentHandler struct {
	CommentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) CommentHandler {
	return &commentHandler{CommentService: commentService}
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// 获取评论串：登录用户会拿到每条评论的editable标记
func (h *commentHandler) GetComments(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	var viewerID *uint64
	if id, ok := currentUserID(c); ok {
		viewerID = &id
	}
	logCtx := logger.Log.WithField("video_id", videoID)
	view, err := h.CommentService.GetThread(c.Request.Context(), videoID, viewerID)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.ToThreadResponse(view)})
}

// 单条评论，不存在时data为null
func (h *commentHandler) GetComment(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	commentID := c.Param("comment_id")
	logCtx := logger.Log.WithField("video_id", videoID).WithField("comment_id", commentID)
	comment, err := h.CommentService.GetCommentByID(c.Request.Context(), videoID, commentID)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	if comment == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.ToCommentResponse(comment)})
}

// 视频评论：1、解析URL中的videoID 2、解析Body中的Content 3、获取jwt里的userID 4、创建评论并返回
func (h *commentHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Warn("评论参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID).WithField("user_id", userID)
	comment, err := h.CommentService.AppendComment(c.Request.Context(), videoID, userID, req.Content)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	logCtx.WithField("comment_id", comment.ID).Info("评论成功")
	c.JSON(http.StatusCreated, gin.H{
		"message": "评论成功",
		"data":    dto.ToCommentResponse(comment),
	})
}

func (h *commentHandler) EditComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	commentID := c.Param("comment_id")
	logCtx := logger.Log.WithField("video_id", videoID).WithField("comment_id", commentID).WithField("user_id", userID)
	comment, err := h.CommentService.EditComment(c.Request.Context(), videoID, commentID, userID, req.Content)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.ToCommentResponse(comment)})
}

func (h *commentHandler) DeleteComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	commentID := c.Param("comment_id")
	logCtx := logger.Log.WithField("video_id", videoID).WithField("comment_id", commentID).WithField("user_id", userID)
	if err := h.CommentService.DeleteComment(c.Request.Context(), videoID, commentID, userID); err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "评论已删除"})
}
