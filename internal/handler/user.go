package handler

import (
	"Orion_Video/internal/dto"
	"Orion_Video/internal/media"
	"Orion_Video/internal/service"
	"Orion_Video/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	GetProfile(c *gin.Context)
}

type userHandler struct {
	UserService service.UserService
	Store       media.Store
	Cleaner     media.Cleaner
}

func NewUserHandler(userService service.UserService, store media.Store, cleaner media.Cleaner) UserHandler {
	return &userHandler{UserService: userService, Store: store, Cleaner: cleaner}
}

// 注册信息，JSON和multipart表单都可以；表单里可以带头像image
type RegisterRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// 注册：1、解析请求 2、有头像就先存头像 3、service层注册，失败时删掉刚存的头像
func (h *userHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Log.WithError(err).Warn("请求参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	logCtx := logger.Log.WithField("email", req.Email)
	logCtx.Info("开始处理用户注册请求")

	ctx := c.Request.Context()
	var imagePath string
	if fh, err := c.FormFile("image"); err == nil {
		content, err := readFormFile(fh)
		if err == nil {
			imagePath, err = h.Store.StorePending(ctx, content, fh.Header.Get("Content-Type"))
		}
		if err != nil {
			if errors.Is(err, media.ErrRejectedMimeType) {
				err = service.ErrRejectedMimeType
			}
			sendServiceError(c, logCtx, err)
			return
		}
	}

	user, err := h.UserService.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Image:    imagePath,
	})
	if err != nil {
		if imagePath != "" {
			h.Cleaner.Cleanup(ctx, imagePath)
		}
		sendServiceError(c, logCtx, err)
		return
	}

	logCtx.WithField("user_id", user.ID).Info("用户注册成功")
	c.JSON(http.StatusCreated, gin.H{
		"message": "注册成功",
		"data":    dto.ToUserResponse(user, []uint64{}),
	})
}

// 登录：1、解析请求 2、service层校验密码并签发token 3、返回token
func (h *userHandler) Login(c *gin.Context) {
	var login LoginRequest
	if err := c.ShouldBindJSON(&login); err != nil {
		logger.Log.WithError(err).Warn("登录请求参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	logCtx := logger.Log.WithField("email", login.Email)

	token, user, err := h.UserService.Login(c.Request.Context(), login.Email, login.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			// 模糊的错误提示，更安全
			logCtx.WithError(err).Warn("用户登录失败")
			sendErrorResponse(c, http.StatusUnauthorized, "邮箱或密码错误")
			return
		}
		sendServiceError(c, logCtx, err)
		return
	}

	logCtx.WithField("user_id", user.ID).Info("用户登录成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "登录成功",
		"data": gin.H{
			"token": token,
			"user":  dto.ToUserResponse(user, []uint64{}),
		},
	})
}

// 获取个人信息，带上按发布顺序排列的视频ID
func (h *userHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", userID)
	profile, err := h.UserService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		sendServiceError(c, logCtx, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "成功获取用户信息",
		"data":    dto.ToUserResponse(profile.User, profile.VideoIDs),
	})
}
