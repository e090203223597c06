package handler

import (
	"Orion_Video/internal/middleware"
	"Orion_Video/internal/service"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorResponse 标准的API错误响应结构
type ErrorResponse struct {
	Error string `json:"error"`
}

func sendErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}

// sendServiceError 按错误类别映射HTTP状态码，内部错误不透出细节
func sendServiceError(c *gin.Context, logCtx *logrus.Entry, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		logCtx.WithError(err).Warn("资源不存在")
		sendErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		logCtx.WithError(err).Warn("没有权限")
		sendErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		logCtx.WithError(err).Warn("参数不合法")
		sendErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		logCtx.WithError(err).Error("服务暂不可用")
		sendErrorResponse(c, http.StatusServiceUnavailable, service.ErrUnavailable.Error())
	default:
		logCtx.WithError(err).Error("业务处理失败")
		sendErrorResponse(c, http.StatusInternalServerError, service.ErrInternal.Error())
	}
}

// currentUserID 取认证中间件放进来的用户ID
func currentUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func requireUserID(c *gin.Context) (uint64, bool) {
	id, ok := currentUserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
	}
	return id, ok
}

// URL里的数字ID，解析失败直接回400
func parseIDParam(c *gin.Context, name, message string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, message)
		return 0, false
	}
	return id, true
}
