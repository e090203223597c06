package router

import (
	"Orion_Video/internal/handler"
	"Orion_Video/internal/middleware"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Options 路由层需要的配置
type Options struct {
	JWTSecretKey string
	OpTimeout    time.Duration
}

func SetupRouter(opts Options, userHandler handler.UserHandler, videoHandler handler.VideoHandler, commentHandler handler.CommentHandler) *gin.Engine {
	r := gin.Default()
	// 视频+封面两个文件，超出部分gin会落到临时文件
	r.MaxMultipartMemory = 32 << 20

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.Timeout(opts.OpTimeout))
	{
		apiV1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "pang",
			})
		})
		apiV1.GET("/feed", videoHandler.GetFeed)
		apiV1.GET("/videos", videoHandler.ListVideos)
		apiV1.GET("/videos/:video_id", videoHandler.GetVideoByID)
		apiV1.GET("/videos/:video_id/comments/:comment_id", commentHandler.GetComment)
		apiV1.GET("/videos/:video_id/comments", middleware.OptionalAuth(opts.JWTSecretKey), commentHandler.GetComments)

		userGroup := apiV1.Group("/users")
		{
			userGroup.POST("/register", userHandler.Register)
			userGroup.POST("/login", userHandler.Login)
			userGroup.GET("/:user_id/videos", videoHandler.ListUserVideos)
		}

		authorized := apiV1.Group("/")
		authorized.Use(middleware.AuthMiddleware(opts.JWTSecretKey))
		{
			authorized.GET("/profile", userHandler.GetProfile)

			authorized.POST("/videos", videoHandler.CreateVideo)
			authorized.PATCH("/videos/:video_id", videoHandler.UpdateVideo)
			authorized.DELETE("/videos/:video_id", videoHandler.DeleteVideo)
			authorized.POST("/videos/:video_id/like", videoHandler.ToggleLike)

			authorized.POST("/videos/:video_id/comments", commentHandler.CreateComment)
			authorized.PATCH("/videos/:video_id/comments/:comment_id", commentHandler.EditComment)
			authorized.DELETE("/videos/:video_id/comments/:comment_id", commentHandler.DeleteComment)
		}
	}

	return r
}
