package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ShengNW/interviewer/internal/api/middleware"
	"github.com/ShengNW/interviewer/internal/auth"
	"github.com/ShengNW/interviewer/internal/config"
	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/room"
	"github.com/ShengNW/interviewer/internal/storage"
)

// RegisterRoutes 注册 API 路由。
func RegisterRoutes(
	router *gin.Engine,
	manager *resume.Manager,
	roomService *room.Service,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient redis.UniversalClient,
	storageClient *storage.Client,
	uploadCfg config.UploadConfig,
	logger *slog.Logger,
) {
	resumeHandler := NewResumeHandler(manager, asynqClient, logger)
	roomHandler := NewRoomHandler(roomService)
	documentHandler := NewDocumentHandler(
		manager,
		storageClient,
		redisClient,
		logger,
		uploadCfg.ClamdAddr,
		uploadCfg.MaxBytes,
		uploadCfg.MaxUploadsPerDay,
	)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.CreateRoot)
			resumeGroup.GET("/trees", resumeHandler.ListTrees)
			resumeGroup.GET("/available", resumeHandler.ListAvailable)
			resumeGroup.GET("/stats", resumeHandler.GetStats)
			resumeGroup.GET("/:id", resumeHandler.GetNode)
			resumeGroup.POST("/:id/fork", resumeHandler.Fork)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteTree)
			resumeGroup.POST("/:id/publish", resumeHandler.Publish)
			resumeGroup.POST("/:id/unpublish", resumeHandler.Unpublish)
			resumeGroup.PUT("/:id/content", resumeHandler.UpdateContent)
			resumeGroup.POST("/:id/link-room", resumeHandler.LinkToRoom)
			resumeGroup.POST("/:id/document", documentHandler.UploadDocument)
			resumeGroup.GET("/:id/document-link", documentHandler.GetDocumentLink)
		}

		roomGroup := v1.Group("/rooms")
		roomGroup.Use(authMiddleware)
		{
			roomGroup.POST("", roomHandler.CreateRoom)
			roomGroup.GET("", roomHandler.ListRooms)
			roomGroup.GET("/:id", roomHandler.GetRoom)
			roomGroup.POST("/:id/sessions", roomHandler.CreateSession)
			roomGroup.GET("/:id/sessions", roomHandler.ListSessions)
		}
	}
}
