package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studytrack-backend/internal/handlers"
)

type RouterConfig struct {
	ExternalSessionHandler *handlers.ExternalSessionHandler
	ProfileHandler         *handlers.ProfileHandler
	TaxonomyHandler        *handlers.TaxonomyHandler
	AllowOrigins           []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	// External session lifecycle
	router.POST("/external-sessions/launch", cfg.ExternalSessionHandler.Launch)
	router.POST("/lifecycle", cfg.ExternalSessionHandler.Lifecycle)
	router.GET("/external-sessions", cfg.ExternalSessionHandler.List)
	router.POST("/external-sessions/:id/transcribe", cfg.ExternalSessionHandler.Transcribe)
	router.POST("/external-sessions/:id/accept", cfg.ExternalSessionHandler.Accept)
	router.POST("/external-sessions/:id/decline", cfg.ExternalSessionHandler.Decline)

	// In-app study
	router.POST("/study-sessions", cfg.ProfileHandler.RecordStudySession)
	router.GET("/study-sessions", cfg.ProfileHandler.ListStudySessions)
	router.POST("/checkin", cfg.ProfileHandler.CheckIn)
	router.GET("/daily-logs", cfg.ProfileHandler.ListDailyLogs)
	router.GET("/profile", cfg.ProfileHandler.Get)

	// Taxonomy reads
	router.GET("/subjects", cfg.TaxonomyHandler.ListSubjects)
	router.GET("/subjects/:id/topics", cfg.TaxonomyHandler.ListTopics)
	router.GET("/progress", cfg.TaxonomyHandler.ProgressSummary)

	return router
}
