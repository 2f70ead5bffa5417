package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studytrack-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ExternalSessionHandler: handlers.ExternalSession,
		ProfileHandler:         handlers.Profile,
		TaxonomyHandler:        handlers.Taxonomy,
		AllowOrigins:           cfg.AllowOrigins,
	})
}
