package app

import (
	"github.com/yungbote/studytrack-backend/internal/handlers"
	"github.com/yungbote/studytrack-backend/internal/logger"
)

type Handlers struct {
	ExternalSession *handlers.ExternalSessionHandler
	Profile         *handlers.ProfileHandler
	Taxonomy        *handlers.TaxonomyHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		ExternalSession: handlers.NewExternalSessionHandler(services.SessionTracker, services.Gateway),
		Profile:         handlers.NewProfileHandler(services.Profile),
		Taxonomy:        handlers.NewTaxonomyHandler(services.Taxonomy),
	}
}
