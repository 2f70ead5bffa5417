package app

import (
	"github.com/yungbote/studytrack-backend/internal/db"
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/seed"
	"github.com/yungbote/studytrack-backend/internal/services"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type Services struct {
	SeedMigrator    services.SeedMigrator
	Profile         services.ProfileService
	TopicAttributor services.TopicAttributor
	Taxonomy        services.TaxonomyService
	SessionTracker  services.SessionTracker
	OpenAI          services.OpenAIClient
	Speech          services.SpeechProvider
	Recorder        services.Recorder
	Gateway         services.DeviceGateway
}

func wireServices(store *db.StoreService, log *logger.Logger, cfg Config, reposet Repos) Services {
	log.Info("Wiring services...")

	seedMigrator := services.NewSeedMigrator(store, log, reposet.Subject, reposet.Topic, reposet.TopicProgress, reposet.UserProfile, seed.Sources())
	profileService := services.NewProfileService(log, reposet.UserProfile, reposet.DailyLog, reposet.StudySession, reposet.TopicProgress)
	attributor := services.NewTopicAttributor(log, reposet.Subject, reposet.Topic, reposet.TopicProgress)
	taxonomyService := services.NewTaxonomyService(log, reposet.Subject, reposet.Topic, reposet.TopicProgress)

	openaiClient := services.NewOpenAIClient(log)
	speechProvider := services.NewSpeechProvider(log)
	recorder := services.NewFileRecorder(log, cfg.RecordingsDir)
	gateway := services.NewRegistryGateway(log, services.DefaultTrackedApps())

	engines := map[string]services.Transcriber{
		types.EngineAudio:    services.NewAudioEngine(log, openaiClient),
		types.EnginePipeline: services.NewPipelineEngine(log, speechProvider, openaiClient),
	}

	sessionTracker := services.NewSessionTracker(log, reposet.ExternalSession, reposet.UserProfile, profileService, attributor, recorder, gateway, engines)

	return Services{
		SeedMigrator:    seedMigrator,
		Profile:         profileService,
		TopicAttributor: attributor,
		Taxonomy:        taxonomyService,
		SessionTracker:  sessionTracker,
		OpenAI:          openaiClient,
		Speech:          speechProvider,
		Recorder:        recorder,
		Gateway:         gateway,
	}
}
