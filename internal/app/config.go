package app

import (
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/utils"
)

type Config struct {
	Port          string
	RecordingsDir string
	AllowOrigins  []string
	ForceReseed   bool
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	recordingsDir := utils.GetEnv("RECORDINGS_DIR", "./recordings", log)
	allowOrigin := utils.GetEnv("CORS_ALLOW_ORIGIN", "http://localhost:3000", log)
	forceReseed := utils.GetEnvAsBool("FORCE_RESEED", false, log)
	return Config{
		Port:          port,
		RecordingsDir: recordingsDir,
		AllowOrigins:  []string{allowOrigin},
		ForceReseed:   forceReseed,
	}
}
