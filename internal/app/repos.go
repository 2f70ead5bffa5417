package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
)

type Repos struct {
	Subject         repos.SubjectRepo
	Topic           repos.TopicRepo
	TopicProgress   repos.TopicProgressRepo
	ExternalSession repos.ExternalSessionRepo
	UserProfile     repos.UserProfileRepo
	DailyLog        repos.DailyLogRepo
	StudySession    repos.StudySessionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Subject:         repos.NewSubjectRepo(db, log),
		Topic:           repos.NewTopicRepo(db, log),
		TopicProgress:   repos.NewTopicProgressRepo(db, log),
		ExternalSession: repos.NewExternalSessionRepo(db, log),
		UserProfile:     repos.NewUserProfileRepo(db, log),
		DailyLog:        repos.NewDailyLogRepo(db, log),
		StudySession:    repos.NewStudySessionRepo(db, log),
	}
}
