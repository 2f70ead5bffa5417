package services

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/studytrack-backend/internal/db"
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/seed"
)

type testEnv struct {
	log      *logger.Logger
	store    *db.StoreService
	subjects repos.SubjectRepo
	topics   repos.TopicRepo
	progress repos.TopicProgressRepo
	sessions repos.ExternalSessionRepo
	profile  repos.UserProfileRepo
	daily    repos.DailyLogRepo
	study    repos.StudySessionRepo
}

// newTestEnv opens a per-test in-memory sqlite store and wires the repos
// against it. The cache=shared DSN keeps the database alive across the
// pooled connections gorm opens.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	store := db.NewStoreServiceWithDB(gdb, log)
	if err := store.AutoMigrateAll(); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	return &testEnv{
		log:      log,
		store:    store,
		subjects: repos.NewSubjectRepo(gdb, log),
		topics:   repos.NewTopicRepo(gdb, log),
		progress: repos.NewTopicProgressRepo(gdb, log),
		sessions: repos.NewExternalSessionRepo(gdb, log),
		profile:  repos.NewUserProfileRepo(gdb, log),
		daily:    repos.NewDailyLogRepo(gdb, log),
		study:    repos.NewStudySessionRepo(gdb, log),
	}
}

func (e *testEnv) newSeedMigrator() *seedMigrator {
	m := NewSeedMigrator(e.store, e.log, e.subjects, e.topics, e.progress, e.profile, seed.Sources())
	return m.(*seedMigrator)
}

// seedTaxonomy runs a normal boot-time seed pass.
func (e *testEnv) seedTaxonomy(t *testing.T) {
	t.Helper()
	if err := e.newSeedMigrator().Initialize(context.Background(), false); err != nil {
		t.Fatalf("seed taxonomy: %v", err)
	}
}

// topicByName resolves a seeded topic or fails the test.
func (e *testEnv) topicByName(t *testing.T, subjectID int, name string) uint {
	t.Helper()
	topic, err := e.topics.GetBySubjectAndName(context.Background(), nil, subjectID, name)
	if err != nil {
		t.Fatalf("get topic %q: %v", name, err)
	}
	if topic == nil {
		t.Fatalf("topic %q not seeded", name)
	}
	return topic.ID
}
