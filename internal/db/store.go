package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
	"github.com/yungbote/studytrack-backend/internal/utils"
)

type StoreService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStoreService opens the relational store. DB_DRIVER selects sqlite
// (default, on-device deployment) or postgres (hosted).
func NewStoreService(log *logger.Logger) (*StoreService, error) {
	serviceLog := log.With("service", "StoreService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "sqlite", log))

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "studytrack", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

		log.Info("Connecting to Postgres...")
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "studytrack.db", log)
		log.Info("Opening sqlite store...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
	if err != nil {
		log.Error("Failed to open store", "driver", driver, "error", err)
		return nil, fmt.Errorf("open store (%s): %w", driver, err)
	}

	return &StoreService{db: db, log: serviceLog}, nil
}

// NewStoreServiceWithDB wraps an already-open handle. Tests use this with
// an in-memory sqlite database.
func NewStoreServiceWithDB(db *gorm.DB, log *logger.Logger) *StoreService {
	return &StoreService{db: db, log: log.With("service", "StoreService")}
}

// AutoMigrateAll declares every table with create-if-not-exists semantics.
// Safe on every boot.
func (s *StoreService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Subject{},
		&types.Topic{},
		&types.TopicProgress{},
		&types.ExternalAppSession{},
		&types.StudySession{},
		&types.UserProfile{},
		&types.DailyLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

// additiveMigrations evolve the schema without a version table: each
// statement is applied on every boot and a failure (column already exists)
// is swallowed. Statements must stay strictly additive.
var additiveMigrations = []string{
	`ALTER TABLE topic_progress ADD COLUMN wrong_count integer NOT NULL DEFAULT 0`,
	`ALTER TABLE topic_progress ADD COLUMN nemesis boolean NOT NULL DEFAULT false`,
	`ALTER TABLE user_profile ADD COLUMN gcp_credentials_json text`,
	`ALTER TABLE user_profile ADD COLUMN preferred_engine text NOT NULL DEFAULT 'audio'`,
	`ALTER TABLE external_app_session ADD COLUMN metadata text`,
}

func (s *StoreService) ApplyAdditiveMigrations() {
	for _, stmt := range additiveMigrations {
		if err := s.db.Exec(stmt).Error; err != nil {
			s.log.Debug("Additive migration skipped", "stmt", stmt, "error", err)
		}
	}
}

func (s *StoreService) DB() *gorm.DB {
	return s.db
}
