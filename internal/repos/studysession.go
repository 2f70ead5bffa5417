package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type StudySessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.StudySession) error
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.StudySession, error)
	ListByTopicID(ctx context.Context, tx *gorm.DB, topicID uint) ([]*types.StudySession, error)
}

type studySessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudySessionRepo(db *gorm.DB, baseLog *logger.Logger) StudySessionRepo {
	return &studySessionRepo{db: db, log: baseLog.With("repo", "StudySessionRepo")}
}

func (r *studySessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.StudySession) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}

	return transaction.WithContext(ctx).Create(row).Error
}

func (r *studySessionRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.StudySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 50
	}

	var results []*types.StudySession
	if err := transaction.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *studySessionRepo) ListByTopicID(ctx context.Context, tx *gorm.DB, topicID uint) ([]*types.StudySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StudySession
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("started_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
