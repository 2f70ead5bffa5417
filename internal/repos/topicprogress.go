package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type TopicProgressRepo interface {
	Ensure(ctx context.Context, tx *gorm.DB, topicID uint) (bool, error)
	GetByTopicID(ctx context.Context, tx *gorm.DB, topicID uint) (*types.TopicProgress, error)
	GetByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uint) ([]*types.TopicProgress, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.TopicProgress) error
	StatusCounts(ctx context.Context, tx *gorm.DB, subjectID int) (map[string]int, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type topicProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicProgressRepo(db *gorm.DB, baseLog *logger.Logger) TopicProgressRepo {
	return &topicProgressRepo{db: db, log: baseLog.With("repo", "TopicProgressRepo")}
}

// Ensure insert-or-ignores the 1:1 progress row for a topic. Returns true
// only when the row was freshly created.
func (r *topicProgressRepo) Ensure(ctx context.Context, tx *gorm.DB, topicID uint) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := types.TopicProgress{TopicID: topicID, Status: types.StatusUnseen}
	res := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Attrs(&row).
		FirstOrCreate(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *topicProgressRepo) GetByTopicID(ctx context.Context, tx *gorm.DB, topicID uint) (*types.TopicProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.TopicProgress
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *topicProgressRepo) GetByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uint) ([]*types.TopicProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TopicProgress
	if len(topicIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("topic_id IN ?", topicIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *topicProgressRepo) Save(ctx context.Context, tx *gorm.DB, row *types.TopicProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).Save(row).Error
}

func (r *topicProgressRepo) StatusCounts(ctx context.Context, tx *gorm.DB, subjectID int) (map[string]int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	type bucket struct {
		Status string
		N      int
	}
	var rows []bucket
	if err := transaction.WithContext(ctx).
		Model(&types.TopicProgress{}).
		Select("topic_progress.status AS status, COUNT(*) AS n").
		Joins("JOIN topic ON topic.id = topic_progress.topic_id").
		Where("topic.subject_id = ?", subjectID).
		Group("topic_progress.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, b := range rows {
		out[b.Status] = b.N
	}
	return out, nil
}

func (r *topicProgressRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.TopicProgress{}).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *topicProgressRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("1 = 1").
		Delete(&types.TopicProgress{}).Error
}
