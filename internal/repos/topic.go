package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type TopicRepo interface {
	Ensure(ctx context.Context, tx *gorm.DB, row *types.Topic) (bool, error)
	GetBySubjectAndName(ctx context.Context, tx *gorm.DB, subjectID int, name string) (*types.Topic, error)
	GetBySubjectID(ctx context.Context, tx *gorm.DB, subjectID int) ([]*types.Topic, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Topic, error)
	SetParent(ctx context.Context, tx *gorm.DB, topicID, parentID uint) error
	ListIDsMissingProgress(ctx context.Context, tx *gorm.DB) ([]uint, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

// Ensure is the insert-or-ignore merge primitive, keyed by the
// (subject_id, name) unique index. The first catalog to claim a key wins;
// later catalogs find the existing row. Returns true only on fresh insert.
func (r *topicRepo) Ensure(ctx context.Context, tx *gorm.DB, row *types.Topic) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return false, nil
	}

	res := transaction.WithContext(ctx).
		Where("subject_id = ? AND name = ?", row.SubjectID, row.Name).
		Attrs(row).
		FirstOrCreate(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *topicRepo) GetBySubjectAndName(ctx context.Context, tx *gorm.DB, subjectID int, name string) (*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Topic
	if err := transaction.WithContext(ctx).
		Where("subject_id = ? AND name = ?", subjectID, name).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *topicRepo) GetBySubjectID(ctx context.Context, tx *gorm.DB, subjectID int) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Topic
	if err := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("priority DESC, name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *topicRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Topic
	if err := transaction.WithContext(ctx).
		Order("subject_id ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *topicRepo) SetParent(ctx context.Context, tx *gorm.DB, topicID, parentID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Topic{}).
		Where("id = ?", topicID).
		Update("parent_id", parentID).Error
}

// ListIDsMissingProgress finds topics whose 1:1 progress row is absent.
// Feeds the back-fill invariant pass.
func (r *topicRepo) ListIDsMissingProgress(ctx context.Context, tx *gorm.DB) ([]uint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uint
	sub := transaction.Session(&gorm.Session{NewDB: true}).
		Model(&types.TopicProgress{}).
		Select("topic_id")
	if err := transaction.WithContext(ctx).
		Model(&types.Topic{}).
		Where("id NOT IN (?)", sub).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *topicRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.Topic{}).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *topicRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("1 = 1").
		Delete(&types.Topic{}).Error
}
