package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type SubjectRepo interface {
	Ensure(ctx context.Context, tx *gorm.DB, row *types.Subject) (bool, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*types.Subject, error)
	GetByNameOrCode(ctx context.Context, tx *gorm.DB, hint string) (*types.Subject, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Subject, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{db: db, log: baseLog.With("repo", "SubjectRepo")}
}

// Ensure inserts the subject if no row with its id exists. An existing row
// is left untouched, so re-seeding never overwrites edits.
func (r *subjectRepo) Ensure(ctx context.Context, tx *gorm.DB, row *types.Subject) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return false, nil
	}

	res := transaction.WithContext(ctx).
		Where("id = ?", row.ID).
		Attrs(row).
		FirstOrCreate(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *subjectRepo) GetByID(ctx context.Context, tx *gorm.DB, id int) (*types.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Subject
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByNameOrCode resolves a free-text subject hint case-insensitively.
func (r *subjectRepo) GetByNameOrCode(ctx context.Context, tx *gorm.DB, hint string) (*types.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	needle := strings.ToLower(strings.TrimSpace(hint))
	if needle == "" {
		return nil, nil
	}

	var row types.Subject
	if err := transaction.WithContext(ctx).
		Where("LOWER(name) = ? OR LOWER(code) = ?", needle, needle).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *subjectRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Subject, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Subject
	if err := transaction.WithContext(ctx).
		Order("display_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *subjectRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("1 = 1").
		Delete(&types.Subject{}).Error
}
