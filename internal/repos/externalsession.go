package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type ExternalSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ExternalAppSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExternalAppSession, error)
	// GetOpenLatest returns the most recently launched row with a null
	// return timestamp, or nil. The at-most-one-open invariant is advisory;
	// taking the latest keeps behavior correct even if it is ever violated.
	GetOpenLatest(ctx context.Context, tx *gorm.DB) (*types.ExternalAppSession, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	ListClosed(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ExternalAppSession, error)
	CountOpen(ctx context.Context, tx *gorm.DB) (int64, error)
}

type externalSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExternalSessionRepo(db *gorm.DB, baseLog *logger.Logger) ExternalSessionRepo {
	return &externalSessionRepo{db: db, log: baseLog.With("repo", "ExternalSessionRepo")}
}

func (r *externalSessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ExternalAppSession) error {
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

func (r *externalSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExternalAppSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.ExternalAppSession
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

func (r *externalSessionRepo) GetOpenLatest(ctx context.Context, tx *gorm.DB) (*types.ExternalAppSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.ExternalAppSession
	if err := transaction.WithContext(ctx).
		Where("returned_at IS NULL").
		Order("launched_at DESC").
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *externalSessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.ExternalAppSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *externalSessionRepo) ListClosed(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ExternalAppSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 50
	}

	var results []*types.ExternalAppSession
	if err := transaction.WithContext(ctx).
		Where("returned_at IS NOT NULL").
		Order("launched_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *externalSessionRepo) CountOpen(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.ExternalAppSession{}).
		Where("returned_at IS NULL").
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
