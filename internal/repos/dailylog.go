package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type DailyLogRepo interface {
	Ensure(ctx context.Context, tx *gorm.DB, day string) (*types.DailyLog, error)
	Get(ctx context.Context, tx *gorm.DB, day string) (*types.DailyLog, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.DailyLog) error
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.DailyLog, error)
}

type dailyLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyLogRepo(db *gorm.DB, baseLog *logger.Logger) DailyLogRepo {
	return &dailyLogRepo{db: db, log: baseLog.With("repo", "DailyLogRepo")}
}

func (r *dailyLogRepo) Ensure(ctx context.Context, tx *gorm.DB, day string) (*types.DailyLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := types.DailyLog{Day: day}
	if err := transaction.WithContext(ctx).
		Where("day = ?", day).
		Attrs(&row).
		FirstOrCreate(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *dailyLogRepo) Get(ctx context.Context, tx *gorm.DB, day string) (*types.DailyLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.DailyLog
	if err := transaction.WithContext(ctx).
		Where("day = ?", day).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *dailyLogRepo) Save(ctx context.Context, tx *gorm.DB, row *types.DailyLog) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).Save(row).Error
}

func (r *dailyLogRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.DailyLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 30
	}

	var results []*types.DailyLog
	if err := transaction.WithContext(ctx).
		Order("day DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
