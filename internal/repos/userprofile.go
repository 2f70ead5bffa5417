package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type UserProfileRepo interface {
	// Ensure returns the singleton profile row, creating it with defaults
	// on first call.
	Ensure(ctx context.Context, tx *gorm.DB) (*types.UserProfile, error)
	Get(ctx context.Context, tx *gorm.DB) (*types.UserProfile, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.UserProfile) error
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (r *userProfileRepo) Ensure(ctx context.Context, tx *gorm.DB) (*types.UserProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := types.UserProfile{
		ID:                      types.ProfileID,
		DailyGoalMinutes:        120,
		ExternalTrackingEnabled: true,
		PreferredEngine:         types.EngineAudio,
	}
	if err := transaction.WithContext(ctx).
		Where("id = ?", types.ProfileID).
		Attrs(&row).
		FirstOrCreate(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userProfileRepo) Get(ctx context.Context, tx *gorm.DB) (*types.UserProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.UserProfile
	if err := transaction.WithContext(ctx).
		Where("id = ?", types.ProfileID).
		First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *userProfileRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).Save(row).Error
}
