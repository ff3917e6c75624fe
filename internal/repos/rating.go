package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/types"
)

type RatingRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, providerID string, value int) error
	GetByProviderID(ctx context.Context, tx *gorm.DB, providerID string) (*types.Rating, error)
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	repoLog := baseLog.With("repo", "RatingRepo")
	return &ratingRepo{db: db, log: repoLog}
}

// Upsert overwrites the provider's rating, keeping at most one row per
// provider.
func (rr *ratingRepo) Upsert(ctx context.Context, tx *gorm.DB, providerID string, value int) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var existing types.Rating
	err := transaction.WithContext(ctx).
		Where("provider_id = ?", providerID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rating := types.Rating{ProviderID: providerID, Rating: value}
		if err := transaction.WithContext(ctx).Create(&rating).Error; err != nil {
			return err
		}
		rr.log.Debug("Created rating", "provider_id", providerID, "rating", value)
		return nil
	}
	if err != nil {
		return err
	}

	existing.Rating = value
	if err := transaction.WithContext(ctx).Save(&existing).Error; err != nil {
		return err
	}
	rr.log.Debug("Updated rating", "provider_id", providerID, "rating", value)
	return nil
}

func (rr *ratingRepo) GetByProviderID(ctx context.Context, tx *gorm.DB, providerID string) (*types.Rating, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.Rating
	if err := transaction.WithContext(ctx).
		Where("provider_id = ?", providerID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
