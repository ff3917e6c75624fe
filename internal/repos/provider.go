package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/types"
)

type ProviderRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, provider *types.Provider) (created bool, err error)
	GetByID(ctx context.Context, tx *gorm.DB, providerID string) (*types.Provider, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type providerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProviderRepo(db *gorm.DB, baseLog *logger.Logger) ProviderRepo {
	repoLog := baseLog.With("repo", "ProviderRepo")
	return &providerRepo{db: db, log: repoLog}
}

// Upsert looks the provider up by its natural key and overwrites every field
// when found, otherwise inserts. Writes go through the caller's transaction
// so nothing is durable before the enclosing batch commits.
func (pr *providerRepo) Upsert(ctx context.Context, tx *gorm.DB, provider *types.Provider) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var existing types.Provider
	err := transaction.WithContext(ctx).
		Where("provider_id = ?", provider.ProviderID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := transaction.WithContext(ctx).Create(provider).Error; err != nil {
			return false, err
		}
		pr.log.Debug("Created provider", "provider_id", provider.ProviderID)
		return true, nil
	}
	if err != nil {
		return false, err
	}

	existing.ProviderName = provider.ProviderName
	existing.ProviderCity = provider.ProviderCity
	existing.ProviderState = provider.ProviderState
	existing.ProviderZipCode = provider.ProviderZipCode
	if err := transaction.WithContext(ctx).Save(&existing).Error; err != nil {
		return false, err
	}
	pr.log.Debug("Updated provider", "provider_id", provider.ProviderID)
	return false, nil
}

func (pr *providerRepo) GetByID(ctx context.Context, tx *gorm.DB, providerID string) (*types.Provider, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Provider
	if err := transaction.WithContext(ctx).
		Where("provider_id = ?", providerID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *providerRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Provider{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
