package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/types"
)

type ProviderProcedureRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, incoming *types.ProviderProcedure) (created bool, err error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type providerProcedureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProviderProcedureRepo(db *gorm.DB, baseLog *logger.Logger) ProviderProcedureRepo {
	repoLog := baseLog.With("repo", "ProviderProcedureRepo")
	return &providerProcedureRepo{db: db, log: repoLog}
}

// Upsert is keyed by the (provider_id, procedure_id) pair. On update only
// non-nil incoming measures overwrite the stored ones, so a file that went
// silent on a column keeps the value learned from an earlier run.
func (ppr *providerProcedureRepo) Upsert(ctx context.Context, tx *gorm.DB, incoming *types.ProviderProcedure) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ppr.db
	}

	var existing types.ProviderProcedure
	err := transaction.WithContext(ctx).
		Where("provider_id = ? AND procedure_id = ?", incoming.ProviderID, incoming.ProcedureID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := transaction.WithContext(ctx).Create(incoming).Error; err != nil {
			return false, err
		}
		ppr.log.Debug("Created provider-procedure link", "provider_id", incoming.ProviderID, "procedure_id", incoming.ProcedureID)
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if incoming.TotalDischarges != nil {
		existing.TotalDischarges = incoming.TotalDischarges
	}
	if incoming.AverageCoveredCharges != nil {
		existing.AverageCoveredCharges = incoming.AverageCoveredCharges
	}
	if incoming.AverageTotalPayments != nil {
		existing.AverageTotalPayments = incoming.AverageTotalPayments
	}
	if incoming.AverageMedicarePayments != nil {
		existing.AverageMedicarePayments = incoming.AverageMedicarePayments
	}
	if err := transaction.WithContext(ctx).Save(&existing).Error; err != nil {
		return false, err
	}
	ppr.log.Debug("Updated provider-procedure link", "provider_id", incoming.ProviderID, "procedure_id", incoming.ProcedureID)
	return false, nil
}

func (ppr *providerProcedureRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ppr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProviderProcedure{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
