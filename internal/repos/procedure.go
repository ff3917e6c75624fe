package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/types"
)

type ProcedureRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, code, description string) (*types.Procedure, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type procedureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcedureRepo(db *gorm.DB, baseLog *logger.Logger) ProcedureRepo {
	repoLog := baseLog.With("repo", "ProcedureRepo")
	return &procedureRepo{db: db, log: repoLog}
}

// GetOrCreate resolves a procedure by its MS-DRG code. The code never changes
// once created; an existing row only gets its description refreshed.
func (pr *procedureRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, code, description string) (*types.Procedure, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var existing types.Procedure
	err := transaction.WithContext(ctx).
		Where("ms_drg_code = ?", code).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := types.Procedure{MsDrgCode: code, MsDrgDescription: description}
		if err := transaction.WithContext(ctx).Create(&created).Error; err != nil {
			return nil, err
		}
		pr.log.Debug("Created procedure", "ms_drg_code", code)
		return &created, nil
	}
	if err != nil {
		return nil, err
	}

	if existing.MsDrgDescription != description {
		existing.MsDrgDescription = description
		if err := transaction.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		pr.log.Debug("Updated procedure description", "ms_drg_code", code)
	}
	return &existing, nil
}

func (pr *procedureRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Procedure{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
