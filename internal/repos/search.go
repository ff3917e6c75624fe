package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/logger"
)

// SearchRow is one (provider, procedure) pair from the search join, with the
// provider's rating attached when one exists.
type SearchRow struct {
	ProviderID              string   `json:"provider_id"`
	ProviderName            string   `json:"provider_name"`
	ProviderCity            string   `json:"provider_city"`
	ProviderState           string   `json:"provider_state"`
	ProviderZipCode         string   `json:"provider_zip_code"`
	MsDrgCode               string   `json:"ms_drg_code"`
	MsDrgDescription        string   `json:"ms_drg_description"`
	TotalDischarges         *int64   `json:"total_discharges"`
	AverageCoveredCharges   *float64 `json:"average_covered_charges"`
	AverageTotalPayments    *float64 `json:"average_total_payments"`
	AverageMedicarePayments *float64 `json:"average_medicare_payments"`
	Rating                  *int     `json:"rating"`
}

type SearchRepo interface {
	SearchByCode(ctx context.Context, tx *gorm.DB, code string) ([]SearchRow, error)
	SearchByDescription(ctx context.Context, tx *gorm.DB, fragment string) ([]SearchRow, error)
	SearchAll(ctx context.Context, tx *gorm.DB) ([]SearchRow, error)
}

type searchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchRepo(db *gorm.DB, baseLog *logger.Logger) SearchRepo {
	repoLog := baseLog.With("repo", "SearchRepo")
	return &searchRepo{db: db, log: repoLog}
}

const searchColumns = `
	p.provider_id,
	p.provider_name,
	p.provider_city,
	p.provider_state,
	p.provider_zip_code,
	pr.ms_drg_code,
	pr.ms_drg_description,
	pp.total_discharges,
	pp.average_covered_charges,
	pp.average_total_payments,
	pp.average_medicare_payments,
	r.rating`

func (sr *searchRepo) base(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Table("providers AS p").
		Select(searchColumns).
		Joins("JOIN provider_procedures pp ON pp.provider_id = p.provider_id").
		Joins("JOIN procedures pr ON pr.id = pp.procedure_id").
		Joins("LEFT JOIN ratings r ON r.provider_id = p.provider_id")
}

func (sr *searchRepo) SearchByCode(ctx context.Context, tx *gorm.DB, code string) ([]SearchRow, error) {
	var rows []SearchRow
	if err := sr.base(ctx, tx).
		Where("pr.ms_drg_code = ?", code).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SearchByDescription matches a case-insensitive substring of the procedure
// description. LOWER(...) LIKE rather than ILIKE so sqlite-backed tests run
// the same query Postgres does.
func (sr *searchRepo) SearchByDescription(ctx context.Context, tx *gorm.DB, fragment string) ([]SearchRow, error) {
	var rows []SearchRow
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if err := sr.base(ctx, tx).
		Where("LOWER(pr.ms_drg_description) LIKE ?", "%"+fragment+"%").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (sr *searchRepo) SearchAll(ctx context.Context, tx *gorm.DB) ([]SearchRow, error) {
	var rows []SearchRow
	if err := sr.base(ctx, tx).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
