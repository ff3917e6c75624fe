package types

// ProviderProcedure links a provider to a procedure it performs, carrying the
// discharge count and payment averages from the source file. The financial
// columns are nullable: a re-ingested row with a missing value must not wipe
// a previously known one, so merges happen field by field on non-nil values.
type ProviderProcedure struct {
	ID                      uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderID              string   `gorm:"not null;uniqueIndex:idx_provider_procedure;column:provider_id" json:"provider_id"`
	ProcedureID             uint     `gorm:"not null;uniqueIndex:idx_provider_procedure;column:procedure_id" json:"procedure_id"`
	TotalDischarges         *int64   `gorm:"column:total_discharges" json:"total_discharges"`
	AverageCoveredCharges   *float64 `gorm:"column:average_covered_charges" json:"average_covered_charges"`
	AverageTotalPayments    *float64 `gorm:"column:average_total_payments" json:"average_total_payments"`
	AverageMedicarePayments *float64 `gorm:"column:average_medicare_payments" json:"average_medicare_payments"`
}

func (ProviderProcedure) TableName() string { return "provider_procedures" }
