package types

// Procedure is an MS-DRG billing classification. The code is immutable once
// created; only the description gets refreshed on re-ingestion. The surrogate
// ID exists for joins from ProviderProcedure.
type Procedure struct {
	ID               uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	MsDrgCode        string `gorm:"uniqueIndex;not null;column:ms_drg_code" json:"ms_drg_code"`
	MsDrgDescription string `gorm:"type:text;not null;column:ms_drg_description" json:"ms_drg_description"`
}

func (Procedure) TableName() string { return "procedures" }
