package types

// Provider is a healthcare facility keyed by its external CCN identifier.
// Re-ingestion overwrites every field in place; providers are never deleted
// by the pipeline.
type Provider struct {
	ProviderID      string `gorm:"primaryKey;column:provider_id" json:"provider_id"`
	ProviderName    string `gorm:"not null;column:provider_name" json:"provider_name"`
	ProviderCity    string `gorm:"not null;column:provider_city" json:"provider_city"`
	ProviderState   string `gorm:"not null;column:provider_state" json:"provider_state"`
	ProviderZipCode string `gorm:"not null;column:provider_zip_code" json:"provider_zip_code"`
}

func (Provider) TableName() string { return "providers" }
