package types

// Rating is a 1-10 quality score, at most one per provider.
type Rating struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderID string `gorm:"uniqueIndex;not null;column:provider_id" json:"provider_id"`
	Rating     int    `gorm:"not null;column:rating" json:"rating"`
}

func (Rating) TableName() string { return "ratings" }
