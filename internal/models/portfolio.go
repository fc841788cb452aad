package models

// Portfolio groups a user's assets (e.g. "Retirement Fund", "Short-Term Investments").
type Portfolio struct {
	Base
	UserID string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string  `gorm:"not null" json:"name"`
	Assets []Asset `gorm:"foreignKey:PortfolioID" json:"assets,omitempty"`
}
