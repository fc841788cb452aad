package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetKind represents the kind of asset. It decides whether the value
// can mirror an external market price.
type AssetKind string

const (
	AssetKindCrypto AssetKind = "crypto"
	AssetKindStock  AssetKind = "stock"
	AssetKindManual AssetKind = "manual"
)

// SupportsRealTime reports whether assets of this kind can be price-tracked.
func (k AssetKind) SupportsRealTime() bool {
	return k == AssetKindCrypto || k == AssetKindStock
}

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	switch k {
	case AssetKindCrypto, AssetKindStock, AssetKindManual:
		return true
	}
	return false
}

// Asset is something a user owns. Real-time tracked assets (crypto, stock)
// have their Value overwritten by the price refresher; manual assets keep
// whatever the user entered.
type Asset struct {
	Base
	UserID            string          `gorm:"type:uuid;not null;index" json:"user_id"`
	PortfolioID       *string         `gorm:"type:uuid;index" json:"portfolio_id,omitempty"`
	Kind              AssetKind       `gorm:"not null" json:"kind"`
	Name              string          `gorm:"not null" json:"name"`
	Symbol            string          `json:"symbol,omitempty"`
	Value             decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"value"`
	IsRealTimeTracked bool            `gorm:"not null;default:false" json:"is_real_time_tracked"`
	PurchaseDate      *time.Time      `gorm:"type:date" json:"purchase_date,omitempty"`
	LastUpdated       *time.Time      `gorm:"type:date" json:"last_updated,omitempty"`
}

// DateOf truncates t to its calendar date in UTC. Dates are stored without
// a time component, so every writer of LastUpdated goes through here.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
