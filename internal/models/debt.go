package models

import "github.com/shopspring/decimal"

// Debt represents an amount owed by a user (credit card, student loan, ...).
type Debt struct {
	Base
	UserID string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string          `gorm:"not null" json:"name"`
	Amount decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"amount"`
}
