package services

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/models"
)

// summaryService computes net worth from stored asset values and debts.
type summaryService struct {
	db       *gorm.DB
	currency string
}

// NewSummaryService creates a new SummaryServicer. currency is the ISO code
// prices are quoted in; it only affects the display strings.
func NewSummaryService(db *gorm.DB, currency string) SummaryServicer {
	return &summaryService{db: db, currency: strings.ToUpper(currency)}
}

// GetNetWorth sums asset values and debt amounts for a user. Sums are done
// in Go with decimal arithmetic so no precision is lost to float aggregates.
func (s *summaryService) GetNetWorth(userID string) (*NetWorthSummary, error) {
	var assets []models.Asset
	if err := s.db.Select("kind", "value", "is_real_time_tracked").
		Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var debts []models.Debt
	if err := s.db.Select("amount").Where("user_id = ?", userID).Find(&debts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &NetWorthSummary{
		TotalAssets:  decimal.Zero,
		TotalDebts:   decimal.Zero,
		AssetsByKind: make(map[models.AssetKind]decimal.Decimal),
		AssetCount:   int64(len(assets)),
		DebtCount:    int64(len(debts)),
	}
	for _, a := range assets {
		summary.TotalAssets = summary.TotalAssets.Add(a.Value)
		summary.AssetsByKind[a.Kind] = summary.AssetsByKind[a.Kind].Add(a.Value)
		if a.IsRealTimeTracked {
			summary.TrackedAssets++
		}
	}
	for _, d := range debts {
		summary.TotalDebts = summary.TotalDebts.Add(d.Amount)
	}
	summary.NetWorth = summary.TotalAssets.Sub(summary.TotalDebts)

	summary.Currency = s.currency
	summary.Display = NetWorthDisplay{
		TotalAssets: formatMoney(summary.TotalAssets, s.currency),
		TotalDebts:  formatMoney(summary.TotalDebts, s.currency),
		NetWorth:    formatMoney(summary.NetWorth, s.currency),
	}

	return summary, nil
}

// formatMoney renders amount in the currency's minor units, rounded half away
// from zero. Unknown currency codes fall back to the plain decimal string.
func formatMoney(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.String()
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}
