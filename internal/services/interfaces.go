package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// PortfolioServicer defines the contract for portfolio-related business logic.
type PortfolioServicer interface {
	CreatePortfolio(userID, name string) (*models.Portfolio, error)
	GetUserPortfolios(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error)
	GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error)
	UpdatePortfolio(userID, portfolioID, name string) (*models.Portfolio, error)
	DeletePortfolio(userID, portfolioID string) error
}

// AssetInput carries the user-editable fields of an asset.
type AssetInput struct {
	PortfolioID       *string
	Kind              models.AssetKind
	Name              string
	Symbol            string
	Value             decimal.Decimal
	IsRealTimeTracked bool
	PurchaseDate      *time.Time
}

// AssetUpdateFields holds optional fields for a partial asset update.
// Nil fields are left unchanged.
type AssetUpdateFields struct {
	PortfolioID       *string
	ClearPortfolio    bool
	Name              *string
	Symbol            *string
	Value             *decimal.Decimal
	IsRealTimeTracked *bool
	PurchaseDate      *time.Time
}

// AssetFilter narrows an asset listing.
type AssetFilter struct {
	PortfolioID *string
	Kind        *models.AssetKind
}

// AssetServicer defines the contract for asset-related business logic.
type AssetServicer interface {
	CreateAsset(ctx context.Context, userID string, in AssetInput) (*models.Asset, error)
	GetUserAssets(userID string, filter AssetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error)
	GetAssetByID(userID, assetID string) (*models.Asset, error)
	UpdateAsset(ctx context.Context, userID, assetID string, fields AssetUpdateFields) (*models.Asset, error)
	DeleteAsset(userID, assetID string) error
}

// DebtServicer defines the contract for debt-related business logic.
type DebtServicer interface {
	CreateDebt(userID, name string, amount decimal.Decimal) (*models.Debt, error)
	GetUserDebts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Debt], error)
	GetDebtByID(userID, debtID string) (*models.Debt, error)
	UpdateDebt(userID, debtID string, name *string, amount *decimal.Decimal) (*models.Debt, error)
	DeleteDebt(userID, debtID string) error
}

// NetWorthSummary aggregates a user's assets and debts.
type NetWorthSummary struct {
	TotalAssets   decimal.Decimal                      `json:"total_assets"`
	TotalDebts    decimal.Decimal                      `json:"total_debts"`
	NetWorth      decimal.Decimal                      `json:"net_worth"`
	AssetsByKind  map[models.AssetKind]decimal.Decimal `json:"assets_by_kind"`
	AssetCount    int64                                `json:"asset_count"`
	DebtCount     int64                                `json:"debt_count"`
	TrackedAssets int64                                `json:"tracked_assets"`
	Currency      string                               `json:"currency"`
	Display       NetWorthDisplay                      `json:"display"`
}

// NetWorthDisplay holds the summary totals formatted for display, e.g. "$1,190.75".
type NetWorthDisplay struct {
	TotalAssets string `json:"total_assets"`
	TotalDebts  string `json:"total_debts"`
	NetWorth    string `json:"net_worth"`
}

// SummaryServicer defines the contract for net worth reporting.
type SummaryServicer interface {
	GetNetWorth(userID string) (*NetWorthSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
