package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/logger"
	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
)

// PriceQuoter returns the current market price of a symbol.
type PriceQuoter interface {
	Quote(ctx context.Context, kind models.AssetKind, symbol string) (decimal.Decimal, error)
}

// assetService handles asset-related business logic.
type assetService struct {
	db     *gorm.DB
	quoter PriceQuoter
	now    func() time.Time
}

// NewAssetService creates a new AssetServicer. Real-time tracked assets are
// priced through quoter when they are created or start being tracked.
func NewAssetService(db *gorm.DB, quoter PriceQuoter) AssetServicer {
	return &assetService{db: db, quoter: quoter, now: time.Now}
}

// CreateAsset validates and stores a new asset.
func (s *assetService) CreateAsset(ctx context.Context, userID string, in AssetInput) (*models.Asset, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name is required")
	}
	if !in.Kind.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "kind must be one of crypto, stock, manual")
	}

	asset := &models.Asset{
		UserID:            userID,
		Kind:              in.Kind,
		Name:              name,
		Symbol:            strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Value:             in.Value,
		IsRealTimeTracked: in.IsRealTimeTracked,
		PurchaseDate:      datePtr(in.PurchaseDate),
	}

	if in.PortfolioID != nil && *in.PortfolioID != "" {
		if err := s.checkPortfolio(userID, *in.PortfolioID); err != nil {
			return nil, err
		}
		asset.PortfolioID = in.PortfolioID
	}

	if err := validateAsset(asset); err != nil {
		return nil, err
	}
	if asset.IsRealTimeTracked {
		if err := s.applyQuote(ctx, asset); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return asset, nil
}

// GetUserAssets retrieves a paginated, optionally filtered list of assets for a user.
func (s *assetService) GetUserAssets(userID string, filter AssetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
	base := s.db.Model(&models.Asset{}).Where("user_id = ?", userID)
	if filter.PortfolioID != nil {
		base = base.Where("portfolio_id = ?", *filter.PortfolioID)
	}
	if filter.Kind != nil {
		base = base.Where("kind = ?", *filter.Kind)
	}

	result, err := pagination.Query[models.Asset](base, page, "created_at ASC, id ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetAssetByID retrieves an asset by ID for a specific user.
func (s *assetService) GetAssetByID(userID, assetID string) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.Where("id = ? AND user_id = ?", assetID, userID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// UpdateAsset applies a partial update. The value of a tracked asset belongs
// to the price feed: it is re-quoted when tracking starts or the symbol
// changes, and cannot be set directly.
func (s *assetService) UpdateAsset(ctx context.Context, userID, assetID string, fields AssetUpdateFields) (*models.Asset, error) {
	asset, err := s.GetAssetByID(userID, assetID)
	if err != nil {
		return nil, err
	}
	wasTracked, oldSymbol := asset.IsRealTimeTracked, asset.Symbol

	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name must not be empty")
		}
		asset.Name = name
	}
	if fields.Symbol != nil {
		asset.Symbol = strings.ToUpper(strings.TrimSpace(*fields.Symbol))
	}
	if fields.IsRealTimeTracked != nil {
		asset.IsRealTimeTracked = *fields.IsRealTimeTracked
	}
	if fields.PurchaseDate != nil {
		asset.PurchaseDate = datePtr(fields.PurchaseDate)
	}
	switch {
	case fields.ClearPortfolio:
		asset.PortfolioID = nil
	case fields.PortfolioID != nil && *fields.PortfolioID != "":
		if err := s.checkPortfolio(userID, *fields.PortfolioID); err != nil {
			return nil, err
		}
		asset.PortfolioID = fields.PortfolioID
	}
	if fields.Value != nil {
		if asset.IsRealTimeTracked {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "value of a real-time tracked asset is set by the price feed")
		}
		asset.Value = *fields.Value
	}

	if err := validateAsset(asset); err != nil {
		return nil, err
	}

	// value and last_updated are written only when this update set them, so
	// a concurrent refresh is never rolled back to the value read above.
	columns := []string{"portfolio_id", "name", "symbol", "is_real_time_tracked", "purchase_date"}
	if fields.Value != nil {
		columns = append(columns, "value")
	}
	if asset.IsRealTimeTracked && (!wasTracked || asset.Symbol != oldSymbol) {
		if err := s.applyQuote(ctx, asset); err != nil {
			return nil, err
		}
		columns = append(columns, "value", "last_updated")
	}

	if err := s.db.WithContext(ctx).Model(asset).Select(columns).Updates(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetAssetByID(userID, assetID)
}

// DeleteAsset soft-deletes an asset.
func (s *assetService) DeleteAsset(userID, assetID string) error {
	res := s.db.Where("id = ? AND user_id = ?", assetID, userID).Delete(&models.Asset{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

func (s *assetService) checkPortfolio(userID, portfolioID string) error {
	var count int64
	if err := s.db.Model(&models.Portfolio{}).Where("id = ? AND user_id = ?", portfolioID, userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrPortfolioNotFound
	}
	return nil
}

// applyQuote prices a tracked asset, setting Value and LastUpdated together.
func (s *assetService) applyQuote(ctx context.Context, asset *models.Asset) error {
	if s.quoter == nil {
		return apperrors.WithMessage(apperrors.ErrPriceUnavailable, "No price provider is configured")
	}
	price, err := s.quoter.Quote(ctx, asset.Kind, asset.Symbol)
	if err != nil {
		logger.Get().Warnw("create-time quote failed", "symbol", asset.Symbol, "kind", asset.Kind, "error", err)
		return apperrors.Wrap(apperrors.ErrPriceUnavailable, err)
	}
	if !price.IsPositive() {
		return apperrors.ErrPriceUnavailable
	}
	today := models.DateOf(s.now())
	asset.Value = price
	asset.LastUpdated = &today
	return nil
}

// validateAsset enforces the tracking rules: tracked assets need a symbol and
// a crypto or stock kind; every asset value must be non-negative.
func validateAsset(asset *models.Asset) error {
	if asset.IsRealTimeTracked {
		if !asset.Kind.SupportsRealTime() {
			return apperrors.ErrInvalidAssetKind
		}
		if asset.Symbol == "" {
			return apperrors.ErrMissingSymbol
		}
		return nil
	}
	if asset.Value.IsNegative() {
		return apperrors.ErrNegativeValue
	}
	return nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.DateOf(*t)
	return &d
}
