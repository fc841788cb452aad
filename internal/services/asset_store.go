package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wealthsync/internal/models"
)

// AssetStore is the price refresher's view of the assets table.
type AssetStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAssetStore creates an AssetStore.
func NewAssetStore(db *gorm.DB) *AssetStore {
	return &AssetStore{db: db, now: time.Now}
}

// ListRealTimeTracked returns all tracked assets in creation order.
func (s *AssetStore) ListRealTimeTracked(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.db.WithContext(ctx).
		Where("is_real_time_tracked = ?", true).
		Order("created_at ASC, id ASC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// SaveRefreshedPrice writes Value and LastUpdated in a single statement. It
// returns false when the asset was deleted or stopped being tracked after
// it was listed.
func (s *AssetStore) SaveRefreshedPrice(ctx context.Context, asset *models.Asset) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ? AND is_real_time_tracked = ?", asset.ID, true).
		Updates(map[string]any{
			"value":        asset.Value,
			"last_updated": asset.LastUpdated,
			"updated_at":   s.now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
