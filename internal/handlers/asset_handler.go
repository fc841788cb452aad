package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
	"wealthsync/internal/services"
)

// AssetHandler handles asset-related requests.
type AssetHandler struct {
	assetService services.AssetServicer
	auditService services.AuditServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, auditService services.AuditServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService, auditService: auditService}
}

// CreateAssetRequest represents the request payload for creating an asset.
// Value is ignored for real-time tracked assets; their value is priced from Symbol.
type CreateAssetRequest struct {
	PortfolioID       *string         `json:"portfolio_id" binding:"omitempty,uuid"`
	Kind              string          `json:"kind" binding:"required,asset_kind"`
	Name              string          `json:"name" binding:"required,min=1,max=100"`
	Symbol            string          `json:"symbol" binding:"omitempty,ticker"`
	Value             decimal.Decimal `json:"value"`
	IsRealTimeTracked bool            `json:"is_real_time_tracked"`
	PurchaseDate      *string         `json:"purchase_date"`
}

// UpdateAssetRequest represents the request payload for updating an asset.
// An empty portfolio_id removes the asset from its portfolio.
type UpdateAssetRequest struct {
	PortfolioID       *string          `json:"portfolio_id" binding:"omitempty,uuid"`
	Name              *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Symbol            *string          `json:"symbol" binding:"omitempty,ticker"`
	Value             *decimal.Decimal `json:"value"`
	IsRealTimeTracked *bool            `json:"is_real_time_tracked"`
	PurchaseDate      *string          `json:"purchase_date"`
}

// AssetListQuery holds the optional filters of the asset listing.
type AssetListQuery struct {
	PortfolioID string `form:"portfolio_id" binding:"omitempty,uuid"`
	Kind        string `form:"kind" binding:"omitempty,asset_kind"`
}

// CreateAsset handles the creation of a new asset
// @Summary     Create asset
// @Description Create a manual or real-time tracked asset. Tracked assets are priced immediately.
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAssetRequest true "Asset details"
// @Success     201 {object} models.Asset "Asset created"
// @Failure     400 {object} ErrorResponse "Invalid input or price unavailable"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.AssetInput{
		PortfolioID:       req.PortfolioID,
		Kind:              models.AssetKind(req.Kind),
		Name:              req.Name,
		Symbol:            req.Symbol,
		Value:             req.Value,
		IsRealTimeTracked: req.IsRealTimeTracked,
	}
	if req.PurchaseDate != nil && *req.PurchaseDate != "" {
		if in.PurchaseDate, err = parseDate("purchase_date", *req.PurchaseDate); err != nil {
			respondWithError(c, err)
			return
		}
	}

	asset, err := h.assetService.CreateAsset(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ASSET", "asset", asset.ID, c.ClientIP(),
		map[string]any{"name": asset.Name, "kind": asset.Kind, "symbol": asset.Symbol, "value": asset.Value.String()})

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GetUserAssets lists the authenticated user's assets
// @Summary     List assets
// @Description Get a paginated list of assets, optionally filtered by portfolio or kind
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       portfolio_id query string false "Only assets in this portfolio"
// @Param       kind         query string false "Only assets of this kind (crypto, stock, manual)"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Asset] "Paginated assets"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [get]
func (h *AssetHandler) GetUserAssets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	var query AssetListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var filter services.AssetFilter
	if query.PortfolioID != "" {
		filter.PortfolioID = &query.PortfolioID
	}
	if query.Kind != "" {
		kind := models.AssetKind(query.Kind)
		filter.Kind = &kind
	}

	result, err := h.assetService.GetUserAssets(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAssetByID returns a single asset
// @Summary     Get asset by ID
// @Description Get a specific asset for the authenticated user
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Asset ID"
// @Success     200 {object} models.Asset "Asset details"
// @Failure     400 {object} ErrorResponse "Invalid asset ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAssetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.GetAssetByID(userID, assetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// UpdateAsset applies a partial update to an asset
// @Summary     Update asset
// @Description Update an asset. Starting to track an asset, or changing a tracked asset's symbol, re-prices it.
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Asset ID"
// @Param       request body UpdateAssetRequest true "Fields to update"
// @Success     200 {object} models.Asset "Asset updated"
// @Failure     400 {object} ErrorResponse "Invalid input or price unavailable"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	fields := services.AssetUpdateFields{
		Name:              req.Name,
		Symbol:            req.Symbol,
		Value:             req.Value,
		IsRealTimeTracked: req.IsRealTimeTracked,
	}
	if req.PortfolioID != nil {
		if *req.PortfolioID == "" {
			fields.ClearPortfolio = true
		} else {
			fields.PortfolioID = req.PortfolioID
		}
	}
	if req.PurchaseDate != nil && *req.PurchaseDate != "" {
		if fields.PurchaseDate, err = parseDate("purchase_date", *req.PurchaseDate); err != nil {
			respondWithError(c, err)
			return
		}
	}

	asset, err := h.assetService.UpdateAsset(c.Request.Context(), userID, assetID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ASSET", "asset", assetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// DeleteAsset deletes an asset
// @Summary     Delete asset
// @Description Delete an asset owned by the authenticated user
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Asset ID"
// @Success     200 {object} map[string]string "Asset deleted"
// @Failure     400 {object} ErrorResponse "Invalid asset ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.assetService.DeleteAsset(userID, assetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ASSET", "asset", assetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted successfully"})
}
