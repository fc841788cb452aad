package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
	"wealthsync/internal/services"
)

type mockAssetService struct {
	createAssetFn   func(ctx context.Context, userID string, in services.AssetInput) (*models.Asset, error)
	getUserAssetsFn func(userID string, filter services.AssetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error)
	getAssetByIDFn  func(userID, assetID string) (*models.Asset, error)
	updateAssetFn   func(ctx context.Context, userID, assetID string, fields services.AssetUpdateFields) (*models.Asset, error)
	deleteAssetFn   func(userID, assetID string) error
}

func (m *mockAssetService) CreateAsset(ctx context.Context, userID string, in services.AssetInput) (*models.Asset, error) {
	if m.createAssetFn != nil {
		return m.createAssetFn(ctx, userID, in)
	}
	return &models.Asset{Base: models.Base{ID: testAssetID}, UserID: userID, Kind: in.Kind, Name: in.Name, Value: in.Value}, nil
}

func (m *mockAssetService) GetUserAssets(userID string, filter services.AssetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
	if m.getUserAssetsFn != nil {
		return m.getUserAssetsFn(userID, filter, page)
	}
	resp := pagination.NewPageResponse[models.Asset](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockAssetService) GetAssetByID(userID, assetID string) (*models.Asset, error) {
	if m.getAssetByIDFn != nil {
		return m.getAssetByIDFn(userID, assetID)
	}
	return &models.Asset{Base: models.Base{ID: assetID}, UserID: userID}, nil
}

func (m *mockAssetService) UpdateAsset(ctx context.Context, userID, assetID string, fields services.AssetUpdateFields) (*models.Asset, error) {
	if m.updateAssetFn != nil {
		return m.updateAssetFn(ctx, userID, assetID, fields)
	}
	return &models.Asset{Base: models.Base{ID: assetID}, UserID: userID}, nil
}

func (m *mockAssetService) DeleteAsset(userID, assetID string) error {
	if m.deleteAssetFn != nil {
		return m.deleteAssetFn(userID, assetID)
	}
	return nil
}

func setupAssetRouter(handler *AssetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/assets", handler.CreateAsset)
	auth.GET("/assets", handler.GetUserAssets)
	auth.GET("/assets/:id", handler.GetAssetByID)
	auth.PUT("/assets/:id", handler.UpdateAsset)
	auth.DELETE("/assets/:id", handler.DeleteAsset)
	return r
}

func TestAssetHandler_CreateAsset(t *testing.T) {
	t.Run("returns 201 for a manual asset", func(t *testing.T) {
		var got services.AssetInput
		svc := &mockAssetService{
			createAssetFn: func(_ context.Context, userID string, in services.AssetInput) (*models.Asset, error) {
				got = in
				return &models.Asset{Base: models.Base{ID: testAssetID}, UserID: userID, Kind: in.Kind, Name: in.Name, Value: in.Value}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAssetRouter(NewAssetHandler(svc, audit))

		rec := doRequest(r, "POST", "/assets",
			`{"kind":"manual","name":"House","value":"250000.50","purchase_date":"2020-06-01"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Value.Equal(decimal.RequireFromString("250000.50")) {
			t.Errorf("expected value 250000.50, got %s", got.Value)
		}
		if got.PurchaseDate == nil || got.PurchaseDate.Format("2006-01-02") != "2020-06-01" {
			t.Errorf("expected purchase date 2020-06-01, got %v", got.PurchaseDate)
		}
		asset := parseJSON(t, rec)["asset"].(map[string]any)
		if asset["value"] != "250000.5" {
			t.Errorf("expected value serialized as decimal string, got %v", asset["value"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_ASSET" {
			t.Errorf("expected CREATE_ASSET audit entry, got %+v", audit.entries)
		}
	})

	t.Run("passes tracking fields through", func(t *testing.T) {
		var got services.AssetInput
		svc := &mockAssetService{
			createAssetFn: func(_ context.Context, _ string, in services.AssetInput) (*models.Asset, error) {
				got = in
				return &models.Asset{Base: models.Base{ID: testAssetID}}, nil
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/assets",
			`{"kind":"crypto","name":"Bitcoin","symbol":"BTC","is_real_time_tracked":true,"portfolio_id":"`+testPortfolioID+`"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.IsRealTimeTracked || got.Symbol != "BTC" || got.Kind != models.AssetKindCrypto {
			t.Errorf("unexpected input %+v", got)
		}
		if got.PortfolioID == nil || *got.PortfolioID != testPortfolioID {
			t.Errorf("expected portfolio %s, got %v", testPortfolioID, got.PortfolioID)
		}
	})

	t.Run("returns 400 when price is unavailable", func(t *testing.T) {
		svc := &mockAssetService{
			createAssetFn: func(context.Context, string, services.AssetInput) (*models.Asset, error) {
				return nil, apperrors.ErrPriceUnavailable
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/assets", `{"kind":"stock","name":"Apple","symbol":"AAPL","is_real_time_tracked":true}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PRICE_UNAVAILABLE")
	})

	t.Run("returns 400 on unknown kind", func(t *testing.T) {
		r := setupAssetRouter(NewAssetHandler(&mockAssetService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/assets", `{"kind":"bond","name":"Treasury"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on malformed symbol", func(t *testing.T) {
		r := setupAssetRouter(NewAssetHandler(&mockAssetService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/assets", `{"kind":"stock","name":"x","symbol":"A B"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid purchase date", func(t *testing.T) {
		r := setupAssetRouter(NewAssetHandler(&mockAssetService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/assets", `{"kind":"manual","name":"Car","value":"1","purchase_date":"yesterday"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on negative value", func(t *testing.T) {
		svc := &mockAssetService{
			createAssetFn: func(context.Context, string, services.AssetInput) (*models.Asset, error) {
				return nil, apperrors.ErrNegativeValue
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/assets", `{"kind":"manual","name":"Car","value":"-1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NEGATIVE_VALUE")
	})
}

func TestAssetHandler_GetUserAssets(t *testing.T) {
	t.Run("applies filters", func(t *testing.T) {
		var got services.AssetFilter
		svc := &mockAssetService{
			getUserAssetsFn: func(_ string, filter services.AssetFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
				got = filter
				resp := pagination.NewPageResponse[models.Asset](nil, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/assets?portfolio_id="+testPortfolioID+"&kind=stock", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.PortfolioID == nil || *got.PortfolioID != testPortfolioID {
			t.Errorf("expected portfolio filter, got %v", got.PortfolioID)
		}
		if got.Kind == nil || *got.Kind != models.AssetKindStock {
			t.Errorf("expected kind filter, got %v", got.Kind)
		}
	})

	t.Run("no filters", func(t *testing.T) {
		var got services.AssetFilter
		svc := &mockAssetService{
			getUserAssetsFn: func(_ string, filter services.AssetFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
				got = filter
				resp := pagination.NewPageResponse[models.Asset](nil, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/assets", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.PortfolioID != nil || got.Kind != nil {
			t.Errorf("expected empty filter, got %+v", got)
		}
	})

	t.Run("returns 400 on invalid portfolio filter", func(t *testing.T) {
		r := setupAssetRouter(NewAssetHandler(&mockAssetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/assets?portfolio_id=nope", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAssetHandler_GetAssetByID(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockAssetService{
			getAssetByIDFn: func(_, _ string) (*models.Asset, error) { return nil, apperrors.ErrAssetNotFound },
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/assets/"+testAssetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ASSET_NOT_FOUND")
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		r := setupAssetRouter(NewAssetHandler(&mockAssetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/assets/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAssetHandler_UpdateAsset(t *testing.T) {
	t.Run("empty portfolio_id clears the portfolio", func(t *testing.T) {
		var got services.AssetUpdateFields
		svc := &mockAssetService{
			updateAssetFn: func(_ context.Context, _, id string, fields services.AssetUpdateFields) (*models.Asset, error) {
				got = fields
				return &models.Asset{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/assets/"+testAssetID, `{"portfolio_id":"","name":"Renamed"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.ClearPortfolio || got.PortfolioID != nil {
			t.Errorf("expected ClearPortfolio, got %+v", got)
		}
		if got.Name == nil || *got.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %v", got.Name)
		}
	})

	t.Run("start tracking", func(t *testing.T) {
		var got services.AssetUpdateFields
		svc := &mockAssetService{
			updateAssetFn: func(_ context.Context, _, id string, fields services.AssetUpdateFields) (*models.Asset, error) {
				got = fields
				return &models.Asset{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/assets/"+testAssetID, `{"is_real_time_tracked":true,"symbol":"ETH"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.IsRealTimeTracked == nil || !*got.IsRealTimeTracked {
			t.Error("expected IsRealTimeTracked=true")
		}
		if got.Symbol == nil || *got.Symbol != "ETH" {
			t.Errorf("expected symbol ETH, got %v", got.Symbol)
		}
		if got.Value != nil {
			t.Errorf("expected no value, got %v", got.Value)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockAssetService{
			updateAssetFn: func(context.Context, string, string, services.AssetUpdateFields) (*models.Asset, error) {
				return nil, apperrors.ErrAssetNotFound
			},
		}
		r := setupAssetRouter(NewAssetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/assets/"+testAssetID, `{"name":"x"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestAssetHandler_DeleteAsset(t *testing.T) {
	audit := &mockAuditService{}
	r := setupAssetRouter(NewAssetHandler(&mockAssetService{}, audit))

	rec := doRequest(r, "DELETE", "/assets/"+testAssetID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != "DELETE_ASSET" {
		t.Errorf("expected DELETE_ASSET audit entry, got %+v", audit.entries)
	}
}
