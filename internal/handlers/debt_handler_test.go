package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
)

type mockDebtService struct {
	createDebtFn   func(userID, name string, amount decimal.Decimal) (*models.Debt, error)
	getUserDebtsFn func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Debt], error)
	getDebtByIDFn  func(userID, debtID string) (*models.Debt, error)
	updateDebtFn   func(userID, debtID string, name *string, amount *decimal.Decimal) (*models.Debt, error)
	deleteDebtFn   func(userID, debtID string) error
}

func (m *mockDebtService) CreateDebt(userID, name string, amount decimal.Decimal) (*models.Debt, error) {
	if m.createDebtFn != nil {
		return m.createDebtFn(userID, name, amount)
	}
	return &models.Debt{Base: models.Base{ID: testDebtID}, UserID: userID, Name: name, Amount: amount}, nil
}

func (m *mockDebtService) GetUserDebts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Debt], error) {
	if m.getUserDebtsFn != nil {
		return m.getUserDebtsFn(userID, page)
	}
	resp := pagination.NewPageResponse[models.Debt](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockDebtService) GetDebtByID(userID, debtID string) (*models.Debt, error) {
	if m.getDebtByIDFn != nil {
		return m.getDebtByIDFn(userID, debtID)
	}
	return &models.Debt{Base: models.Base{ID: debtID}, UserID: userID}, nil
}

func (m *mockDebtService) UpdateDebt(userID, debtID string, name *string, amount *decimal.Decimal) (*models.Debt, error) {
	if m.updateDebtFn != nil {
		return m.updateDebtFn(userID, debtID, name, amount)
	}
	return &models.Debt{Base: models.Base{ID: debtID}, UserID: userID}, nil
}

func (m *mockDebtService) DeleteDebt(userID, debtID string) error {
	if m.deleteDebtFn != nil {
		return m.deleteDebtFn(userID, debtID)
	}
	return nil
}

func setupDebtRouter(handler *DebtHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/debts", handler.CreateDebt)
	auth.GET("/debts", handler.GetUserDebts)
	auth.GET("/debts/:id", handler.GetDebtByID)
	auth.PUT("/debts/:id", handler.UpdateDebt)
	auth.DELETE("/debts/:id", handler.DeleteDebt)
	return r
}

func TestDebtHandler_CreateDebt(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got decimal.Decimal
		svc := &mockDebtService{
			createDebtFn: func(userID, name string, amount decimal.Decimal) (*models.Debt, error) {
				got = amount
				return &models.Debt{Base: models.Base{ID: testDebtID}, UserID: userID, Name: name, Amount: amount}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupDebtRouter(NewDebtHandler(svc, audit))

		rec := doRequest(r, "POST", "/debts", `{"name":"Student Loan","amount":"12000.75"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Equal(decimal.RequireFromString("12000.75")) {
			t.Errorf("expected 12000.75, got %s", got)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_DEBT" {
			t.Errorf("expected CREATE_DEBT audit entry, got %+v", audit.entries)
		}
	})

	t.Run("accepts numeric amount", func(t *testing.T) {
		r := setupDebtRouter(NewDebtHandler(&mockDebtService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/debts", `{"name":"Card","amount":250}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on negative amount", func(t *testing.T) {
		r := setupDebtRouter(NewDebtHandler(&mockDebtService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/debts", `{"name":"Card","amount":"-5"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupDebtRouter(NewDebtHandler(&mockDebtService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/debts", `{"amount":"5"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDebtHandler_GetDebtByID(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		r := setupDebtRouter(NewDebtHandler(&mockDebtService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/debts/"+testDebtID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		debt := parseJSON(t, rec)["debt"].(map[string]any)
		if debt["id"] != testDebtID {
			t.Errorf("expected id %s, got %v", testDebtID, debt["id"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockDebtService{
			getDebtByIDFn: func(_, _ string) (*models.Debt, error) { return nil, apperrors.ErrDebtNotFound },
		}
		r := setupDebtRouter(NewDebtHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/debts/"+testDebtID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DEBT_NOT_FOUND")
	})
}

func TestDebtHandler_UpdateDebt(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		var gotName *string
		var gotAmount *decimal.Decimal
		svc := &mockDebtService{
			updateDebtFn: func(_, id string, name *string, amount *decimal.Decimal) (*models.Debt, error) {
				gotName, gotAmount = name, amount
				return &models.Debt{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupDebtRouter(NewDebtHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/debts/"+testDebtID, `{"amount":"99.5"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotName != nil {
			t.Errorf("expected nil name, got %q", *gotName)
		}
		if gotAmount == nil || !gotAmount.Equal(decimal.RequireFromString("99.5")) {
			t.Errorf("expected amount 99.5, got %v", gotAmount)
		}
	})

	t.Run("returns 400 on negative amount", func(t *testing.T) {
		r := setupDebtRouter(NewDebtHandler(&mockDebtService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/debts/"+testDebtID, `{"amount":"-1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDebtHandler_DeleteDebt(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		r := setupDebtRouter(NewDebtHandler(&mockDebtService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/debts/"+testDebtID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockDebtService{
			deleteDebtFn: func(_, _ string) error { return apperrors.ErrDebtNotFound },
		}
		r := setupDebtRouter(NewDebtHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/debts/"+testDebtID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
