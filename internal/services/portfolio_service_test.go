package services

import (
	"testing"

	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
	"wealthsync/internal/testutil"
)

func TestCreatePortfolio(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db)
		user := testutil.CreateTestUser(t, db)

		p, err := svc.CreatePortfolio(user.ID, "  Retirement Fund ")
		testutil.AssertNoError(t, err)

		if p.ID == "" {
			t.Fatal("expected portfolio ID to be generated")
		}
		if p.Name != "Retirement Fund" {
			t.Errorf("expected trimmed name, got %q", p.Name)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db)

		_, err := svc.CreatePortfolio("any", "   ")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserPortfolios(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db)

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	for i := 0; i < 3; i++ {
		testutil.CreateTestPortfolio(t, db, user.ID)
	}
	testutil.CreateTestPortfolio(t, db, other.ID)

	page, err := svc.GetUserPortfolios(user.ID, pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)

	if page.TotalItems != 3 {
		t.Errorf("expected 3 total items, got %d", page.TotalItems)
	}
	if len(page.Data) != 2 {
		t.Errorf("expected 2 items on first page, got %d", len(page.Data))
	}
	if page.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", page.TotalPages)
	}
}

func TestGetPortfolioByID(t *testing.T) {
	t.Run("includes_assets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db)

		user := testutil.CreateTestUser(t, db)
		p := testutil.CreateTestPortfolio(t, db, user.ID)
		asset := testutil.CreateTestManualAsset(t, db, user.ID, "100")
		db.Model(asset).Update("portfolio_id", p.ID)

		got, err := svc.GetPortfolioByID(user.ID, p.ID)
		testutil.AssertNoError(t, err)
		if len(got.Assets) != 1 || got.Assets[0].ID != asset.ID {
			t.Errorf("expected portfolio to contain asset %s, got %+v", asset.ID, got.Assets)
		}
	})

	t.Run("other_users_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db)

		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		p := testutil.CreateTestPortfolio(t, db, owner.ID)

		_, err := svc.GetPortfolioByID(intruder.ID, p.ID)
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})
}

func TestUpdatePortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db)

	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)

	got, err := svc.UpdatePortfolio(user.ID, p.ID, "Short-Term Investments")
	testutil.AssertNoError(t, err)
	if got.Name != "Short-Term Investments" {
		t.Errorf("expected renamed portfolio, got %q", got.Name)
	}

	_, err = svc.UpdatePortfolio(user.ID, "0190a4b2-0000-7000-8000-000000000000", "x")
	testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")

	_, err = svc.UpdatePortfolio(user.ID, p.ID, "")
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestDeletePortfolio_DetachesAssets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db)

	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)
	asset := testutil.CreateTestManualAsset(t, db, user.ID, "100")
	db.Model(asset).Update("portfolio_id", p.ID)

	testutil.AssertNoError(t, svc.DeletePortfolio(user.ID, p.ID))

	var reloaded models.Asset
	if err := db.First(&reloaded, "id = ?", asset.ID).Error; err != nil {
		t.Fatalf("asset should survive portfolio deletion: %v", err)
	}
	if reloaded.PortfolioID != nil {
		t.Errorf("expected asset to be detached, still in %s", *reloaded.PortfolioID)
	}

	err := svc.DeletePortfolio(user.ID, p.ID)
	testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
}
