package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wealthsync/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPortfolio creates a portfolio with a unique name.
func CreateTestPortfolio(t *testing.T, db *gorm.DB, userID string) *models.Portfolio {
	t.Helper()

	p := &models.Portfolio{
		UserID: userID,
		Name:   fmt.Sprintf("Test Portfolio %d", nextID()),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return p
}

// CreateTestManualAsset creates an untracked manual asset with the given value.
func CreateTestManualAsset(t *testing.T, db *gorm.DB, userID string, value string) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		UserID: userID,
		Kind:   models.AssetKindManual,
		Name:   fmt.Sprintf("Test Asset %d", nextID()),
		Value:  decimal.RequireFromString(value),
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestTrackedAsset creates a real-time tracked asset with zero value.
// createdAt orders assets for the refresher; pass the zero time for now.
func CreateTestTrackedAsset(t *testing.T, db *gorm.DB, userID string, kind models.AssetKind, symbol string, createdAt time.Time) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		UserID:            userID,
		Kind:              kind,
		Name:              symbol,
		Symbol:            symbol,
		Value:             decimal.Zero,
		IsRealTimeTracked: true,
	}
	asset.CreatedAt = createdAt
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test tracked asset: %v", err)
	}
	return asset
}

// CreateTestDebt creates a debt with the given amount.
func CreateTestDebt(t *testing.T, db *gorm.DB, userID string, amount string) *models.Debt {
	t.Helper()

	debt := &models.Debt{
		UserID: userID,
		Name:   fmt.Sprintf("Test Debt %d", nextID()),
		Amount: decimal.RequireFromString(amount),
	}
	if err := db.Create(debt).Error; err != nil {
		t.Fatalf("failed to create test debt: %v", err)
	}
	return debt
}
