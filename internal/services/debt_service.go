package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
)

// debtService handles debt-related business logic.
type debtService struct {
	db *gorm.DB
}

// NewDebtService creates a new DebtServicer.
func NewDebtService(db *gorm.DB) DebtServicer {
	return &debtService{db: db}
}

// CreateDebt records a new debt for a user.
func (s *debtService) CreateDebt(userID, name string, amount decimal.Decimal) (*models.Debt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "debt name is required")
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than or equal to 0")
	}

	debt := &models.Debt{UserID: userID, Name: name, Amount: amount}
	if err := s.db.Create(debt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return debt, nil
}

// GetUserDebts retrieves a paginated list of debts for a user.
func (s *debtService) GetUserDebts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Debt], error) {
	base := s.db.Model(&models.Debt{}).Where("user_id = ?", userID)

	result, err := pagination.Query[models.Debt](base, page, "created_at ASC, id ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetDebtByID retrieves a debt by ID for a specific user.
func (s *debtService) GetDebtByID(userID, debtID string) (*models.Debt, error) {
	var debt models.Debt
	if err := s.db.Where("id = ? AND user_id = ?", debtID, userID).First(&debt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDebtNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &debt, nil
}

// UpdateDebt changes the name and/or amount of a debt.
func (s *debtService) UpdateDebt(userID, debtID string, name *string, amount *decimal.Decimal) (*models.Debt, error) {
	debt, err := s.GetDebtByID(userID, debtID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "debt name must not be empty")
		}
		updates["name"] = n
	}
	if amount != nil {
		if amount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than or equal to 0")
		}
		updates["amount"] = *amount
	}
	if len(updates) == 0 {
		return debt, nil
	}

	if err := s.db.Model(debt).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetDebtByID(userID, debtID)
}

// DeleteDebt soft-deletes a debt.
func (s *debtService) DeleteDebt(userID, debtID string) error {
	res := s.db.Where("id = ? AND user_id = ?", debtID, userID).Delete(&models.Debt{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrDebtNotFound
	}
	return nil
}
