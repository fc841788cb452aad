package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "wealthsync/internal/errors"
	"wealthsync/internal/models"
	"wealthsync/internal/pagination"
)

// portfolioService handles portfolio-related business logic.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// CreatePortfolio creates a new portfolio for a user.
func (s *portfolioService) CreatePortfolio(userID, name string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "portfolio name is required")
	}

	portfolio := &models.Portfolio{UserID: userID, Name: name}
	if err := s.db.Create(portfolio).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return portfolio, nil
}

// GetUserPortfolios retrieves a paginated list of portfolios for a user.
func (s *portfolioService) GetUserPortfolios(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error) {
	base := s.db.Model(&models.Portfolio{}).Where("user_id = ?", userID)

	result, err := pagination.Query[models.Portfolio](base, page, "created_at ASC, id ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetPortfolioByID retrieves a portfolio with its assets.
func (s *portfolioService) GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := s.db.Preload("Assets", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Where("id = ? AND user_id = ?", portfolioID, userID).First(&portfolio).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}

// UpdatePortfolio renames a portfolio.
func (s *portfolioService) UpdatePortfolio(userID, portfolioID, name string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "portfolio name is required")
	}

	res := s.db.Model(&models.Portfolio{}).
		Where("id = ? AND user_id = ?", portfolioID, userID).
		Update("name", name)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrPortfolioNotFound
	}

	return s.GetPortfolioByID(userID, portfolioID)
}

// DeletePortfolio soft-deletes a portfolio. Its assets are kept and detached.
func (s *portfolioService) DeletePortfolio(userID, portfolioID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", portfolioID, userID).Delete(&models.Portfolio{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrPortfolioNotFound
		}

		if err := tx.Model(&models.Asset{}).
			Where("portfolio_id = ? AND user_id = ?", portfolioID, userID).
			Update("portfolio_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
