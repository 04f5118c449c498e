package services

import (
	"context"
	"fmt"
	"time"

	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"

	"github.com/google/uuid"
)

type TaxReturnCreate struct {
	ClientID   uuid.UUID `json:"client_id"`
	TaxYear    int       `json:"tax_year"`
	FilingType *string   `json:"filing_type"`
	Notes      *string   `json:"notes"`
}

type TaxReturnUpdate struct {
	Status          *string  `json:"status"`
	FilingType      *string  `json:"filing_type"`
	TotalIncome     *float64 `json:"total_income"`
	TotalDeductions *float64 `json:"total_deductions"`
	TotalTax        *float64 `json:"total_tax"`
	Notes           *string  `json:"notes"`
}

type TaxReturnService interface {
	Create(ctx context.Context, req *TaxReturnCreate) (*models.TaxReturn, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TaxReturn, error)
	Update(ctx context.Context, id uuid.UUID, req *TaxReturnUpdate) (*models.TaxReturn, error)
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]*models.TaxReturn, error)
	List(ctx context.Context, limit, offset int) ([]*models.TaxReturn, error)
}

type taxReturnService struct {
	taxReturns repositories.TaxReturnRepository
	users      repositories.UserRepository
}

func NewTaxReturnService(taxReturns repositories.TaxReturnRepository, users repositories.UserRepository) TaxReturnService {
	return &taxReturnService{taxReturns: taxReturns, users: users}
}

func (s *taxReturnService) Create(ctx context.Context, req *TaxReturnCreate) (*models.TaxReturn, error) {
	if err := common.ValidateTaxYear(req.TaxYear, "tax_year"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if _, err := s.users.GetByID(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("%w: client %s: %v", common.ErrValidation, req.ClientID, err)
	}

	ret := &models.TaxReturn{
		ID:         uuid.New(),
		ClientID:   req.ClientID,
		TaxYear:    req.TaxYear,
		Status:     models.ReturnStatusNotStarted,
		FilingType: req.FilingType,
		Notes:      req.Notes,
	}
	if err := s.taxReturns.Create(ctx, ret); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}
	return ret, nil
}

func (s *taxReturnService) GetByID(ctx context.Context, id uuid.UUID) (*models.TaxReturn, error) {
	ret, err := s.taxReturns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return ret, nil
}

func (s *taxReturnService) Update(ctx context.Context, id uuid.UUID, req *TaxReturnUpdate) (*models.TaxReturn, error) {
	ret, err := s.taxReturns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}

	if req.Status != nil {
		if !models.ValidReturnStatus(*req.Status) {
			return nil, fmt.Errorf("%w: invalid return status %q", common.ErrValidation, *req.Status)
		}
		ret.Status = *req.Status
		if ret.Status == models.ReturnStatusCompleted && ret.CompletedAt == nil {
			now := time.Now()
			ret.CompletedAt = &now
		}
		if ret.Status != models.ReturnStatusCompleted {
			ret.CompletedAt = nil
		}
	}
	if req.FilingType != nil {
		ret.FilingType = req.FilingType
	}
	if req.TotalIncome != nil {
		ret.TotalIncome = req.TotalIncome
	}
	if req.TotalDeductions != nil {
		ret.TotalDeductions = req.TotalDeductions
	}
	if req.TotalTax != nil {
		ret.TotalTax = req.TotalTax
	}
	if req.Notes != nil {
		ret.Notes = req.Notes
	}

	if err := s.taxReturns.Update(ctx, ret); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}
	return ret, nil
}

func (s *taxReturnService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*models.TaxReturn, error) {
	returns, err := s.taxReturns.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return returns, nil
}

func (s *taxReturnService) List(ctx context.Context, limit, offset int) ([]*models.TaxReturn, error) {
	returns, err := s.taxReturns.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return returns, nil
}
