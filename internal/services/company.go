package services

import (
	"context"
	"fmt"

	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/store"
)

// CompanyService manages the single company profile of a tenant.
type CompanyService struct {
	store *store.Store
}

func NewCompanyService(st *store.Store) *CompanyService {
	return &CompanyService{store: st}
}

func (s *CompanyService) Get(ctx context.Context, tenantID string) (*models.CompanyProfile, error) {
	return s.store.GetCompanyProfile(ctx, tenantID)
}

// Create returns store.ErrDuplicate when the tenant already has a profile.
func (s *CompanyService) Create(ctx context.Context, tenantID string, p *models.CompanyProfile) error {
	if err := ValidateCompanyProfile(p); err != nil {
		return err
	}
	p.ID = 0
	p.UserID = tenantID
	if err := s.store.CreateCompanyProfile(ctx, p); err != nil {
		return fmt.Errorf("create company profile: %w", err)
	}
	return nil
}

func (s *CompanyService) Update(ctx context.Context, tenantID string, in models.CompanyProfile) (*models.CompanyProfile, error) {
	if err := ValidateCompanyProfile(&in); err != nil {
		return nil, err
	}
	p, err := s.store.GetCompanyProfile(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	in.ID = p.ID
	in.UserID = p.UserID
	in.CreatedAt = p.CreatedAt
	if err := s.store.SaveCompanyProfile(ctx, &in); err != nil {
		return nil, fmt.Errorf("update company profile: %w", err)
	}
	return &in, nil
}

func (s *CompanyService) Delete(ctx context.Context, tenantID string) error {
	return s.store.DeleteCompanyProfile(ctx, tenantID)
}
