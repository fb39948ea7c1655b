package store

import (
	"context"

	"github.com/diewo77/facturo/internal/models"
)

// GetCompanyProfile returns ErrNotFound when the tenant has none.
func (s *Store) GetCompanyProfile(ctx context.Context, tenantID string) (*models.CompanyProfile, error) {
	var p models.CompanyProfile
	if err := translate(s.scoped(ctx, tenantID).First(&p).Error); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateCompanyProfile returns ErrDuplicate when the tenant already has one.
func (s *Store) CreateCompanyProfile(ctx context.Context, p *models.CompanyProfile) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) SaveCompanyProfile(ctx context.Context, p *models.CompanyProfile) error {
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

func (s *Store) DeleteCompanyProfile(ctx context.Context, tenantID string) error {
	res := s.scoped(ctx, tenantID).Delete(&models.CompanyProfile{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
