package services

import (
	"context"
	"fmt"

	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/store"
)

type ProductService struct {
	store *store.Store
}

func NewProductService(st *store.Store) *ProductService {
	return &ProductService{store: st}
}

func (s *ProductService) Create(ctx context.Context, tenantID string, p *models.Product) error {
	if err := ValidateProduct(p); err != nil {
		return err
	}
	p.ID = 0
	p.UserID = tenantID
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of product id. Existing invoice lines
// keep the price and rate they were created with.
func (s *ProductService) Update(ctx context.Context, tenantID string, id uint, in models.Product) (*models.Product, error) {
	if err := ValidateProduct(&in); err != nil {
		return nil, err
	}
	p, err := s.store.GetProduct(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	p.Code = in.Code
	p.Name = in.Name
	p.Description = in.Description
	p.UnitPrice = in.UnitPrice
	p.TaxRate = in.TaxRate
	p.IsService = in.IsService
	p.Active = in.Active
	if err := s.store.SaveProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}
