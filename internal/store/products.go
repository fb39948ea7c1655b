package store

import (
	"context"

	"github.com/diewo77/facturo/internal/models"
)

func (s *Store) ListProducts(ctx context.Context, tenantID string, activeOnly bool, page Page) ([]models.Product, error) {
	q := s.scoped(ctx, tenantID).Order("id")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []models.Product
	err := page.apply(q).Find(&out).Error
	return out, translate(err)
}

func (s *Store) GetProduct(ctx context.Context, tenantID string, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.get(ctx, tenantID, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductsByID loads the tenant's products among ids. Ids owned by another
// tenant or missing are absent from the result.
func (s *Store) ProductsByID(ctx context.Context, tenantID string, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Product
	if err := s.scoped(ctx, tenantID).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, translate(err)
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

// DeleteProduct fails with ErrInUse while invoice lines reference the product.
func (s *Store) DeleteProduct(ctx context.Context, tenantID string, id uint) error {
	return s.deleteScoped(ctx, tenantID, id, &models.Product{})
}
