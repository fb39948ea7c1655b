package store

import (
	"context"

	"github.com/diewo77/facturo/internal/models"
)

func (s *Store) ListClients(ctx context.Context, tenantID string, page Page) ([]models.Client, error) {
	var out []models.Client
	err := page.apply(s.scoped(ctx, tenantID).Order("id")).Find(&out).Error
	return out, translate(err)
}

func (s *Store) GetClient(ctx context.Context, tenantID string, id uint) (*models.Client, error) {
	var c models.Client
	if err := s.get(ctx, tenantID, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

// SaveClient writes every column of an existing client.
func (s *Store) SaveClient(ctx context.Context, c *models.Client) error {
	return translate(s.db.WithContext(ctx).Save(c).Error)
}

// DeleteClient fails with ErrInUse while invoices reference the client.
func (s *Store) DeleteClient(ctx context.Context, tenantID string, id uint) error {
	return s.deleteScoped(ctx, tenantID, id, &models.Client{})
}
