package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/internal/billing"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/store"
)

type ClientService struct {
	store  *store.Store
	limits *billing.Evaluator
	log    *zap.Logger
}

func NewClientService(st *store.Store, limits *billing.Evaluator, log *zap.Logger) *ClientService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClientService{store: st, limits: limits, log: log}
}

// Create checks the plan's client limit and inserts c for the identity's
// tenant. The count and the insert are not atomic.
func (s *ClientService) Create(ctx context.Context, id auth.Identity, c *models.Client) error {
	if err := ValidateClient(c); err != nil {
		return err
	}
	if err := s.limits.CheckClient(ctx, id.TenantID, id.Plan); err != nil {
		return err
	}
	c.ID = 0
	c.UserID = id.TenantID
	if err := s.store.CreateClient(ctx, c); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	s.log.Debug("client created", zap.String("tenant_id", id.TenantID), zap.Uint("client_id", c.ID))
	return nil
}

// Update overwrites the editable fields of client id with those of in.
func (s *ClientService) Update(ctx context.Context, tenantID string, id uint, in models.Client) (*models.Client, error) {
	if err := ValidateClient(&in); err != nil {
		return nil, err
	}
	c, err := s.store.GetClient(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.TaxID = in.TaxID
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.City = in.City
	c.PostalCode = in.PostalCode
	c.Country = in.Country
	if err := s.store.SaveClient(ctx, c); err != nil {
		return nil, fmt.Errorf("update client %d: %w", id, err)
	}
	return c, nil
}
