package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"
)

// TenantRepository loads tenants together with their shops, loans and
// payment ledgers. It is read only.
type TenantRepository interface {
	// ListTenants returns every tenant ordered by name, fully loaded
	ListTenants(ctx context.Context) ([]*domain.Tenant, error)

	// GetTenant returns one tenant fully loaded. A missing tenant yields
	// an error wrapping sql.ErrNoRows.
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error)

	// Ping checks database connectivity
	Ping(ctx context.Context) error
}
