package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"
	"github.com/segyhp/dues-engine/internal/report"
	"github.com/stretchr/testify/mock"
)

type MockDuesService struct {
	mock.Mock
}

func (m *MockDuesService) PendingTenants(ctx context.Context, asOf domain.Period, kind domain.DueKind, window domain.Window) ([]report.TenantRow, error) {
	args := m.Called(ctx, asOf, kind, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.TenantRow), args.Error(1)
}

func (m *MockDuesService) TenantPending(ctx context.Context, tenantID uuid.UUID, asOf domain.Period, window domain.Window) (domain.PendingSummary, error) {
	args := m.Called(ctx, tenantID, asOf, window)
	return args.Get(0).(domain.PendingSummary), args.Error(1)
}

func (m *MockDuesService) TenantDetail(ctx context.Context, tenantID uuid.UUID, asOf domain.Period) (*report.TenantDetail, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.TenantDetail), args.Error(1)
}

func (m *MockDuesService) ShopPending(ctx context.Context, tenantID uuid.UUID, shopNo string, asOf domain.Period) (*report.ShopPending, error) {
	args := m.Called(ctx, tenantID, shopNo, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.ShopPending), args.Error(1)
}

func (m *MockDuesService) PenaltyPreview(ctx context.Context, tenantID uuid.UUID, shopNo string, asOf domain.Period, rent, emi bool) (*report.PenaltyPreview, error) {
	args := m.Called(ctx, tenantID, shopNo, asOf, rent, emi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.PenaltyPreview), args.Error(1)
}

func (m *MockDuesService) Dashboard(ctx context.Context, asOf domain.Period, year *int) (*report.DashboardCards, error) {
	args := m.Called(ctx, asOf, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DashboardCards), args.Error(1)
}

func (m *MockDuesService) AwaitingFirstPayment(ctx context.Context, asOf domain.Period) ([]reconcile.AwaitingPayment, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconcile.AwaitingPayment), args.Error(1)
}

func (m *MockDuesService) PendingWorkbook(ctx context.Context, asOf domain.Period, kind domain.DueKind, window domain.Window) ([]byte, error) {
	args := m.Called(ctx, asOf, kind, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
