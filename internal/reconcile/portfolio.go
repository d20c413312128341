package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"
	customError "github.com/segyhp/dues-engine/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TenantResult is the reconciled summary of one tenant
type TenantResult struct {
	TenantID   uuid.UUID             `json:"tenantId"`
	TenantName string                `json:"tenantName"`
	ShopNos    []string              `json:"shopNos"`
	Summary    domain.PendingSummary `json:"summary"`
}

// TenantFailure is a tenant whose records could not be reconciled
type TenantFailure struct {
	TenantID   uuid.UUID `json:"tenantId"`
	TenantName string    `json:"tenantName"`
	Reason     string    `json:"reason"`
	Err        error     `json:"-"`
}

// PortfolioReport is the merged result of a batch pass over many tenants
type PortfolioReport struct {
	AsOf               domain.Period         `json:"asOf"`
	Window             domain.Window         `json:"window"`
	Totals             domain.PendingSummary `json:"totals"`
	TenantsWithPending int                   `json:"tenantsWithPending"`
	Results            []TenantResult        `json:"results"`
	Failures           []TenantFailure       `json:"failures,omitempty"`
	// GeneratedAt is stamped by the caller when the pass is stored or exported.
	GeneratedAt        time.Time             `json:"generatedAt,omitempty"`
}

// PortfolioPending reconciles every tenant independently, in parallel, and
// merges the results in input order. A tenant with malformed records is
// recorded as a failure and logged; it does not stop the batch. Only
// cancellation of ctx aborts the pass.
func (e *Engine) PortfolioPending(ctx context.Context, tenants []*domain.Tenant, asOf domain.Period, policy PenaltyPolicy, window domain.Window) (*PortfolioReport, error) {
	if err := checkAsOf(asOf); err != nil {
		return nil, err
	}

	summaries := make([]domain.PendingSummary, len(tenants))
	failures := make([]error, len(tenants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, tenant := range tenants {
		if tenant == nil {
			continue
		}
		i, tenant := i, tenant
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := e.PendingForTenant(tenant, asOf, policy, window)
			if err != nil {
				failures[i] = err
				return nil
			}
			summaries[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, customError.WrapReconcileCanceled(err)
	}

	report := &PortfolioReport{
		AsOf:   asOf,
		Window: window,
	}
	for i, tenant := range tenants {
		if tenant == nil {
			continue
		}
		if err := failures[i]; err != nil {
			level := e.logger.Warn
			if errors.Is(err, customError.ErrInvalidSchedule) {
				level = e.logger.Error
			}
			level("tenant skipped in portfolio pass",
				zap.String("tenant_id", tenant.ID.String()),
				zap.String("tenant_name", tenant.Name),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, TenantFailure{
				TenantID:   tenant.ID,
				TenantName: tenant.Name,
				Reason:     err.Error(),
				Err:        err,
			})
			continue
		}

		report.Results = append(report.Results, TenantResult{
			TenantID:   tenant.ID,
			TenantName: tenant.Name,
			ShopNos:    tenant.ShopNumbers(),
			Summary:    summaries[i],
		})
		report.Totals.Merge(summaries[i])
		if summaries[i].HasPending(domain.DueKindEither) {
			report.TenantsWithPending++
		}
	}

	e.logger.Info("portfolio reconciliation completed",
		zap.String("as_of", asOf.String()),
		zap.Int("tenants", len(report.Results)),
		zap.Int("failures", len(report.Failures)),
		zap.Int("tenants_with_pending", report.TenantsWithPending),
	)

	return report, nil
}

// TenantsWithPending keeps the tenants having at least one unpaid period of
// the requested kind inside the window, in input order. Use
// domain.LastMonth(asOf) for the "unpaid last month" filter. Tenants that
// cannot be reconciled are left out and logged, as in PortfolioPending.
func (e *Engine) TenantsWithPending(ctx context.Context, tenants []*domain.Tenant, asOf domain.Period, policy PenaltyPolicy, kind domain.DueKind, window domain.Window) ([]*domain.Tenant, error) {
	report, err := e.PortfolioPending(ctx, tenants, asOf, policy, window)
	if err != nil {
		return nil, err
	}

	pending := make(map[uuid.UUID]bool, len(report.Results))
	for _, res := range report.Results {
		if res.Summary.HasPending(kind) {
			pending[res.TenantID] = true
		}
	}

	out := []*domain.Tenant{}
	for _, tenant := range tenants {
		if tenant != nil && pending[tenant.ID] {
			out = append(out, tenant)
		}
	}
	return out, nil
}

// yearAsOf bounds a year view at December of year, or at asOf when the year
// is not over yet.
func yearAsOf(year int, asOf domain.Period) domain.Period {
	return domain.MinPeriod(asOf, domain.NewPeriod(year, time.December))
}

// YearFilteredTotals sums pending rent and EMI for periods of the given year
// only, reconciled as of yearAsOf(year, asOf). Tenants that cannot be
// reconciled are left out and logged.
func (e *Engine) YearFilteredTotals(ctx context.Context, tenants []*domain.Tenant, year int, asOf domain.Period, policy PenaltyPolicy) (YearTotals, error) {
	if err := checkAsOf(asOf); err != nil {
		return YearTotals{}, err
	}
	report, err := e.PortfolioPending(ctx, tenants, yearAsOf(year, asOf), policy, domain.YearWindow(year))
	if err != nil {
		return YearTotals{}, err
	}
	return YearTotals{
		Year:               year,
		TotalPendingRent:   report.Totals.PendingRent,
		TotalPendingEMI:    report.Totals.PendingEMI,
		TotalPenalty:       report.Totals.Penalty(),
		TenantsWithPending: report.TenantsWithPending,
	}, nil
}
