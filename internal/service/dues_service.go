package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/cache"
	"github.com/segyhp/dues-engine/internal/config"
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"
	"github.com/segyhp/dues-engine/internal/report"
	"github.com/segyhp/dues-engine/internal/repository"
	customError "github.com/segyhp/dues-engine/pkg/errors"

	"go.uber.org/zap"
)

// RunRecorder receives the outcome of every portfolio pass.
type RunRecorder interface {
	RecordPortfolioRun(duration time.Duration, failures int, finishedAt time.Time)
}

type DuesService struct {
	TenantRepo repository.TenantRepository
	engine     *reconcile.Engine
	policy     reconcile.PenaltyPolicy
	cache      *cache.PortfolioCache
	recorder   RunRecorder
	config     *config.Config
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a DuesService.
type Option func(*DuesService)

// WithClock replaces time.Now; the current month is derived from it.
func WithClock(now func() time.Time) Option {
	return func(s *DuesService) { s.now = now }
}

// WithCache stores the nightly snapshot in c for the xlsx export.
func WithCache(c *cache.PortfolioCache) Option {
	return func(s *DuesService) { s.cache = c }
}

// WithRunRecorder reports portfolio pass durations, typically to Prometheus.
func WithRunRecorder(r RunRecorder) Option {
	return func(s *DuesService) { s.recorder = r }
}

func NewDuesService(
	tenantRepo repository.TenantRepository,
	engine *reconcile.Engine,
	policy reconcile.PenaltyPolicy,
	config *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *DuesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DuesService{
		TenantRepo: tenantRepo,
		engine:     engine,
		policy:     policy,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PolicyFromConfig builds the penalty policy the business section describes.
func PolicyFromConfig(cfg *config.Config) (reconcile.PenaltyPolicy, error) {
	return reconcile.NewPolicy(reconcile.PolicySpec{
		Kind:        cfg.Business.PenaltyPolicy,
		FlatAmount:  cfg.GetPenaltyAmount(),
		Rate:        cfg.GetPenaltyRate(),
		CapPct:      cfg.GetPenaltyCapPct(),
		GraceMonths: cfg.Business.GraceMonths,
		TableFile:   cfg.Business.PenaltyTableFile,
	})
}

// CurrentPeriod is the calendar month of the service clock in the
// configured zone.
func (s *DuesService) CurrentPeriod() domain.Period {
	loc := time.UTC
	if s.config != nil {
		loc = s.config.Location()
	}
	return domain.PeriodOf(s.now().In(loc))
}

func (s *DuesService) getTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	tenant, err := s.TenantRepo.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapTenantNotFound(tenantID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return tenant, nil
}

func (s *DuesService) listTenants(ctx context.Context) ([]*domain.Tenant, error) {
	tenants, err := s.TenantRepo.ListTenants(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return tenants, nil
}

// engineError turns a malformed-schedule failure into its business error and
// passes everything else through.
func engineError(err error) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	if errors.Is(err, customError.ErrInvalidSchedule) {
		return customError.WrapInvalidSchedule(err)
	}
	return err
}

// Portfolio reconciles every tenant live. Screens never read the cache, so
// a payment recorded a moment ago shows up everywhere at once.
func (s *DuesService) Portfolio(ctx context.Context, asOf domain.Period, window domain.Window) (*reconcile.PortfolioReport, error) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		return nil, err
	}
	return s.computePortfolio(ctx, tenants, asOf, window)
}

func (s *DuesService) computePortfolio(ctx context.Context, tenants []*domain.Tenant, asOf domain.Period, window domain.Window) (*reconcile.PortfolioReport, error) {
	start := s.now()
	result, err := s.engine.PortfolioPending(ctx, tenants, asOf, s.policy, window)
	if err != nil {
		return nil, err
	}
	finished := s.now()
	result.GeneratedAt = finished
	if s.recorder != nil {
		s.recorder.RecordPortfolioRun(finished.Sub(start), len(result.Failures), finished)
	}
	return result, nil
}

// PendingTenants lists the tenants with something pending of the given kind
// inside the window.
func (s *DuesService) PendingTenants(ctx context.Context, asOf domain.Period, kind domain.DueKind, window domain.Window) ([]report.TenantRow, error) {
	result, err := s.Portfolio(ctx, asOf, window)
	if err != nil {
		return nil, err
	}
	return report.TenantRows(result.Results, kind), nil
}

// TenantPending sums the tenant's dues inside the window.
func (s *DuesService) TenantPending(ctx context.Context, tenantID uuid.UUID, asOf domain.Period, window domain.Window) (domain.PendingSummary, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return domain.PendingSummary{}, err
	}
	summary, err := s.engine.PendingForTenant(tenant, asOf, s.policy, window)
	if err != nil {
		return domain.PendingSummary{}, engineError(err)
	}
	return summary, nil
}

// TenantDetail reconciles every shop of the tenant for the detail page.
func (s *DuesService) TenantDetail(ctx context.Context, tenantID uuid.UUID, asOf domain.Period) (*report.TenantDetail, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	shops := make([]*reconcile.ShopReconciliation, 0, len(tenant.Shops))
	for _, shop := range tenant.Shops {
		if shop == nil {
			continue
		}
		r, err := s.engine.ReconcileShop(shop, asOf, s.policy)
		if err != nil {
			return nil, engineError(err)
		}
		shops = append(shops, r)
	}

	detail := report.NewTenantDetail(tenant, asOf, shops, report.DefaultHistoryLength)
	return &detail, nil
}

func (s *DuesService) reconcileShop(ctx context.Context, tenantID uuid.UUID, shopNo string, asOf domain.Period) (*reconcile.ShopReconciliation, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	shop := tenant.FindShop(shopNo)
	if shop == nil {
		return nil, customError.WrapShopNotFound(tenantID.String(), shopNo)
	}
	r, err := s.engine.ReconcileShop(shop, asOf, s.policy)
	if err != nil {
		return nil, engineError(err)
	}
	return r, nil
}

// ShopPending reconciles one shop of a tenant.
func (s *DuesService) ShopPending(ctx context.Context, tenantID uuid.UUID, shopNo string, asOf domain.Period) (*report.ShopPending, error) {
	r, err := s.reconcileShop(ctx, tenantID, shopNo, asOf)
	if err != nil {
		return nil, err
	}
	return report.NewShopPending(r), nil
}

// PenaltyPreview shows the penalties a payment for the shop would settle.
func (s *DuesService) PenaltyPreview(ctx context.Context, tenantID uuid.UUID, shopNo string, asOf domain.Period, rent, emi bool) (*report.PenaltyPreview, error) {
	r, err := s.reconcileShop(ctx, tenantID, shopNo, asOf)
	if err != nil {
		return nil, err
	}
	preview := report.NewPenaltyPreview(r, rent, emi)
	return &preview, nil
}

// Dashboard builds the dashboard cards. year, when set, adds the totals of
// that calendar year. Every figure comes from one load of the tenants, and a
// tenant with broken records is counted as failed instead of failing the page.
func (s *DuesService) Dashboard(ctx context.Context, asOf domain.Period, year *int) (*report.DashboardCards, error) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		return nil, err
	}

	all, err := s.computePortfolio(ctx, tenants, asOf, domain.AllPeriods())
	if err != nil {
		return nil, err
	}

	unpaid, err := s.engine.TenantsWithPending(ctx, tenants, asOf, s.policy, domain.DueKindEither, domain.LastMonth(asOf))
	if err != nil {
		return nil, err
	}

	var totals *reconcile.YearTotals
	if year != nil {
		t, err := s.engine.YearFilteredTotals(ctx, tenants, *year, asOf, s.policy)
		if err != nil {
			return nil, err
		}
		totals = &t
	}

	cards := report.NewDashboardCards(all, len(unpaid), totals)
	return &cards, nil
}

// UnpaidLastMonth lists tenants that left the month before asOf unpaid.
// Tenants whose records cannot be reconciled are logged and skipped.
func (s *DuesService) UnpaidLastMonth(ctx context.Context, asOf domain.Period) ([]*domain.Tenant, error) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.TenantsWithPending(ctx, tenants, asOf, s.policy, domain.DueKindEither, domain.LastMonth(asOf))
}

// AwaitingFirstPayment lists obligations already due that were never paid.
func (s *DuesService) AwaitingFirstPayment(ctx context.Context, asOf domain.Period) ([]reconcile.AwaitingPayment, error) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		return nil, err
	}
	awaiting, err := s.engine.ShopsAwaitingFirstPayment(tenants, asOf)
	if err != nil {
		return nil, engineError(err)
	}
	if awaiting == nil {
		awaiting = []reconcile.AwaitingPayment{}
	}
	return awaiting, nil
}

// PendingWorkbook renders the pending tenant rows as xlsx. It exports the
// nightly snapshot when one exists for asOf and window, stamped with the time
// it was taken, and a live pass otherwise.
func (s *DuesService) PendingWorkbook(ctx context.Context, asOf domain.Period, kind domain.DueKind, window domain.Window) ([]byte, error) {
	pass, err := s.snapshot(ctx, asOf, window)
	if err != nil {
		return nil, err
	}
	rows := report.TenantRows(pass.Results, kind)
	data, err := report.PendingWorkbook(rows, asOf, pass.GeneratedAt)
	if err != nil {
		return nil, customError.WrapReportError(err)
	}
	return data, nil
}

func (s *DuesService) snapshot(ctx context.Context, asOf domain.Period, window domain.Window) (*reconcile.PortfolioReport, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, asOf, window); err == nil {
			return cached, nil
		}
	}
	return s.Portfolio(ctx, asOf, window)
}

// RefreshPortfolio recomputes the all-periods and last-month passes for asOf
// and stores them as the snapshot the xlsx export reads.
func (s *DuesService) RefreshPortfolio(ctx context.Context, asOf domain.Period) (*reconcile.PortfolioReport, error) {
	windows := []domain.Window{domain.AllPeriods(), domain.LastMonth(asOf)}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, asOf, windows...); err != nil {
			s.logger.Warn("portfolio cache invalidation failed", zap.Error(err))
		}
	}

	tenants, err := s.listTenants(ctx)
	if err != nil {
		return nil, err
	}

	var all *reconcile.PortfolioReport
	for i, w := range windows {
		result, err := s.computePortfolio(ctx, tenants, asOf, w)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Put(ctx, result); err != nil {
				s.logger.Warn("portfolio cache write failed", zap.Error(err))
			}
		}
		if i == 0 {
			all = result
		}
	}
	return all, nil
}

// Ping checks that the tenant store is reachable.
func (s *DuesService) Ping(ctx context.Context) error {
	return s.TenantRepo.Ping(ctx)
}
