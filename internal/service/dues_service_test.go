package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/cache"
	"github.com/segyhp/dues-engine/internal/config"
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"
	customError "github.com/segyhp/dues-engine/pkg/errors"
	"github.com/segyhp/dues-engine/tests/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	asOf     = domain.NewPeriod(2024, time.April)
	fixedNow = time.Date(2024, time.April, 15, 10, 0, 0, 0, time.UTC)
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Timezone: "Asia/Kolkata"},
		Business: config.BusinessConfig{
			PenaltyPolicy: "flat",
			PenaltyAmount: "100",
			PenaltyRate:   "0",
			PenaltyCapPct: "0",
			ReportWorkers: 2,
		},
	}
}

func shop(shopNo string, rent int64, start time.Month, paid ...time.Month) *domain.Shop {
	s := &domain.Shop{
		ID:            uuid.New(),
		ShopNo:        shopNo,
		RentAmount:    decimal.NewFromInt(rent),
		AgreementDate: time.Date(2024, start, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, m := range paid {
		s.RentHistory = append(s.RentHistory, domain.PaymentRecord{Period: domain.NewPeriod(2024, m), Paid: true})
	}
	return s
}

func tenant(name string, shops ...*domain.Shop) *domain.Tenant {
	return &domain.Tenant{ID: uuid.New(), Name: name, Shops: shops}
}

type recorderStub struct {
	runs     int
	failures int
}

func (r *recorderStub) RecordPortfolioRun(_ time.Duration, failures int, _ time.Time) {
	r.runs++
	r.failures = failures
}

func newService(repo *mocks.MockTenantRepository, opts ...Option) *DuesService {
	cfg := testConfig()
	policy, err := PolicyFromConfig(cfg)
	if err != nil {
		panic(err)
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewDuesService(repo, reconcile.NewEngine(zap.NewNop(), reconcile.WithWorkers(2)), policy, cfg, zap.NewNop(), opts...)
}

func TestPolicyFromConfig(t *testing.T) {
	policy, err := PolicyFromConfig(testConfig())
	require.NoError(t, err)
	require.IsType(t, reconcile.FlatPolicy{}, policy)
	assert.True(t, policy.(reconcile.FlatPolicy).Amount.Equal(decimal.NewFromInt(100)))

	cfg := testConfig()
	cfg.Business.PenaltyPolicy = "table"
	cfg.Business.PenaltyTableFile = "/nonexistent/penalties.yaml"
	_, err = PolicyFromConfig(cfg)
	assert.Error(t, err)
}

func TestCurrentPeriod(t *testing.T) {
	svc := newService(new(mocks.MockTenantRepository))

	assert.Equal(t, asOf, svc.CurrentPeriod())
}

func TestCurrentPeriod_UsesConfiguredZone(t *testing.T) {
	// 20:00 UTC on 31 March is already 1 April in Kolkata
	svc := newService(new(mocks.MockTenantRepository),
		WithClock(func() time.Time { return time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC) }))

	assert.Equal(t, domain.NewPeriod(2024, time.April), svc.CurrentPeriod())
}

func TestTenantPending(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	tn := tenant("Ramesh", shop("S-1", 5000, time.January))
	repo.On("GetTenant", mock.Anything, tn.ID).Return(tn, nil)

	summary, err := svc.TenantPending(context.Background(), tn.ID, asOf, domain.AllPeriods())

	require.NoError(t, err)
	assert.Equal(t, "20000", summary.PendingRent.String())
	assert.Equal(t, "300", summary.Penalty().String())
	repo.AssertExpectations(t)
}

func TestTenantPending_NotFound(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	id := uuid.New()
	repo.On("GetTenant", mock.Anything, id).Return(nil, fmt.Errorf("get tenant: %w", sql.ErrNoRows))

	_, err := svc.TenantPending(context.Background(), id, asOf, domain.AllPeriods())

	assert.True(t, errors.Is(err, customError.ErrTenantNotFound))
	assert.Equal(t, customError.ErrCodeTenantNotFound, customError.CodeOf(err))
}

func TestTenantPending_DatabaseError(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	id := uuid.New()
	repo.On("GetTenant", mock.Anything, id).Return(nil, errors.New("connection refused"))

	_, err := svc.TenantPending(context.Background(), id, asOf, domain.AllPeriods())

	assert.Equal(t, customError.ErrCodeDatabaseError, customError.CodeOf(err))
}

func TestTenantPending_InvalidSchedule(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	broken := shop("S-9", 5000, time.January)
	broken.Loans = []*domain.Loan{{ID: uuid.New(), EMIPerMonth: decimal.NewFromInt(10), StartDate: broken.AgreementDate, IsActive: true}}
	tn := tenant("Broken", broken)
	repo.On("GetTenant", mock.Anything, tn.ID).Return(tn, nil)

	_, err := svc.TenantPending(context.Background(), tn.ID, asOf, domain.AllPeriods())

	assert.Equal(t, customError.ErrCodeInvalidSchedule, customError.CodeOf(err))
	assert.True(t, errors.Is(err, customError.ErrInvalidSchedule))
}

func TestShopPending_ShopNotFound(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	tn := tenant("Ramesh", shop("S-1", 5000, time.January))
	repo.On("GetTenant", mock.Anything, tn.ID).Return(tn, nil)

	_, err := svc.ShopPending(context.Background(), tn.ID, "S-404", asOf)

	assert.Equal(t, customError.ErrCodeShopNotFound, customError.CodeOf(err))
}

func TestShopPending_WarningsSurfaced(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	s := shop("S-1", 5000, time.January, time.January, time.February, time.March, time.April)
	s.Loans = []*domain.Loan{
		{ID: uuid.New(), EMIPerMonth: decimal.NewFromInt(500), StartDate: s.AgreementDate, TenureMonths: 6, IsActive: true},
		{ID: uuid.New(), EMIPerMonth: decimal.NewFromInt(250), StartDate: s.AgreementDate, TenureMonths: 6, IsActive: true},
	}
	tn := tenant("Two Loans", s)
	repo.On("GetTenant", mock.Anything, tn.ID).Return(tn, nil)

	result, err := svc.ShopPending(context.Background(), tn.ID, "S-1", asOf)

	require.NoError(t, err)
	assert.Len(t, result.Reconciliation.EMIs, 2)
	assert.Equal(t, "3000", result.Summary.PendingEMI.String())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "2 active loans")
}

func TestShopPending_DuplicateRecordWarning(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	s := shop("S-2", 1000, time.January, time.January)
	s.RentHistory = append(s.RentHistory, domain.PaymentRecord{Period: domain.NewPeriod(2024, time.January)})
	tn := tenant("Double Entry", s)
	repo.On("GetTenant", mock.Anything, tn.ID).Return(tn, nil)

	result, err := svc.ShopPending(context.Background(), tn.ID, "S-2", asOf)

	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "2024-01")
	assert.Equal(t, "3000", result.Summary.PendingRent.String())
}

func TestPenaltyPreview(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	tn := tenant("Ramesh", shop("S-1", 5000, time.January, time.January))
	repo.On("GetTenant", mock.Anything, tn.ID).Return(tn, nil)

	preview, err := svc.PenaltyPreview(context.Background(), tn.ID, "S-1", asOf, true, true)

	require.NoError(t, err)
	assert.True(t, preview.HasPenalty)
	assert.Len(t, preview.RentPenaltyDetails, 3)
	assert.Equal(t, "200", preview.TotalRentPenalty.String())
}

func TestTenantDetail(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	tn := tenant("Ramesh", shop("S-1", 5000, time.January), shop("S-2", 1000, time.March))
	repo.On("GetTenant", mock.Anything, tn.ID).Return(tn, nil)

	detail, err := svc.TenantDetail(context.Background(), tn.ID, asOf)

	require.NoError(t, err)
	assert.Len(t, detail.Shops, 2)
	assert.Equal(t, "22000", detail.Summary.PendingRent.String())
}

func portfolioTenants() []*domain.Tenant {
	return []*domain.Tenant{
		tenant("Settled", shop("A", 1000, time.January, time.January, time.February, time.March, time.April)),
		tenant("Owes March", shop("B", 2000, time.January, time.January, time.February, time.April)),
		tenant("Owes April", shop("C", 3000, time.March, time.March)),
	}
}

// memoryKV is a KVStore over a plain map.
type memoryKV map[string]string

func (m memoryKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (m memoryKV) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m[key] = value
	return nil
}

func (m memoryKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

// paidMarch returns tenants after "Owes March" settles March.
func paidMarch(before []*domain.Tenant) []*domain.Tenant {
	owes := before[1]
	settled := shop("B", 2000, time.January, time.January, time.February, time.March, time.April)
	settled.ID = owes.Shops[0].ID
	return []*domain.Tenant{
		before[0],
		{ID: owes.ID, Name: owes.Name, Shops: []*domain.Shop{settled}},
		before[2],
	}
}

func brokenTenant() *domain.Tenant {
	s := shop("X", 4000, time.January)
	s.Loans = []*domain.Loan{{ID: uuid.New(), EMIPerMonth: decimal.NewFromInt(10), StartDate: s.AgreementDate, IsActive: true}}
	return tenant("Broken", s)
}

func TestPendingTenants_IgnoresCache(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	kv := new(mocks.MockKVStore)
	rec := &recorderStub{}
	svc := newService(repo,
		WithCache(cache.NewPortfolioCache(kv, time.Hour, nil)),
		WithRunRecorder(rec))
	repo.On("ListTenants", mock.Anything).Return(portfolioTenants(), nil)

	rows, err := svc.PendingTenants(context.Background(), asOf, domain.DueKindRent, domain.AllPeriods())

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Owes March", rows[0].TenantName)
	assert.Equal(t, "Owes April", rows[1].TenantName)
	assert.Equal(t, 1, rec.runs)
	kv.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	kv.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestScreensAgreeAfterPaymentFollowingRefresh(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	kv := memoryKV{}
	svc := newService(repo, WithCache(cache.NewPortfolioCache(kv, time.Hour, nil)))

	before := portfolioTenants()
	after := paidMarch(before)
	repo.On("ListTenants", mock.Anything).Return(before, nil).Once()
	repo.On("ListTenants", mock.Anything).Return(after, nil)
	repo.On("GetTenant", mock.Anything, after[1].ID).Return(after[1], nil)

	_, err := svc.RefreshPortfolio(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, kv, 2)

	cards, err := svc.Dashboard(context.Background(), asOf, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cards.TenantsUnpaidLastMonth)
	assert.Equal(t, 1, cards.TenantsWithPendingRent)
	assert.Equal(t, "3000", cards.TotalPendingRent.String())

	rows, err := svc.PendingTenants(context.Background(), asOf, domain.DueKindRent, domain.AllPeriods())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Owes April", rows[0].TenantName)

	lastMonth, err := svc.PendingTenants(context.Background(), asOf, domain.DueKindEither, domain.LastMonth(asOf))
	require.NoError(t, err)
	assert.Empty(t, lastMonth)

	summary, err := svc.TenantPending(context.Background(), after[1].ID, asOf, domain.AllPeriods())
	require.NoError(t, err)
	assert.True(t, summary.PendingRent.IsZero())
}

func TestPendingWorkbook_ExportsSnapshot(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo, WithCache(cache.NewPortfolioCache(memoryKV{}, time.Hour, nil)))
	repo.On("ListTenants", mock.Anything).Return(portfolioTenants(), nil).Once()

	_, err := svc.RefreshPortfolio(context.Background(), asOf)
	require.NoError(t, err)

	data, err := svc.PendingWorkbook(context.Background(), asOf, domain.DueKindEither, domain.AllPeriods())

	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data[:2])
	repo.AssertNumberOfCalls(t, "ListTenants", 1)
}

func TestPendingTenants_LastMonthWindow(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(portfolioTenants(), nil)

	rows, err := svc.PendingTenants(context.Background(), asOf, domain.DueKindEither, domain.LastMonth(asOf))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Owes March", rows[0].TenantName)
}

func TestUnpaidLastMonth(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(portfolioTenants(), nil)

	unpaid, err := svc.UnpaidLastMonth(context.Background(), asOf)

	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "Owes March", unpaid[0].Name)
}

func TestUnpaidLastMonth_SkipsBrokenTenant(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(append(portfolioTenants(), brokenTenant()), nil)

	unpaid, err := svc.UnpaidLastMonth(context.Background(), asOf)

	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "Owes March", unpaid[0].Name)
}

func TestUnpaidLastMonth_NoneUnpaid(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(paidMarch(portfolioTenants()), nil)

	unpaid, err := svc.UnpaidLastMonth(context.Background(), asOf)

	require.NoError(t, err)
	assert.NotNil(t, unpaid)
	assert.Empty(t, unpaid)
}

func TestDashboard(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(portfolioTenants(), nil)
	year := 2024

	cards, err := svc.Dashboard(context.Background(), asOf, &year)

	require.NoError(t, err)
	assert.Equal(t, 3, cards.TotalTenants)
	assert.Equal(t, 2, cards.TenantsWithPendingRent)
	assert.Equal(t, 1, cards.TenantsUnpaidLastMonth)
	assert.Equal(t, "5000", cards.TotalPendingRent.String())
	require.NotNil(t, cards.Year)
	assert.Equal(t, "5000", cards.Year.TotalPendingRent.String())
}

func TestDashboard_SkipsBrokenTenant(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(append(portfolioTenants(), brokenTenant()), nil).Once()
	year := 2024

	cards, err := svc.Dashboard(context.Background(), asOf, &year)

	require.NoError(t, err)
	assert.Equal(t, 4, cards.TotalTenants)
	assert.Equal(t, 1, cards.FailedTenants)
	assert.Equal(t, 1, cards.TenantsUnpaidLastMonth)
	assert.Equal(t, "5000", cards.TotalPendingRent.String())
	require.NotNil(t, cards.Year)
	assert.Equal(t, "5000", cards.Year.TotalPendingRent.String())
	repo.AssertExpectations(t)
}

func TestDashboard_PastYearPricedAtDecember(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return([]*domain.Tenant{tenant("Old Dues", shop("D", 1000, time.January))}, nil)
	year := 2024
	later := domain.NewPeriod(2026, time.February)

	cards, err := svc.Dashboard(context.Background(), later, &year)

	require.NoError(t, err)
	require.NotNil(t, cards.Year)
	assert.Equal(t, "12000", cards.Year.TotalPendingRent.String())
	assert.Equal(t, "1100", cards.Year.TotalPenalty.String())
}

func TestAwaitingFirstPayment(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	fresh := tenant("Fresh", shop("N", 1000, time.April))
	repo.On("ListTenants", mock.Anything).Return(append(portfolioTenants(), fresh), nil)

	awaiting, err := svc.AwaitingFirstPayment(context.Background(), asOf)

	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, "N", awaiting[0].ShopNo)
}

func TestPendingWorkbook(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(portfolioTenants(), nil)

	data, err := svc.PendingWorkbook(context.Background(), asOf, domain.DueKindEither, domain.AllPeriods())

	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data[:2])
}

func TestRefreshPortfolio(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	kv := new(mocks.MockKVStore)
	svc := newService(repo, WithCache(cache.NewPortfolioCache(kv, time.Hour, nil)))

	kv.On("Del", mock.Anything, []string{
		cache.Key(asOf, domain.AllPeriods()),
		cache.Key(asOf, domain.LastMonth(asOf)),
	}).Return(nil)
	kv.On("Set", mock.Anything, mock.Anything, mock.Anything, time.Hour).Return(nil).Twice()
	repo.On("ListTenants", mock.Anything).Return(portfolioTenants(), nil).Once()

	result, err := svc.RefreshPortfolio(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, domain.AllPeriods(), result.Window)
	assert.Equal(t, 2, result.TenantsWithPending)
	kv.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestListTenants_DatabaseError(t *testing.T) {
	repo := new(mocks.MockTenantRepository)
	svc := newService(repo)
	repo.On("ListTenants", mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.UnpaidLastMonth(context.Background(), asOf)

	assert.Equal(t, customError.ErrCodeDatabaseError, customError.CodeOf(err))
}
