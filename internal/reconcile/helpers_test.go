package reconcile

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func period(year int, month time.Month) domain.Period {
	return domain.NewPeriod(year, month)
}

func date(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func paid(year int, month time.Month) domain.PaymentRecord {
	d := time.Date(year, month, 10, 0, 0, 0, 0, time.UTC)
	return domain.PaymentRecord{Period: period(year, month), Paid: true, PaidDate: &d}
}

func unpaid(year int, month time.Month) domain.PaymentRecord {
	return domain.PaymentRecord{Period: period(year, month)}
}

func newShop(shopNo string, rent int64, start time.Time, history ...domain.PaymentRecord) *domain.Shop {
	return &domain.Shop{
		ID:            uuid.New(),
		ShopNo:        shopNo,
		RentAmount:    decimal.NewFromInt(rent),
		AgreementDate: start,
		RentHistory:   history,
	}
}

func newLoan(emi int64, start time.Time, tenure int, history ...domain.PaymentRecord) *domain.Loan {
	return &domain.Loan{
		ID:           uuid.New(),
		EMIPerMonth:  decimal.NewFromInt(emi),
		StartDate:    start,
		TenureMonths: tenure,
		IsActive:     true,
		EMIHistory:   history,
	}
}

func newTenant(name string, shops ...*domain.Shop) *domain.Tenant {
	return &domain.Tenant{ID: uuid.New(), Name: name, Shops: shops}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual),
		append([]interface{}{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

// countingObserver records engine events for assertions.
type countingObserver struct {
	mu               sync.Mutex
	reconciliations  map[domain.DueKind]int
	policyViolations int
	duplicateRecords int
	invalidSchedules int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{reconciliations: map[domain.DueKind]int{}}
}

func (o *countingObserver) ObserveReconciliation(kind domain.DueKind, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reconciliations[kind]++
}

func (o *countingObserver) ObservePolicyViolation(domain.DueKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.policyViolations++
}

func (o *countingObserver) ObserveDuplicateRecord(domain.DueKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.duplicateRecords++
}

func (o *countingObserver) ObserveInvalidSchedule(domain.DueKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalidSchedules++
}
