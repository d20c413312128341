package reconcile

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"
	customError "github.com/segyhp/dues-engine/pkg/errors"
	"github.com/segyhp/dues-engine/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Obligation is one reconciled rent or EMI stream
type Obligation struct {
	Kind     domain.DueKind        `json:"kind"`
	ShopNo   string                `json:"shopNo"`
	LoanID   *uuid.UUID            `json:"loanId,omitempty"`
	Due      decimal.Decimal       `json:"due"`
	Periods  []domain.PeriodStatus `json:"periods"`
	// Warnings are record problems found while settling, such as duplicates
	// or clamped penalties.
	Warnings []error               `json:"-"`
}

// Summary totals the unpaid periods inside the window.
func (o *Obligation) Summary(w domain.Window) domain.PendingSummary {
	var s domain.PendingSummary
	for _, st := range o.Periods {
		if w.Contains(st.Period) {
			s.AddStatus(st)
		}
	}
	return s
}

// Unpaid returns the unpaid periods in chronological order.
func (o *Obligation) Unpaid() []domain.PeriodStatus {
	var unpaid []domain.PeriodStatus
	for _, st := range o.Periods {
		if !st.IsPaid() {
			unpaid = append(unpaid, st)
		}
	}
	return unpaid
}

// HasPayment reports whether any scheduled period has been paid.
func (o *Obligation) HasPayment() bool {
	for _, st := range o.Periods {
		if st.IsPaid() {
			return true
		}
	}
	return false
}

// ShopReconciliation is the rent obligation plus every active loan of a shop
type ShopReconciliation struct {
	ShopID   uuid.UUID     `json:"shopId"`
	ShopNo   string        `json:"shopNo"`
	AsOf     domain.Period `json:"asOf"`
	Rent     Obligation    `json:"rent"`
	EMIs     []Obligation  `json:"emis"`
	Warnings []error       `json:"-"`
}

// Summary totals rent and EMI dues inside the window.
func (r *ShopReconciliation) Summary(w domain.Window) domain.PendingSummary {
	s := r.Rent.Summary(w)
	for i := range r.EMIs {
		s.Merge(r.EMIs[i].Summary(w))
	}
	return s
}

// Obligations lists the rent obligation followed by the EMI obligations.
func (r *ShopReconciliation) Obligations() []*Obligation {
	all := []*Obligation{&r.Rent}
	for i := range r.EMIs {
		all = append(all, &r.EMIs[i])
	}
	return all
}

// YearTotals are the dashboard figures for one calendar year
type YearTotals struct {
	Year               int             `json:"year"`
	TotalPendingRent   decimal.Decimal `json:"totalPendingRent"`
	TotalPendingEMI    decimal.Decimal `json:"totalPendingEmi"`
	TotalPenalty       decimal.Decimal `json:"totalPenalty"`
	TenantsWithPending int             `json:"tenantsWithPending"`
}

// AwaitingPayment is an obligation that is due but has never been paid
type AwaitingPayment struct {
	TenantID      uuid.UUID      `json:"tenantId"`
	TenantName    string         `json:"tenantName"`
	ShopNo        string         `json:"shopNo"`
	Kind          domain.DueKind `json:"kind"`
	LoanID        *uuid.UUID     `json:"loanId,omitempty"`
	Since         domain.Period  `json:"since"`
	UnpaidPeriods int            `json:"unpaidPeriods"`
}

func rentSubject(shop *domain.Shop) string {
	return fmt.Sprintf("shop %s rent", shop.ShopNo)
}

func loanSubject(shop *domain.Shop, loan *domain.Loan) string {
	return fmt.Sprintf("shop %s loan %s", shop.ShopNo, loan.ID)
}

// ReconcileRent classifies and prices every rent period of the shop up to asOf.
func (e *Engine) ReconcileRent(shop *domain.Shop, asOf domain.Period, policy PenaltyPolicy) (*Obligation, error) {
	if err := checkAsOf(asOf); err != nil {
		return nil, err
	}
	subject := rentSubject(shop)
	if !shop.RentAmount.IsPositive() {
		return nil, e.invalid(domain.DueKindRent, &customError.InvalidScheduleError{
			Subject: subject,
			Origin:  shop.RentOrigin().String(),
			Reason:  "rent amount must be positive",
		})
	}

	schedule, err := RentSchedule(subject, shop.RentOrigin(), asOf)
	if err != nil {
		return nil, e.invalid(domain.DueKindRent, err)
	}

	return e.settle(subject, domain.DueKindRent, schedule, shop.RentHistory, shop.RentAmount, asOf, policy, &Obligation{
		Kind:   domain.DueKindRent,
		ShopNo: shop.ShopNo,
		Due:    shop.RentAmount,
	}), nil
}

// ReconcileLoan classifies and prices every EMI period of the loan up to
// min(asOf, last tenure period).
func (e *Engine) ReconcileLoan(shop *domain.Shop, loan *domain.Loan, asOf domain.Period, policy PenaltyPolicy) (*Obligation, error) {
	if err := checkAsOf(asOf); err != nil {
		return nil, err
	}
	subject := loanSubject(shop, loan)

	schedule, err := LoanSchedule(subject, loan.Origin(), loan.TenureMonths, asOf)
	if err != nil {
		return nil, e.invalid(domain.DueKindEMI, err)
	}

	emi := loan.EMIPerMonth
	if !emi.IsPositive() {
		emi = utils.CalculateMonthlyEMI(loan.Principal, loan.TenureMonths)
	}
	if !emi.IsPositive() {
		return nil, e.invalid(domain.DueKindEMI, &customError.InvalidScheduleError{
			Subject: subject,
			Origin:  loan.Origin().String(),
			Tenure:  loan.TenureMonths,
			Reason:  "no EMI amount and no principal to derive it from",
		})
	}

	loanID := loan.ID
	return e.settle(subject, domain.DueKindEMI, schedule, loan.EMIHistory, emi, asOf, policy, &Obligation{
		Kind:   domain.DueKindEMI,
		ShopNo: shop.ShopNo,
		LoanID: &loanID,
		Due:    emi,
	}), nil
}

func (e *Engine) settle(
	subject string,
	kind domain.DueKind,
	schedule []domain.Period,
	history []domain.PaymentRecord,
	due decimal.Decimal,
	asOf domain.Period,
	policy PenaltyPolicy,
	out *Obligation,
) *Obligation {
	statuses, matchWarnings := Match(subject, kind, schedule, history, due)
	resolved, penaltyWarnings := ResolvePenalties(subject, statuses, policy, asOf)

	e.report(kind, matchWarnings)
	e.report(kind, penaltyWarnings)
	e.observer.ObserveReconciliation(kind, len(resolved))

	out.Periods = resolved
	out.Warnings = append(matchWarnings, penaltyWarnings...)
	return out
}

// ReconcileShop reconciles the shop's rent and every active loan. More than
// one active loan is allowed and summed, but reported as a warning.
func (e *Engine) ReconcileShop(shop *domain.Shop, asOf domain.Period, policy PenaltyPolicy) (*ShopReconciliation, error) {
	rent, err := e.ReconcileRent(shop, asOf, policy)
	if err != nil {
		return nil, err
	}

	result := &ShopReconciliation{
		ShopID: shop.ID,
		ShopNo: shop.ShopNo,
		AsOf:   asOf,
		Rent:   *rent,
	}
	result.Warnings = append(result.Warnings, rent.Warnings...)

	active := shop.ActiveLoans()
	if len(active) > 1 {
		w := &customError.MultipleActiveLoans{ShopNo: shop.ShopNo, Count: len(active)}
		result.Warnings = append(result.Warnings, w)
		e.logger.Warn("shop has more than one active loan",
			zap.String("shop_no", shop.ShopNo),
			zap.Int("active_loans", len(active)),
		)
	}

	for _, loan := range active {
		emi, err := e.ReconcileLoan(shop, loan, asOf, policy)
		if err != nil {
			return nil, err
		}
		result.EMIs = append(result.EMIs, *emi)
		result.Warnings = append(result.Warnings, emi.Warnings...)
	}

	return result, nil
}

// PendingForShop sums the shop's unpaid rent, EMI and penalties inside the window.
func (e *Engine) PendingForShop(shop *domain.Shop, asOf domain.Period, policy PenaltyPolicy, window domain.Window) (domain.PendingSummary, error) {
	r, err := e.ReconcileShop(shop, asOf, policy)
	if err != nil {
		return domain.PendingSummary{}, err
	}
	return r.Summary(window), nil
}

// PendingForTenant sums PendingForShop across the tenant's shops.
func (e *Engine) PendingForTenant(tenant *domain.Tenant, asOf domain.Period, policy PenaltyPolicy, window domain.Window) (domain.PendingSummary, error) {
	if err := checkAsOf(asOf); err != nil {
		return domain.PendingSummary{}, err
	}

	var total domain.PendingSummary
	for _, shop := range tenant.Shops {
		if shop == nil {
			continue
		}
		s, err := e.PendingForShop(shop, asOf, policy, window)
		if err != nil {
			return domain.PendingSummary{}, fmt.Errorf("tenant %s: %w", tenant.ID, err)
		}
		total.Merge(s)
	}
	return total, nil
}

// ShopsAwaitingFirstPayment lists rent and EMI obligations that are already
// due but have no paid period at all, such as newly allotted shops.
func (e *Engine) ShopsAwaitingFirstPayment(tenants []*domain.Tenant, asOf domain.Period) ([]AwaitingPayment, error) {
	var awaiting []AwaitingPayment
	for _, tenant := range tenants {
		if tenant == nil {
			continue
		}
		for _, shop := range tenant.Shops {
			if shop == nil {
				continue
			}
			r, err := e.ReconcileShop(shop, asOf, ZeroPolicy{})
			if err != nil {
				return nil, fmt.Errorf("tenant %s: %w", tenant.ID, err)
			}
			for _, o := range r.Obligations() {
				if len(o.Periods) == 0 || o.HasPayment() {
					continue
				}
				awaiting = append(awaiting, AwaitingPayment{
					TenantID:      tenant.ID,
					TenantName:    tenant.Name,
					ShopNo:        shop.ShopNo,
					Kind:          o.Kind,
					LoanID:        o.LoanID,
					Since:         o.Periods[0].Period,
					UnpaidPeriods: len(o.Periods),
				})
			}
		}
	}
	return awaiting, nil
}
