package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"

	"github.com/shopspring/decimal"
)

// LoanDetail is the EMI section of a shop on the tenant detail page
type LoanDetail struct {
	LoanID      *uuid.UUID            `json:"loanId,omitempty"`
	EMIPerMonth decimal.Decimal       `json:"emiPerMonth"`
	Scheduled   int                   `json:"scheduledPeriods"`
	RecentEMI   []domain.PeriodStatus `json:"recentEmiHistory"`
	Summary     domain.PendingSummary `json:"summary"`
}

// ShopDetail is one shop on the tenant detail page
type ShopDetail struct {
	ShopNo        string                `json:"shopNo"`
	RentAmount    decimal.Decimal       `json:"rentAmount"`
	AgreementDate time.Time             `json:"agreementDate"`
	RecentRent    []domain.PeriodStatus `json:"recentRentHistory"`
	Loans         []LoanDetail          `json:"loans"`
	Summary       domain.PendingSummary `json:"summary"`
}

// TenantDetail is the tenant detail page
type TenantDetail struct {
	TenantID   uuid.UUID             `json:"tenantId"`
	TenantName string                `json:"tenantName"`
	MobileNo   string                `json:"mobileNo"`
	AsOf       domain.Period         `json:"asOf"`
	Summary    domain.PendingSummary `json:"summary"`
	Shops      []ShopDetail          `json:"shops"`
}

// NewTenantDetail lays out the reconciled shops of a tenant with the last
// historyLen periods of every obligation.
func NewTenantDetail(tenant *domain.Tenant, asOf domain.Period, shops []*reconcile.ShopReconciliation, historyLen int) TenantDetail {
	detail := TenantDetail{
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		MobileNo:   tenant.MobileNo,
		AsOf:       asOf,
		Shops:      make([]ShopDetail, 0, len(shops)),
	}

	all := domain.AllPeriods()
	for _, r := range shops {
		sd := ShopDetail{
			ShopNo:     r.ShopNo,
			RentAmount: r.Rent.Due,
			RecentRent: RecentHistory(r.Rent.Periods, historyLen),
			Loans:      make([]LoanDetail, 0, len(r.EMIs)),
			Summary:    r.Summary(all),
		}
		if shop := tenant.FindShop(r.ShopNo); shop != nil {
			sd.AgreementDate = shop.AgreementDate
		}
		for i := range r.EMIs {
			o := &r.EMIs[i]
			sd.Loans = append(sd.Loans, LoanDetail{
				LoanID:      o.LoanID,
				EMIPerMonth: o.Due,
				Scheduled:   len(o.Periods),
				RecentEMI:   RecentHistory(o.Periods, historyLen),
				Summary:     o.Summary(all),
			})
		}
		detail.Summary.Merge(sd.Summary)
		detail.Shops = append(detail.Shops, sd)
	}

	return detail
}
