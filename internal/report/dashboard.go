// Package report projects reconciliation results into the shapes the console
// shows: dashboard cards, tenant rows, detail pages, payment previews and the
// xlsx export. It holds no business rules of its own.
package report

import (
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"

	"github.com/shopspring/decimal"
)

// DashboardCards are the headline figures of the dashboard
type DashboardCards struct {
	AsOf                   domain.Period         `json:"asOf"`
	TotalTenants           int                   `json:"totalTenants"`
	TenantsWithPendingRent int                   `json:"tenantsWithPendingRent"`
	TenantsWithPendingEMI  int                   `json:"tenantsWithPendingEmi"`
	TenantsUnpaidLastMonth int                   `json:"tenantsUnpaidLastMonth"`
	TotalPendingRent       decimal.Decimal       `json:"totalPendingRent"`
	TotalPendingEMI        decimal.Decimal       `json:"totalPendingEmi"`
	TotalPenalty           decimal.Decimal       `json:"totalPenalty"`
	FailedTenants          int                   `json:"failedTenants"`
	Year                   *reconcile.YearTotals `json:"yearTotals,omitempty"`
}

// NewDashboardCards builds the cards from an all-periods portfolio report.
// year is optional.
func NewDashboardCards(portfolio *reconcile.PortfolioReport, unpaidLastMonth int, year *reconcile.YearTotals) DashboardCards {
	cards := DashboardCards{
		AsOf:                   portfolio.AsOf,
		TotalTenants:           len(portfolio.Results) + len(portfolio.Failures),
		TenantsUnpaidLastMonth: unpaidLastMonth,
		TotalPendingRent:       portfolio.Totals.PendingRent,
		TotalPendingEMI:        portfolio.Totals.PendingEMI,
		TotalPenalty:           portfolio.Totals.Penalty(),
		FailedTenants:          len(portfolio.Failures),
		Year:                   year,
	}
	for _, res := range portfolio.Results {
		if res.Summary.HasPending(domain.DueKindRent) {
			cards.TenantsWithPendingRent++
		}
		if res.Summary.HasPending(domain.DueKindEMI) {
			cards.TenantsWithPendingEMI++
		}
	}
	return cards
}
