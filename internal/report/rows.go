package report

import (
	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"

	"github.com/shopspring/decimal"
)

// TenantRow is one line of the tenant list
type TenantRow struct {
	TenantID          uuid.UUID       `json:"tenantId"`
	TenantName        string          `json:"tenantName"`
	ShopNos           []string        `json:"shopNos"`
	PendingRent       decimal.Decimal `json:"pendingRent"`
	PendingEMI        decimal.Decimal `json:"pendingEmi"`
	Penalty           decimal.Decimal `json:"penalty"`
	Total             decimal.Decimal `json:"total"`
	UnpaidRentPeriods int             `json:"unpaidRentPeriods"`
	UnpaidEMIPeriods  int             `json:"unpaidEmiPeriods"`
}

func newTenantRow(res reconcile.TenantResult) TenantRow {
	s := res.Summary
	return TenantRow{
		TenantID:          res.TenantID,
		TenantName:        res.TenantName,
		ShopNos:           res.ShopNos,
		PendingRent:       s.PendingRent,
		PendingEMI:        s.PendingEMI,
		Penalty:           s.Penalty(),
		Total:             s.Total(),
		UnpaidRentPeriods: s.UnpaidRentPeriods,
		UnpaidEMIPeriods:  s.UnpaidEMIPeriods,
	}
}

// TenantRows projects the portfolio results that have something pending of
// the given kind, in portfolio order.
func TenantRows(results []reconcile.TenantResult, kind domain.DueKind) []TenantRow {
	rows := make([]TenantRow, 0, len(results))
	for _, res := range results {
		if !res.Summary.HasPending(kind) {
			continue
		}
		rows = append(rows, newTenantRow(res))
	}
	return rows
}
