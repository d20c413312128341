package report

import (
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"
)

// ShopPending is the reconciliation of one shop with its all-time summary
type ShopPending struct {
	Reconciliation *reconcile.ShopReconciliation `json:"reconciliation"`
	Summary        domain.PendingSummary         `json:"summary"`
	Warnings       []string                      `json:"warnings,omitempty"`
}

func NewShopPending(r *reconcile.ShopReconciliation) *ShopPending {
	result := &ShopPending{
		Reconciliation: r,
		Summary:        r.Summary(domain.AllPeriods()),
	}
	for _, w := range r.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}
	return result
}
