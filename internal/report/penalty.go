package report

import (
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"
	"github.com/segyhp/dues-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// PenaltyDetail is one pending period shown before a payment is entered
type PenaltyDetail struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Due     decimal.Decimal `json:"due"`
	Penalty decimal.Decimal `json:"penalty"`
	IsPaid  bool            `json:"isPaid"`
	Type    domain.DueKind  `json:"type"`
}

// PenaltyPreview lists the pending rent and EMI periods of one shop with the
// penalty each would carry if paid now
type PenaltyPreview struct {
	ShopNo             string          `json:"shopNo"`
	AsOf               domain.Period   `json:"asOf"`
	HasPenalty         bool            `json:"hasPenalty"`
	RentPenaltyDetails []PenaltyDetail `json:"rentPenaltyDetails"`
	EMIPenaltyDetails  []PenaltyDetail `json:"emiPenaltyDetails"`
	TotalRentPenalty   decimal.Decimal `json:"totalRentPenalty"`
	TotalEMIPenalty    decimal.Decimal `json:"totalEmiPenalty"`
}

// NewPenaltyPreview builds the preview; rent and emi choose which sections
// are filled, matching the pay-rent and pay-EMI toggles of the payment form.
func NewPenaltyPreview(r *reconcile.ShopReconciliation, rent, emi bool) PenaltyPreview {
	preview := PenaltyPreview{
		ShopNo:             r.ShopNo,
		AsOf:               r.AsOf,
		RentPenaltyDetails: []PenaltyDetail{},
		EMIPenaltyDetails:  []PenaltyDetail{},
		TotalRentPenalty:   decimal.Zero,
		TotalEMIPenalty:    decimal.Zero,
	}

	if rent {
		preview.RentPenaltyDetails, preview.TotalRentPenalty = penaltyDetails(r.Rent)
	}
	if emi {
		for _, o := range r.EMIs {
			details, total := penaltyDetails(o)
			preview.EMIPenaltyDetails = append(preview.EMIPenaltyDetails, details...)
			preview.TotalEMIPenalty = preview.TotalEMIPenalty.Add(total)
		}
	}

	preview.HasPenalty = utils.SumDecimals(preview.TotalRentPenalty, preview.TotalEMIPenalty).IsPositive()
	return preview
}

func penaltyDetails(o reconcile.Obligation) ([]PenaltyDetail, decimal.Decimal) {
	details := []PenaltyDetail{}
	total := decimal.Zero
	for _, st := range o.Unpaid() {
		details = append(details, PenaltyDetail{
			Year:    st.Period.Year,
			Month:   int(st.Period.Month),
			Due:     st.Due,
			Penalty: st.Penalty,
			IsPaid:  false,
			Type:    o.Kind,
		})
		total = total.Add(st.Penalty)
	}
	return details, total
}
