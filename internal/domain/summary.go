package domain

import "github.com/shopspring/decimal"

// PendingSummary aggregates unpaid dues for a shop, a tenant or the portfolio
type PendingSummary struct {
	PendingRent       decimal.Decimal `json:"totalPendingRent"`
	PendingEMI        decimal.Decimal `json:"totalPendingEmi"`
	RentPenalty       decimal.Decimal `json:"totalRentPenalty"`
	EMIPenalty        decimal.Decimal `json:"totalEmiPenalty"`
	UnpaidRentPeriods int             `json:"unpaidRentPeriods"`
	UnpaidEMIPeriods  int             `json:"unpaidEmiPeriods"`
}

// Penalty is the combined rent and EMI penalty.
func (s PendingSummary) Penalty() decimal.Decimal {
	return s.RentPenalty.Add(s.EMIPenalty)
}

// UnpaidPeriods counts unpaid rent and EMI periods together.
func (s PendingSummary) UnpaidPeriods() int {
	return s.UnpaidRentPeriods + s.UnpaidEMIPeriods
}

// Total is everything owed: dues plus penalties.
func (s PendingSummary) Total() decimal.Decimal {
	return s.PendingRent.Add(s.PendingEMI).Add(s.Penalty())
}

// HasPending reports whether at least one unpaid period of the given kind exists.
func (s PendingSummary) HasPending(kind DueKind) bool {
	switch kind {
	case DueKindRent:
		return s.UnpaidRentPeriods > 0
	case DueKindEMI:
		return s.UnpaidEMIPeriods > 0
	default:
		return s.UnpaidPeriods() > 0
	}
}

// AddStatus folds one classified period into the summary.
func (s *PendingSummary) AddStatus(st PeriodStatus) {
	if st.IsPaid() {
		return
	}
	switch st.Kind {
	case DueKindEMI:
		s.PendingEMI = s.PendingEMI.Add(st.Due)
		s.EMIPenalty = s.EMIPenalty.Add(st.Penalty)
		s.UnpaidEMIPeriods++
	default:
		s.PendingRent = s.PendingRent.Add(st.Due)
		s.RentPenalty = s.RentPenalty.Add(st.Penalty)
		s.UnpaidRentPeriods++
	}
}

// Merge adds another summary into s.
func (s *PendingSummary) Merge(o PendingSummary) {
	s.PendingRent = s.PendingRent.Add(o.PendingRent)
	s.PendingEMI = s.PendingEMI.Add(o.PendingEMI)
	s.RentPenalty = s.RentPenalty.Add(o.RentPenalty)
	s.EMIPenalty = s.EMIPenalty.Add(o.EMIPenalty)
	s.UnpaidRentPeriods += o.UnpaidRentPeriods
	s.UnpaidEMIPeriods += o.UnpaidEMIPeriods
}
