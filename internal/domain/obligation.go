package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationStatus classifies one scheduled period against the ledger
type ObligationStatus string

const (
	StatusPaid           ObligationStatus = "paid"
	StatusUnpaidNoRecord ObligationStatus = "unpaid_no_record"
	StatusUnpaidRecorded ObligationStatus = "unpaid_recorded"
)

// DueKind selects which obligations a query looks at
type DueKind string

const (
	DueKindRent   DueKind = "rent"
	DueKindEMI    DueKind = "emi"
	DueKindEither DueKind = "either"
)

// Matches reports whether an obligation of kind k satisfies the filter f.
func (f DueKind) Matches(k DueKind) bool {
	return f == DueKindEither || f == k
}

// PeriodStatus is a classified period with its due amount and penalty
type PeriodStatus struct {
	Period   Period           `json:"period"`
	Kind     DueKind          `json:"kind"`
	Status   ObligationStatus `json:"status"`
	Due      decimal.Decimal  `json:"due"`
	Penalty  decimal.Decimal  `json:"penalty"`
	PaidDate *time.Time       `json:"paidDate,omitempty"`
}

func (s PeriodStatus) IsPaid() bool {
	return s.Status == StatusPaid
}

// Outstanding is what is still owed for the period: zero once paid.
func (s PeriodStatus) Outstanding() decimal.Decimal {
	if s.IsPaid() {
		return decimal.Zero
	}
	return s.Due.Add(s.Penalty)
}
