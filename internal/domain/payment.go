package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is one entry of a sparse rent or EMI ledger. The owning
// collection (Shop.RentHistory or Loan.EMIHistory) decides which it is.
type PaymentRecord struct {
	Period
	Paid     bool            `json:"isPaid"`
	PaidDate *time.Time      `json:"paidDate,omitempty"`
	Penalty  decimal.Decimal `json:"penalty"`
	Amount   decimal.Decimal `json:"amount"`
}
