package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan represents a loan given against a shop, repaid in monthly EMIs
type Loan struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ShopID       uuid.UUID       `json:"shopId" db:"shop_id"`
	Principal    decimal.Decimal `json:"loanAmount" db:"principal"`
	EMIPerMonth  decimal.Decimal `json:"emiPerMonth" db:"emi_per_month"`
	StartDate    time.Time       `json:"startDate" db:"start_date"`
	TenureMonths int             `json:"tenureMonths" db:"tenure_months"`
	IsActive     bool            `json:"isLoanActive" db:"is_active"`
	EMIHistory   []PaymentRecord `json:"emiPaymentHistory" db:"-"`
}

// Origin is the first period an EMI is owed for.
func (l *Loan) Origin() Period {
	if l.StartDate.IsZero() {
		return Period{}
	}
	return PeriodOf(l.StartDate)
}

// LastPeriod is the final obligated period, start + tenure - 1.
func (l *Loan) LastPeriod() Period {
	return l.Origin().AddMonths(l.TenureMonths - 1)
}
