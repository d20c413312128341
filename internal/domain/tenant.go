package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tenant represents a tenant entity with the shops currently allotted to it
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"tenantName" db:"tenant_name"`
	MobileNo  string    `json:"mobileNo" db:"mobile_no"`
	AdharNo   string    `json:"adharNo,omitempty" db:"adhar_no"`
	Shops     []*Shop   `json:"shopsAllotted" db:"-"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Shop represents a shop allotted to exactly one tenant
type Shop struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenantId" db:"tenant_id"`
	ShopNo        string          `json:"shopNo" db:"shop_no"`
	RentAmount    decimal.Decimal `json:"rentAmount" db:"rent_amount"`
	Deposit       decimal.Decimal `json:"deposit" db:"deposit"`
	AgreementDate time.Time       `json:"agreementDate" db:"agreement_date"`
	RentHistory   []PaymentRecord `json:"rentPaymentHistory" db:"-"`
	Loans         []*Loan         `json:"loans,omitempty" db:"-"`
}

// RentOrigin is the first period rent is owed for.
func (s *Shop) RentOrigin() Period {
	if s.AgreementDate.IsZero() {
		return Period{}
	}
	return PeriodOf(s.AgreementDate)
}

// ActiveLoans returns the shop's loans flagged active, in stored order.
func (s *Shop) ActiveLoans() []*Loan {
	var active []*Loan
	for _, loan := range s.Loans {
		if loan != nil && loan.IsActive {
			active = append(active, loan)
		}
	}
	return active
}

// FindShop returns the tenant's shop with the given number, or nil.
func (t *Tenant) FindShop(shopNo string) *Shop {
	for _, shop := range t.Shops {
		if shop != nil && shop.ShopNo == shopNo {
			return shop
		}
	}
	return nil
}

// ShopNumbers lists the allotted shop numbers in order.
func (t *Tenant) ShopNumbers() []string {
	numbers := make([]string, 0, len(t.Shops))
	for _, shop := range t.Shops {
		if shop != nil {
			numbers = append(numbers, shop.ShopNo)
		}
	}
	return numbers
}
