package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPendingSummary_AddStatus(t *testing.T) {
	var s PendingSummary

	s.AddStatus(PeriodStatus{Kind: DueKindRent, Status: StatusPaid, Due: decimal.NewFromInt(5000), Penalty: decimal.NewFromInt(50)})
	s.AddStatus(PeriodStatus{Kind: DueKindRent, Status: StatusUnpaidNoRecord, Due: decimal.NewFromInt(5000), Penalty: decimal.NewFromInt(100)})
	s.AddStatus(PeriodStatus{Kind: DueKindEMI, Status: StatusUnpaidRecorded, Due: decimal.NewFromInt(2000), Penalty: decimal.Zero})

	assert.True(t, s.PendingRent.Equal(decimal.NewFromInt(5000)))
	assert.True(t, s.PendingEMI.Equal(decimal.NewFromInt(2000)))
	assert.True(t, s.Penalty().Equal(decimal.NewFromInt(100)))
	assert.True(t, s.Total().Equal(decimal.NewFromInt(7100)))
	assert.Equal(t, 1, s.UnpaidRentPeriods)
	assert.Equal(t, 1, s.UnpaidEMIPeriods)
	assert.Equal(t, 2, s.UnpaidPeriods())
}

func TestPendingSummary_HasPending(t *testing.T) {
	rentOnly := PendingSummary{UnpaidRentPeriods: 2}

	assert.True(t, rentOnly.HasPending(DueKindRent))
	assert.False(t, rentOnly.HasPending(DueKindEMI))
	assert.True(t, rentOnly.HasPending(DueKindEither))
	assert.False(t, PendingSummary{}.HasPending(DueKindEither))
}

func TestPendingSummary_Merge(t *testing.T) {
	a := PendingSummary{PendingRent: decimal.NewFromInt(100), UnpaidRentPeriods: 1}
	b := PendingSummary{PendingEMI: decimal.NewFromInt(40), EMIPenalty: decimal.NewFromInt(4), UnpaidEMIPeriods: 2}

	a.Merge(b)

	assert.True(t, a.Total().Equal(decimal.NewFromInt(144)))
	assert.Equal(t, 3, a.UnpaidPeriods())
}

func TestDueKind_Matches(t *testing.T) {
	assert.True(t, DueKindEither.Matches(DueKindRent))
	assert.True(t, DueKindEither.Matches(DueKindEMI))
	assert.True(t, DueKindRent.Matches(DueKindRent))
	assert.False(t, DueKindRent.Matches(DueKindEMI))
}

func TestWindow(t *testing.T) {
	asOf := NewPeriod(2025, time.January)

	last := LastMonth(asOf)
	assert.True(t, last.Contains(NewPeriod(2024, time.December)))
	assert.False(t, last.Contains(asOf))

	year := YearWindow(2025)
	assert.True(t, year.Contains(NewPeriod(2025, time.January)))
	assert.True(t, year.Contains(NewPeriod(2025, time.December)))
	assert.False(t, year.Contains(NewPeriod(2024, time.December)))
	assert.False(t, year.Contains(NewPeriod(2026, time.January)))

	assert.True(t, AllPeriods().Contains(NewPeriod(1999, time.May)))
}

func TestShopHelpers(t *testing.T) {
	shop := &Shop{
		ShopNo:        "A-1",
		AgreementDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Loans: []*Loan{
			{IsActive: true},
			{IsActive: false},
			nil,
			{IsActive: true},
		},
	}
	tenant := &Tenant{Shops: []*Shop{shop, nil}}

	assert.Equal(t, NewPeriod(2024, time.March), shop.RentOrigin())
	assert.Len(t, shop.ActiveLoans(), 2)
	assert.Same(t, shop, tenant.FindShop("A-1"))
	assert.Nil(t, tenant.FindShop("B-9"))
	assert.Equal(t, []string{"A-1"}, tenant.ShopNumbers())
	assert.True(t, (&Shop{}).RentOrigin().IsZero())
}

func TestLoanPeriods(t *testing.T) {
	loan := &Loan{StartDate: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), TenureMonths: 3}

	assert.Equal(t, NewPeriod(2024, time.November), loan.Origin())
	assert.Equal(t, NewPeriod(2025, time.January), loan.LastPeriod())
}
