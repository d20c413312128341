package utils

import "github.com/shopspring/decimal"

// CalculateMonthlyEMI splits a loan principal evenly over its tenure.
// Formula: Principal / TenureMonths, rounded to 2 places.
func CalculateMonthlyEMI(principal decimal.Decimal, tenureMonths int) decimal.Decimal {
	if tenureMonths <= 0 {
		return decimal.Zero
	}
	return principal.Div(decimal.NewFromInt(int64(tenureMonths))).Round(2)
}

// SumDecimals adds all values together.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
