package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(p, asOf time.Month, amount int64) PenaltyInput {
	return PenaltyInput{
		Period: period(2024, p),
		AsOf:   period(2024, asOf),
		Amount: decimal.NewFromInt(amount),
	}
}

func TestPenaltyInput_MonthsLate(t *testing.T) {
	assert.Equal(t, 0, input(time.April, time.April, 0).MonthsLate())
	assert.Equal(t, 3, input(time.January, time.April, 0).MonthsLate())
	assert.Equal(t, 0, input(time.June, time.April, 0).MonthsLate())
}

func TestFlatPolicy(t *testing.T) {
	policy := FlatPolicy{Amount: decimal.NewFromInt(200), GraceMonths: 1}

	assertDecimal(t, "0", policy.Penalty(input(time.April, time.April, 5000)))
	assertDecimal(t, "0", policy.Penalty(input(time.March, time.April, 5000)))
	assertDecimal(t, "200", policy.Penalty(input(time.February, time.April, 5000)))
	assertDecimal(t, "200", policy.Penalty(input(time.January, time.April, 5000)))
}

func TestPercentPolicy(t *testing.T) {
	policy := PercentPolicy{Rate: decimal.RequireFromString("0.02"), GraceMonths: 0}

	assertDecimal(t, "0", policy.Penalty(input(time.April, time.April, 5000)))
	assertDecimal(t, "100", policy.Penalty(input(time.March, time.April, 5000)))
	assertDecimal(t, "300", policy.Penalty(input(time.January, time.April, 5000)))
}

func TestCappedFlatPolicy(t *testing.T) {
	policy := CappedFlatPolicy{PerMonth: decimal.NewFromInt(200), CapPct: decimal.RequireFromString("0.10")}

	assertDecimal(t, "0", policy.Penalty(input(time.June, time.June, 5000)))
	assertDecimal(t, "400", policy.Penalty(input(time.April, time.June, 5000)))
	assertDecimal(t, "500", policy.Penalty(input(time.January, time.June, 5000)), "capped at 10% of rent")
}

func TestParseTablePolicy(t *testing.T) {
	data := []byte(`
tiers:
  - after_months: 3
    amount: "500"
  - after_months: 1
    amount: "150.50"
`)
	policy, err := ParseTablePolicy(data)
	require.NoError(t, err)
	require.Len(t, policy.Tiers, 2)
	assert.Equal(t, 1, policy.Tiers[0].AfterMonths, "tiers sorted by lateness")

	assertDecimal(t, "0", policy.Penalty(input(time.June, time.June, 5000)))
	assertDecimal(t, "150.50", policy.Penalty(input(time.April, time.June, 5000)))
	assertDecimal(t, "500", policy.Penalty(input(time.March, time.June, 5000)))
	assertDecimal(t, "500", policy.Penalty(input(time.January, time.June, 5000)))
}

func TestParseTablePolicy_Errors(t *testing.T) {
	_, err := ParseTablePolicy([]byte("tiers:\n  - after_months: 1\n    amount: lots\n"))
	assert.Error(t, err)

	_, err = ParseTablePolicy([]byte("tiers:\n  - after_months: -1\n    amount: \"1\"\n"))
	assert.Error(t, err)

	_, err = ParseTablePolicy([]byte("tiers: [unterminated"))
	assert.Error(t, err)
}

func TestNewPolicy(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "penalties.yaml")
	require.NoError(t, os.WriteFile(table, []byte("tiers:\n  - after_months: 2\n    amount: \"300\"\n"), 0o600))

	tests := []struct {
		name    string
		spec    PolicySpec
		want    interface{}
		wantErr bool
	}{
		{name: "default", spec: PolicySpec{}, want: ZeroPolicy{}},
		{name: "zero", spec: PolicySpec{Kind: PolicyZero}, want: ZeroPolicy{}},
		{name: "flat", spec: PolicySpec{Kind: PolicyFlat, FlatAmount: decimal.NewFromInt(100), GraceMonths: 2}, want: FlatPolicy{}},
		{name: "percent", spec: PolicySpec{Kind: PolicyPercent, Rate: decimal.RequireFromString("0.01")}, want: PercentPolicy{}},
		{name: "capped", spec: PolicySpec{Kind: PolicyCappedFlat}, want: CappedFlatPolicy{}},
		{name: "table", spec: PolicySpec{Kind: PolicyTable, TableFile: table}, want: TablePolicy{}},
		{name: "table without file", spec: PolicySpec{Kind: PolicyTable}, wantErr: true},
		{name: "missing table file", spec: PolicySpec{Kind: PolicyTable, TableFile: filepath.Join(dir, "nope.yaml")}, wantErr: true},
		{name: "unknown", spec: PolicySpec{Kind: "compound"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewPolicy(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, policy)
		})
	}
}
