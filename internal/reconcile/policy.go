package reconcile

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/segyhp/dues-engine/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PenaltyInput is everything a penalty policy may look at for one unpaid period.
type PenaltyInput struct {
	Period domain.Period
	Amount decimal.Decimal
	AsOf   domain.Period
	// PriorUnpaid counts earlier unpaid periods of the same obligation.
	PriorUnpaid int
}

// MonthsLate is how far asOf is past the period; the as-of month itself is 0.
func (in PenaltyInput) MonthsLate() int {
	late := domain.MonthsBetween(in.Period, in.AsOf) - 1
	if late < 0 {
		return 0
	}
	return late
}

// PenaltyPolicy computes the late fee for one unpaid period. Implementations
// must be pure.
type PenaltyPolicy interface {
	Penalty(in PenaltyInput) decimal.Decimal
}

// PolicyFunc adapts a plain function to PenaltyPolicy.
type PolicyFunc func(in PenaltyInput) decimal.Decimal

func (f PolicyFunc) Penalty(in PenaltyInput) decimal.Decimal { return f(in) }

// FloatPolicyFunc adapts a float callback. NaN and infinities are reported as
// policy violations by ResolvePenalties.
type FloatPolicyFunc func(in PenaltyInput) float64

func (f FloatPolicyFunc) Penalty(in PenaltyInput) decimal.Decimal {
	v := f(in)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func (f FloatPolicyFunc) penaltyFloat(in PenaltyInput) float64 { return f(in) }

type floatPolicy interface {
	penaltyFloat(in PenaltyInput) float64
}

// ZeroPolicy never charges a penalty.
type ZeroPolicy struct{}

func (ZeroPolicy) Penalty(PenaltyInput) decimal.Decimal { return decimal.Zero }

// FlatPolicy charges Amount once a period is more than GraceMonths late.
type FlatPolicy struct {
	Amount      decimal.Decimal
	GraceMonths int
}

func (p FlatPolicy) Penalty(in PenaltyInput) decimal.Decimal {
	if in.MonthsLate() <= p.GraceMonths {
		return decimal.Zero
	}
	return p.Amount
}

// PercentPolicy charges Rate of the due amount for every month late beyond
// GraceMonths.
type PercentPolicy struct {
	Rate        decimal.Decimal
	GraceMonths int
}

func (p PercentPolicy) Penalty(in PenaltyInput) decimal.Decimal {
	months := in.MonthsLate() - p.GraceMonths
	if months <= 0 {
		return decimal.Zero
	}
	return in.Amount.Mul(p.Rate).Mul(decimal.NewFromInt(int64(months))).Round(2)
}

// CappedFlatPolicy charges PerMonth for every month late, capped at CapPct of
// the due amount.
type CappedFlatPolicy struct {
	PerMonth decimal.Decimal
	CapPct   decimal.Decimal
}

func (p CappedFlatPolicy) Penalty(in PenaltyInput) decimal.Decimal {
	months := in.MonthsLate()
	if months <= 0 {
		return decimal.Zero
	}
	raw := p.PerMonth.Mul(decimal.NewFromInt(int64(months)))
	limit := in.Amount.Mul(p.CapPct).Round(2)
	if limit.IsNegative() {
		limit = decimal.Zero
	}
	return decimal.Min(raw, limit)
}

// PenaltyTier charges Amount once a period is at least AfterMonths late.
type PenaltyTier struct {
	AfterMonths int             `yaml:"after_months"`
	Amount      decimal.Decimal `yaml:"-"`
	RawAmount   string          `yaml:"amount"`
}

// TablePolicy picks the highest tier the period has reached.
type TablePolicy struct {
	Tiers []PenaltyTier
}

func (p TablePolicy) Penalty(in PenaltyInput) decimal.Decimal {
	late := in.MonthsLate()
	penalty := decimal.Zero
	for _, tier := range p.Tiers {
		if late >= tier.AfterMonths {
			penalty = tier.Amount
		}
	}
	return penalty
}

type tableFile struct {
	Tiers []PenaltyTier `yaml:"tiers"`
}

// ParseTablePolicy reads a tier table:
//
//	tiers:
//	  - after_months: 1
//	    amount: "100"
func ParseTablePolicy(data []byte) (TablePolicy, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return TablePolicy{}, fmt.Errorf("parse penalty table: %w", err)
	}
	for i := range file.Tiers {
		tier := &file.Tiers[i]
		if tier.AfterMonths < 0 {
			return TablePolicy{}, fmt.Errorf("penalty tier %d: after_months must not be negative", i)
		}
		amount, err := decimal.NewFromString(tier.RawAmount)
		if err != nil {
			return TablePolicy{}, fmt.Errorf("penalty tier %d: %w", i, err)
		}
		tier.Amount = amount
	}
	sort.SliceStable(file.Tiers, func(i, j int) bool {
		return file.Tiers[i].AfterMonths < file.Tiers[j].AfterMonths
	})
	return TablePolicy{Tiers: file.Tiers}, nil
}

// LoadTablePolicy reads a tier table from disk.
func LoadTablePolicy(path string) (TablePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TablePolicy{}, fmt.Errorf("read penalty table: %w", err)
	}
	return ParseTablePolicy(data)
}

// Policy kinds accepted by NewPolicy.
const (
	PolicyZero       = "zero"
	PolicyFlat       = "flat"
	PolicyPercent    = "percent"
	PolicyCappedFlat = "capped_flat"
	PolicyTable      = "table"
)

// PolicySpec describes a configured penalty policy.
type PolicySpec struct {
	Kind        string
	FlatAmount  decimal.Decimal
	Rate        decimal.Decimal
	CapPct      decimal.Decimal
	GraceMonths int
	TableFile   string
}

// NewPolicy builds the configured penalty policy.
func NewPolicy(spec PolicySpec) (PenaltyPolicy, error) {
	switch spec.Kind {
	case "", PolicyZero:
		return ZeroPolicy{}, nil
	case PolicyFlat:
		return FlatPolicy{Amount: spec.FlatAmount, GraceMonths: spec.GraceMonths}, nil
	case PolicyPercent:
		return PercentPolicy{Rate: spec.Rate, GraceMonths: spec.GraceMonths}, nil
	case PolicyCappedFlat:
		return CappedFlatPolicy{PerMonth: spec.FlatAmount, CapPct: spec.CapPct}, nil
	case PolicyTable:
		if spec.TableFile == "" {
			return nil, fmt.Errorf("penalty policy %q needs a table file", spec.Kind)
		}
		return LoadTablePolicy(spec.TableFile)
	default:
		return nil, fmt.Errorf("unknown penalty policy %q", spec.Kind)
	}
}
