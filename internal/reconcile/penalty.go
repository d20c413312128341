package reconcile

import (
	"math"
	"sort"
	"strconv"

	"github.com/segyhp/dues-engine/internal/domain"
	customError "github.com/segyhp/dues-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// ResolvePenalties attaches a policy penalty to every unpaid period, walking
// the periods in chronological order. Paid periods keep the penalty recorded
// when they were paid. Negative or non-finite policy results are clamped to
// zero and returned as PolicyViolation warnings. The input slice is not
// modified.
func ResolvePenalties(subject string, statuses []domain.PeriodStatus, policy PenaltyPolicy, asOf domain.Period) ([]domain.PeriodStatus, []error) {
	if policy == nil {
		policy = ZeroPolicy{}
	}

	resolved := make([]domain.PeriodStatus, len(statuses))
	copy(resolved, statuses)
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].Period.Before(resolved[j].Period)
	})

	var warnings []error
	priorUnpaid := 0
	for i := range resolved {
		st := &resolved[i]
		if st.IsPaid() {
			continue
		}

		in := PenaltyInput{
			Period:      st.Period,
			Amount:      st.Due,
			AsOf:        asOf,
			PriorUnpaid: priorUnpaid,
		}
		penalty, violation := evaluate(policy, in)
		if violation != "" {
			warnings = append(warnings, &customError.PolicyViolation{
				Subject: subject,
				Period:  st.Period.String(),
				Value:   violation,
			})
		}
		st.Penalty = penalty
		priorUnpaid++
	}

	return resolved, warnings
}

// evaluate runs the policy and returns the clamped penalty plus the offending
// raw value when it had to be clamped.
func evaluate(policy PenaltyPolicy, in PenaltyInput) (decimal.Decimal, string) {
	if fp, ok := policy.(floatPolicy); ok {
		v := fp.penaltyFloat(in)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return decimal.Zero, strconv.FormatFloat(v, 'f', -1, 64)
		}
		return decimal.NewFromFloat(v), ""
	}

	penalty := policy.Penalty(in)
	if penalty.IsNegative() {
		return decimal.Zero, penalty.String()
	}
	return penalty, ""
}
