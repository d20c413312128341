package reconcile

import (
	"github.com/segyhp/dues-engine/internal/domain"
	customError "github.com/segyhp/dues-engine/pkg/errors"
)

// RentSchedule returns every period from origin through asOf inclusive. A
// shop whose agreement starts after asOf owes nothing yet and gets an empty
// schedule.
func RentSchedule(subject string, origin, asOf domain.Period) ([]domain.Period, error) {
	if !origin.Valid() {
		return nil, &customError.InvalidScheduleError{
			Subject: subject,
			Origin:  origin.String(),
			Reason:  "missing or malformed start period",
		}
	}
	return span(origin, asOf), nil
}

// LoanSchedule returns the EMI periods from origin through
// min(asOf, origin+tenure-1). Tenure, not asOf, bounds a loan.
func LoanSchedule(subject string, origin domain.Period, tenure int, asOf domain.Period) ([]domain.Period, error) {
	if tenure <= 0 {
		return nil, &customError.InvalidScheduleError{
			Subject: subject,
			Origin:  origin.String(),
			Tenure:  tenure,
			Reason:  "tenure must be positive",
		}
	}
	if !origin.Valid() {
		return nil, &customError.InvalidScheduleError{
			Subject: subject,
			Origin:  origin.String(),
			Tenure:  tenure,
			Reason:  "missing or malformed start period",
		}
	}
	last := asOf
	if tenure <= domain.MonthsBetween(origin, asOf) {
		last = origin.AddMonths(tenure - 1)
	}
	return span(origin, last), nil
}

func span(from, to domain.Period) []domain.Period {
	n := domain.MonthsBetween(from, to)
	periods := make([]domain.Period, 0, n)
	for i := 0; i < n; i++ {
		periods = append(periods, from.AddMonths(i))
	}
	return periods
}
