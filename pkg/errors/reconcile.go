package errors

import "fmt"

// InvalidScheduleError reports an obligation whose schedule cannot be generated,
// typically a loan with a non-positive tenure or a missing start date. It is not
// retryable: the underlying record has to be corrected.
type InvalidScheduleError struct {
	Subject string
	Origin  string
	Tenure  int
	Reason  string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule for %s (origin %s, tenure %d): %s", e.Subject, e.Origin, e.Tenure, e.Reason)
}

func (e *InvalidScheduleError) Is(target error) bool {
	return target == ErrInvalidSchedule
}

// PolicyViolation records a penalty policy result that had to be clamped to zero.
type PolicyViolation struct {
	Subject string
	Period  string
	Value   string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("penalty policy returned %s for %s %s, clamped to 0", e.Value, e.Subject, e.Period)
}

func (e *PolicyViolation) Is(target error) bool {
	return target == ErrPolicyViolation
}

// DuplicatePeriodRecord reports more than one ledger entry for the same period.
type DuplicatePeriodRecord struct {
	Subject    string
	Period     string
	Count      int
	ChosenPaid bool
}

func (e *DuplicatePeriodRecord) Error() string {
	return fmt.Sprintf("%d records for %s %s, using paid=%t entry", e.Count, e.Subject, e.Period, e.ChosenPaid)
}

func (e *DuplicatePeriodRecord) Is(target error) bool {
	return target == ErrDuplicatePeriodRecord
}

// InvalidRecordPeriod reports a ledger entry whose period is not a real month.
type InvalidRecordPeriod struct {
	Subject string
	Year    int
	Month   int
}

func (e *InvalidRecordPeriod) Error() string {
	return fmt.Sprintf("record for %s has invalid period %04d-%02d, skipped", e.Subject, e.Year, e.Month)
}

func (e *InvalidRecordPeriod) Is(target error) bool {
	return target == ErrInvalidPeriod
}

// MultipleActiveLoans reports a shop carrying more than one active loan.
type MultipleActiveLoans struct {
	ShopNo string
	Count  int
}

func (e *MultipleActiveLoans) Error() string {
	return fmt.Sprintf("shop %s has %d active loans, all are reconciled", e.ShopNo, e.Count)
}

func (e *MultipleActiveLoans) Is(target error) bool {
	return target == ErrMultipleActiveLoans
}
