package reconcile

import (
	"sort"

	"github.com/segyhp/dues-engine/internal/domain"
	customError "github.com/segyhp/dues-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// indexLedger keys records by period. Records with an impossible period are
// skipped; when several records share a period one is picked deterministically
// (paid first, then one carrying a paid date, then the earliest in input order).
func indexLedger(subject string, records []domain.PaymentRecord) (map[domain.Period]domain.PaymentRecord, []error) {
	var warnings []error
	ledger := make(map[domain.Period]domain.PaymentRecord, len(records))
	counts := make(map[domain.Period]int)

	for _, rec := range records {
		if !rec.Period.Valid() {
			warnings = append(warnings, &customError.InvalidRecordPeriod{
				Subject: subject,
				Year:    rec.Year,
				Month:   int(rec.Month),
			})
			continue
		}
		counts[rec.Period]++
		current, seen := ledger[rec.Period]
		if !seen || preferRecord(rec, current) {
			ledger[rec.Period] = rec
		}
	}

	var dups []domain.Period
	for p, n := range counts {
		if n > 1 {
			dups = append(dups, p)
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].Before(dups[j]) })
	for _, p := range dups {
		warnings = append(warnings, &customError.DuplicatePeriodRecord{
			Subject:    subject,
			Period:     p.String(),
			Count:      counts[p],
			ChosenPaid: ledger[p].Paid,
		})
	}

	return ledger, warnings
}

func preferRecord(candidate, current domain.PaymentRecord) bool {
	if candidate.Paid != current.Paid {
		return candidate.Paid
	}
	return candidate.PaidDate != nil && current.PaidDate == nil
}

// Match classifies each scheduled period against the ledger:
//   - paid: a record exists with the paid flag set
//   - unpaid_recorded: a record exists without the paid flag
//   - unpaid_no_record: no record at all
//
// Paid periods carry the penalty recorded at payment time; unpaid periods get
// a zero penalty for ResolvePenalties to fill in. Records outside the schedule
// are ignored.
func Match(subject string, kind domain.DueKind, schedule []domain.Period, records []domain.PaymentRecord, due decimal.Decimal) ([]domain.PeriodStatus, []error) {
	ledger, warnings := indexLedger(subject, records)

	statuses := make([]domain.PeriodStatus, 0, len(schedule))
	for _, p := range schedule {
		st := domain.PeriodStatus{
			Period:  p,
			Kind:    kind,
			Due:     due,
			Penalty: decimal.Zero,
		}
		rec, ok := ledger[p]
		switch {
		case !ok:
			st.Status = domain.StatusUnpaidNoRecord
		case rec.Paid:
			st.Status = domain.StatusPaid
			st.Penalty = rec.Penalty
			st.PaidDate = rec.PaidDate
		default:
			st.Status = domain.StatusUnpaidRecorded
		}
		statuses = append(statuses, st)
	}

	return statuses, warnings
}
