package domain

import (
	"fmt"
	"time"
)

// Period is a single monthly obligation unit. Periods are compared, never
// converted back to dates, so month length and timezone never leak in.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod builds a period from a year and a 1-12 month.
func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// PeriodOf returns the period containing t, read in t's own location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// Valid reports whether the month is in 1-12 and the year is set.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

// IsZero reports whether p is the zero period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) index() int {
	return p.Year*12 + int(p.Month) - 1
}

func periodFromIndex(i int) Period {
	return Period{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// Compare returns -1, 0 or +1 ordering a and b by year then month.
func Compare(a, b Period) int {
	switch ai, bi := a.index(), b.index(); {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}

func (p Period) Before(o Period) bool { return Compare(p, o) < 0 }
func (p Period) After(o Period) bool  { return Compare(p, o) > 0 }
func (p Period) Equal(o Period) bool  { return Compare(p, o) == 0 }

// AddMonths shifts p by n months; n may be negative.
func (p Period) AddMonths(n int) Period {
	return periodFromIndex(p.index() + n)
}

// MonthsBetween counts the periods from a to b inclusive. It is 0 when b
// precedes a.
func MonthsBetween(a, b Period) int {
	n := b.index() - a.index() + 1
	if n < 0 {
		return 0
	}
	return n
}

// MinPeriod returns the earlier of a and b.
func MinPeriod(a, b Period) Period {
	if b.Before(a) {
		return b
	}
	return a
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
