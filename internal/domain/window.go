package domain

import "time"

// Window is an inclusive range of periods. A zero bound is open.
type Window struct {
	From Period `json:"from"`
	To   Period `json:"to"`
}

// AllPeriods is the unbounded window.
func AllPeriods() Window {
	return Window{}
}

// YearWindow covers January to December of year.
func YearWindow(year int) Window {
	return Window{From: NewPeriod(year, time.January), To: NewPeriod(year, time.December)}
}

// MonthWindow covers the single period p.
func MonthWindow(p Period) Window {
	return Window{From: p, To: p}
}

// LastMonth is the calendar month before asOf.
func LastMonth(asOf Period) Window {
	return MonthWindow(asOf.AddMonths(-1))
}

// Contains reports whether p falls inside the window.
func (w Window) Contains(p Period) bool {
	if !w.From.IsZero() && p.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && p.After(w.To) {
		return false
	}
	return true
}
