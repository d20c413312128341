package report

import (
	"sort"

	"github.com/segyhp/dues-engine/internal/domain"
)

// DefaultHistoryLength is how many periods the tenant detail page shows.
const DefaultHistoryLength = 5

// RecentHistory returns the n most recent periods, newest first.
func RecentHistory(statuses []domain.PeriodStatus, n int) []domain.PeriodStatus {
	if n <= 0 || len(statuses) == 0 {
		return []domain.PeriodStatus{}
	}

	sorted := make([]domain.PeriodStatus, len(statuses))
	copy(sorted, statuses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period.After(sorted[j].Period)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
