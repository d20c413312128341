// Package reconcile matches rent and EMI schedules against sparse payment
// ledgers, attaches penalties and aggregates pending dues. Every function is a
// pure function of its arguments; the as-of period is always explicit.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/segyhp/dues-engine/internal/domain"
	customError "github.com/segyhp/dues-engine/pkg/errors"

	"go.uber.org/zap"
)

// Observer receives reconciliation events, typically Prometheus counters.
type Observer interface {
	ObserveReconciliation(kind domain.DueKind, periods int)
	ObservePolicyViolation(kind domain.DueKind)
	ObserveDuplicateRecord(kind domain.DueKind)
	ObserveInvalidSchedule(kind domain.DueKind)
}

type nopObserver struct{}

func (nopObserver) ObserveReconciliation(domain.DueKind, int) {}
func (nopObserver) ObservePolicyViolation(domain.DueKind)     {}
func (nopObserver) ObserveDuplicateRecord(domain.DueKind)     {}
func (nopObserver) ObserveInvalidSchedule(domain.DueKind)     {}

const defaultWorkers = 4

// Engine runs reconciliation passes. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	logger   *zap.Logger
	observer Observer
	workers  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports reconciliation events to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithWorkers bounds the number of tenants reconciled in parallel by
// PortfolioPending.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		observer: nopObserver{},
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func checkAsOf(asOf domain.Period) error {
	if !asOf.Valid() {
		return customError.WrapInvalidPeriod(asOf.String(), customError.ErrInvalidPeriod)
	}
	return nil
}

// report logs the non-fatal findings of one obligation and counts them.
func (e *Engine) report(kind domain.DueKind, warnings []error) {
	for _, w := range warnings {
		switch {
		case errors.Is(w, customError.ErrPolicyViolation):
			e.observer.ObservePolicyViolation(kind)
		case errors.Is(w, customError.ErrDuplicatePeriodRecord):
			e.observer.ObserveDuplicateRecord(kind)
		}
		e.logger.Warn("reconciliation warning",
			zap.String("kind", string(kind)),
			zap.Error(w),
		)
	}
}

func (e *Engine) invalid(kind domain.DueKind, err error) error {
	e.observer.ObserveInvalidSchedule(kind)
	return fmt.Errorf("reconcile %s: %w", kind, err)
}
