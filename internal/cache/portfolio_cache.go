package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"

	"go.uber.org/zap"
)

const keyPrefix = "dues:portfolio"

// PortfolioCache keeps the last computed portfolio report per as-of period
// and window. Entries expire after ttl; a pass for a new as-of month never
// reads an older month's entry.
type PortfolioCache struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewPortfolioCache(kv KVStore, ttl time.Duration, logger *zap.Logger) *PortfolioCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioCache{kv: kv, ttl: ttl, logger: logger}
}

// Key is the Redis key of the report for asOf and window.
func Key(asOf domain.Period, window domain.Window) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, asOf, windowKey(window))
}

func windowKey(w domain.Window) string {
	if w.From.IsZero() && w.To.IsZero() {
		return "all"
	}
	from, to := "open", "open"
	if !w.From.IsZero() {
		from = w.From.String()
	}
	if !w.To.IsZero() {
		to = w.To.String()
	}
	return from + "_" + to
}

// Get returns the cached report, or ErrCacheMiss.
func (c *PortfolioCache) Get(ctx context.Context, asOf domain.Period, window domain.Window) (*reconcile.PortfolioReport, error) {
	key := Key(asOf, window)

	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("portfolio cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}

	var report reconcile.PortfolioReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		c.logger.Warn("discarding unreadable portfolio cache entry", zap.String("key", key), zap.Error(err))
		return nil, ErrCacheMiss
	}

	c.logger.Debug("portfolio cache hit", zap.String("key", key))
	return &report, nil
}

// Put stores the report under its as-of and window key.
func (c *PortfolioCache) Put(ctx context.Context, report *reconcile.PortfolioReport) error {
	key := Key(report.AsOf, report.Window)

	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio report: %w", err)
	}

	if err := c.kv.Set(ctx, key, string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("updated portfolio cache",
		zap.String("key", key),
		zap.Int("tenants", len(report.Results)),
	)
	return nil
}

// Invalidate drops the entries for asOf across the given windows.
func (c *PortfolioCache) Invalidate(ctx context.Context, asOf domain.Period, windows ...domain.Window) error {
	keys := make([]string, 0, len(windows))
	for _, w := range windows {
		keys = append(keys, Key(asOf, w))
	}
	return c.kv.Del(ctx, keys...)
}
