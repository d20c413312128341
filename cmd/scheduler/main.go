package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/dues-engine/internal/app"
	"github.com/segyhp/dues-engine/internal/config"
	"github.com/segyhp/dues-engine/internal/service"
	"github.com/segyhp/dues-engine/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// jobTimeout bounds one nightly refresh.
const jobTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format, "dues-scheduler")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg, zl)
	cancel()
	if err != nil {
		zl.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := c.AddFunc(cfg.Scheduler.Spec, func() {
		refreshDues(application.Service, zl)
	}); err != nil {
		zl.Fatal("Error scheduling dues refresh job", zap.String("spec", cfg.Scheduler.Spec), zap.Error(err))
	}

	c.Start()
	zl.Info("Scheduler started",
		zap.String("spec", cfg.Scheduler.Spec),
		zap.String("timezone", cfg.SchedulerLocation().String()),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	zl.Info("Scheduler stopped")
}

// refreshDues stores the current month snapshot for the xlsx export and logs
// every tenant that left last month unpaid.
func refreshDues(svc *service.DuesService, zl *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	asOf := svc.CurrentPeriod()
	zl.Info("Running dues refresh job", zap.String("as_of", asOf.String()))

	report, err := svc.RefreshPortfolio(ctx, asOf)
	if err != nil {
		zl.Error("Dues refresh failed", zap.String("as_of", asOf.String()), zap.Error(err))
		return
	}
	for _, f := range report.Failures {
		zl.Warn("Tenant needs record correction",
			zap.String("tenant_id", f.TenantID.String()),
			zap.String("tenant_name", f.TenantName),
			zap.String("reason", f.Reason),
		)
	}

	unpaid, err := svc.UnpaidLastMonth(ctx, asOf)
	if err != nil {
		zl.Error("Unpaid last month lookup failed", zap.Error(err))
		return
	}
	for _, tenant := range unpaid {
		zl.Info("Payment reminder due",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("tenant_name", tenant.Name),
			zap.String("mobile_no", tenant.MobileNo),
			zap.Strings("shops", tenant.ShopNumbers()),
		)
	}

	zl.Info("Dues refresh job finished",
		zap.String("as_of", asOf.String()),
		zap.Int("tenants_with_pending", report.TenantsWithPending),
		zap.Int("failures", len(report.Failures)),
		zap.Int("unpaid_last_month", len(unpaid)),
	)
}
