package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-procurement-api/internal/app/api"
	consistencyworkflows "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/workflows"
	platformobservability "github.com/Apurer/go-gin-procurement-api/internal/platform/observability"
	consistencyactivities "github.com/Apurer/go-gin-procurement-api/internal/platform/temporal/activities/consistency"
	reconciliationworkflows "github.com/Apurer/go-gin-procurement-api/internal/platform/temporal/workflows/consistency"
)

func main() {
	ctx := context.Background()
	const serviceName = "procurement-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, cleanup, err := api.BuildComponents(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build components", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()
	reconcileActivities := consistencyactivities.NewActivities(components.Monitor)

	temporalClient, err := api.ConnectTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, reconciliationworkflows.ReconciliationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(reconciliationworkflows.StatusReconciliationWorkflow, workflow.RegisterOptions{Name: reconciliationworkflows.StatusReconciliationWorkflowName})
	w.RegisterActivityWithOptions(reconcileActivities.ReconcileStatuses, activity.RegisterOptions{Name: consistencyactivities.ReconcileStatusesActivityName})

	schedule := api.ReconcileSchedule(components, cfg)
	if schedule == "" && cfg.ReconcileCron != "" {
		logger.Warn("periodic reconciliation skipped, storage is not durable", slog.String("cron", cfg.ReconcileCron))
	}
	if err := consistencyworkflows.StartCronReconciliation(ctx, temporalClient, schedule); err != nil {
		logger.Warn("failed to schedule periodic reconciliation", slog.String("error", err.Error()))
	} else if schedule != "" {
		logger.Info("periodic reconciliation scheduled", slog.String("cron", schedule))
	}

	logger.Info("worker listening", slog.String("taskQueue", reconciliationworkflows.ReconciliationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
