package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	consistencyactivities "github.com/Apurer/go-gin-procurement-api/internal/platform/temporal/activities/consistency"
)

// RunReconciliationSequence executes the scan-and-repair activity with retries.
func RunReconciliationSequence(ctx workflow.Context, input consistencyactivities.ReconcileInput) (*ports.Report, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("reconciliation sequence started", "dryRun", input.DryRun)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var report ports.Report
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), consistencyactivities.ReconcileStatusesActivityName, input).Get(ctx, &report)
	if err != nil {
		logger.Error("reconciliation sequence failed", "error", err)
		return nil, err
	}
	logger.Info("reconciliation sequence completed", "corrections", len(report.Corrections), "failures", len(report.Failures))
	return &report, nil
}
