package consistency

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	consistencyactivities "github.com/Apurer/go-gin-procurement-api/internal/platform/temporal/activities/consistency"
	"github.com/Apurer/go-gin-procurement-api/internal/platform/temporal/sequences"
)

const (
	// StatusReconciliationWorkflowName is the public identifier for registering the workflow.
	StatusReconciliationWorkflowName = "consistency.workflows.StatusReconciliation"
	// ReconciliationTaskQueue is the queue consumed by the worker processing reconciliation.
	ReconciliationTaskQueue = "PROCUREMENT_CONSISTENCY"
	// CronWorkflowID identifies the single periodic reconciliation run.
	CronWorkflowID = "status-reconciliation-cron"
)

// StatusReconciliationInput selects dry-run or repair mode.
type StatusReconciliationInput struct {
	DryRun  bool
	TraceID string
}

// StatusReconciliationWorkflow repairs requisitions whose status lags behind their items.
func StatusReconciliationWorkflow(ctx workflow.Context, input StatusReconciliationInput) (*ports.Report, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("StatusReconciliationWorkflow started", withTraceID(input.TraceID, "dryRun", input.DryRun)...)
	report, err := sequences.RunReconciliationSequence(ctx, consistencyactivities.ReconcileInput{
		DryRun:  input.DryRun,
		TraceID: input.TraceID,
	})
	if err != nil {
		logger.Error("StatusReconciliationWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("StatusReconciliationWorkflow completed",
		withTraceID(input.TraceID, "scanned", report.Scanned, "corrections", len(report.Corrections))...)
	return report, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
