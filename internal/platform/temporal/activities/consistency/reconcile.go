package consistency

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
)

// ReconcileStatusesActivityName scans requisitions and repairs stale statuses.
const ReconcileStatusesActivityName = "consistency.activities.ReconcileStatuses"

// ReconcileInput is the activity payload.
type ReconcileInput struct {
	DryRun  bool
	TraceID string
}

// Activities groups activities that operate on the consistency bounded context.
type Activities struct {
	monitor ports.Monitor
}

func NewActivities(monitor ports.Monitor) *Activities {
	return &Activities{monitor: monitor}
}

// ReconcileStatuses runs one monitor scan. Repairs go through the locked
// repository update, so a retried attempt only finds what is still stale.
func (a *Activities) ReconcileStatuses(ctx context.Context, input ReconcileInput) (*ports.Report, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.monitor == nil {
		logger.Error("reconcile activity not initialized")
		return nil, errors.New("reconcile activity not initialized")
	}
	logger.Info("ReconcileStatuses activity started", "dryRun", input.DryRun, "traceId", input.TraceID)
	report, err := a.monitor.Scan(ctx, ports.ScanOptions{DryRun: input.DryRun, Source: domain.SourceWorkflow})
	if err != nil {
		logger.Error("ReconcileStatuses activity failed", "error", err)
		return nil, err
	}
	logger.Info("ReconcileStatuses activity completed",
		"scanned", report.Scanned,
		"inconsistent", len(report.Inconsistent),
		"corrections", len(report.Corrections),
		"failures", len(report.Failures))
	return report, nil
}
