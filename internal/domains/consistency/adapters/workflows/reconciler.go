package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	consistencyworkflows "github.com/Apurer/go-gin-procurement-api/internal/platform/temporal/workflows/consistency"
)

var (
	_ ports.Reconciler = (*TemporalReconciler)(nil)
	_ ports.Reconciler = (*InlineReconciler)(nil)
)

// WorkflowStarter is the subset of client.Client used to start reconciliation runs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
}

// TemporalReconciler runs reconciliation as a Temporal workflow and waits for its report.
type TemporalReconciler struct {
	client    WorkflowStarter
	taskQueue string
}

// NewTemporalReconciler wires a Temporal client into the reconciler.
func NewTemporalReconciler(c WorkflowStarter) *TemporalReconciler {
	return &TemporalReconciler{client: c, taskQueue: consistencyworkflows.ReconciliationTaskQueue}
}

func (r *TemporalReconciler) Reconcile(ctx context.Context, opts ports.ScanOptions) (*ports.Report, error) {
	if r == nil || r.client == nil {
		return nil, errors.New("temporal reconciler not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildReconciliationWorkflowID(opts.DryRun, traceComponent)
	run, err := r.client.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{ID: workflowID, TaskQueue: r.taskQueue},
		consistencyworkflows.StatusReconciliationWorkflowName,
		consistencyworkflows.StatusReconciliationInput{DryRun: opts.DryRun, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = r.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var report ports.Report
	if err := run.Get(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// InlineReconciler scans in-process, used when Temporal is disabled or unreachable.
type InlineReconciler struct {
	monitor ports.Monitor
}

func NewInlineReconciler(monitor ports.Monitor) *InlineReconciler {
	return &InlineReconciler{monitor: monitor}
}

func (r *InlineReconciler) Reconcile(ctx context.Context, opts ports.ScanOptions) (*ports.Report, error) {
	if r == nil || r.monitor == nil {
		return nil, errors.New("inline reconciler not configured")
	}
	if opts.Source == "" {
		opts.Source = domain.SourceScan
	}
	return r.monitor.Scan(ctx, opts)
}

// StartCronReconciliation registers the periodic reconciliation run. An
// existing cron execution is left in place.
func StartCronReconciliation(ctx context.Context, c WorkflowStarter, schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil
	}
	_, err := c.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{
			ID:           consistencyworkflows.CronWorkflowID,
			TaskQueue:    consistencyworkflows.ReconciliationTaskQueue,
			CronSchedule: schedule,
		},
		consistencyworkflows.StatusReconciliationWorkflowName,
		consistencyworkflows.StatusReconciliationInput{},
	)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

func buildReconciliationWorkflowID(dryRun bool, traceComponent string) string {
	if dryRun {
		return "status-report-" + traceComponent
	}
	return "status-reconciliation-" + traceComponent
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
