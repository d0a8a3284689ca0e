package consistency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	consistencyactivities "github.com/Apurer/go-gin-procurement-api/internal/platform/temporal/activities/consistency"
)

func TestStatusReconciliationWorkflow_ReturnsReport(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	var received consistencyactivities.ReconcileInput
	env.RegisterActivityWithOptions(func(_ context.Context, input consistencyactivities.ReconcileInput) (*ports.Report, error) {
		received = input
		return &ports.Report{Scanned: 3, DryRun: input.DryRun, StatusCounts: map[string]int{"submitted": 3}}, nil
	}, activity.RegisterOptions{Name: consistencyactivities.ReconcileStatusesActivityName})

	env.ExecuteWorkflow(StatusReconciliationWorkflow, StatusReconciliationInput{DryRun: true, TraceID: "trace-1"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var report ports.Report
	require.NoError(t, env.GetWorkflowResult(&report))
	require.Equal(t, 3, report.Scanned)
	require.True(t, report.DryRun)
	require.Equal(t, "trace-1", received.TraceID)
}

func TestStatusReconciliationWorkflow_RetriesActivity(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	attempts := 0
	env.RegisterActivityWithOptions(func(_ context.Context, _ consistencyactivities.ReconcileInput) (*ports.Report, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("database unavailable")
		}
		return &ports.Report{Scanned: 1}, nil
	}, activity.RegisterOptions{Name: consistencyactivities.ReconcileStatusesActivityName})

	env.ExecuteWorkflow(StatusReconciliationWorkflow, StatusReconciliationInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, 3, attempts)
}
