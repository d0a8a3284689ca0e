package api

import (
	consistencyworkflows "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/workflows"
	consistencyports "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
)

// SelectReconciler returns the Temporal reconciler only when storage is durable.
// With the in-memory fallback the worker process holds its own empty stores, so
// a workflow run would scan nothing and the API reconciles inline instead.
func SelectReconciler(components *Components, starter consistencyworkflows.WorkflowStarter) consistencyports.Reconciler {
	if components.Durable && starter != nil {
		return consistencyworkflows.NewTemporalReconciler(starter)
	}
	return consistencyworkflows.NewInlineReconciler(components.Monitor)
}

// ReconcileSchedule is the cron expression the worker should register, empty
// when periodic runs would only see the worker's private in-memory stores.
func ReconcileSchedule(components *Components, cfg Config) string {
	if !components.Durable {
		return ""
	}
	return cfg.ReconcileCron
}
