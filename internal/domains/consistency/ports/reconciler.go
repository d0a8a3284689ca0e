package ports

import "context"

// Reconciler runs a monitor scan either durably or in-process.
type Reconciler interface {
	Reconcile(ctx context.Context, opts ScanOptions) (*Report, error)
}
