package ports

import (
	"context"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
)

// ScanOptions controls a reconciliation run.
type ScanOptions struct {
	// DryRun reports inconsistencies without repairing them.
	DryRun bool
	Source domain.Source
}

// Inconsistency is a submitted requisition whose items are all decided.
type Inconsistency struct {
	OrderNo string `json:"orderNo"`
	Status  string `json:"status"`
	Total   int    `json:"total"`
	Pending int    `json:"pending"`
}

// Failure is a repair that could not be applied.
type Failure struct {
	OrderNo string `json:"orderNo"`
	Error   string `json:"error"`
}

// Report summarises one reconciliation run.
type Report struct {
	Scanned      int                  `json:"scanned"`
	Inconsistent []Inconsistency      `json:"inconsistent"`
	Corrections  []*domain.Correction `json:"corrections"`
	Failures     []Failure            `json:"failures"`
	StatusCounts map[string]int       `json:"statusCounts"`
	DryRun       bool                 `json:"dryRun"`
}

// Monitor detects and repairs requisitions whose status lags behind their items.
type Monitor interface {
	Scan(ctx context.Context, opts ScanOptions) (*Report, error)
	Corrections(ctx context.Context, limit int) ([]*domain.Correction, error)
}
