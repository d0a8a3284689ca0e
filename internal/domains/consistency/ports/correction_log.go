package ports

import (
	"context"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
)

// CorrectionLog stores the audit trail of status repairs.
type CorrectionLog interface {
	Append(ctx context.Context, correction *domain.Correction) error
	// List returns the most recent corrections first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*domain.Correction, error)
}
