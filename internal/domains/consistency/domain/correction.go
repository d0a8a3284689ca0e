// Package domain models the audit trail of automatic status repairs.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source names what triggered a reconciliation run.
type Source string

const (
	SourceScan     Source = "scan"
	SourceCLI      Source = "cli"
	SourceWorkflow Source = "workflow"
)

var ErrInvalidCorrection = errors.New("correction requires an order number and both statuses")

// Correction records one repaired requisition.
type Correction struct {
	ID         string
	OrderNo    string
	Before     string
	After      string
	Summary    string
	Source     Source
	DetectedAt time.Time
}

func NewCorrection(orderNo, before, after, summary string, source Source, at time.Time) (*Correction, error) {
	c := &Correction{
		ID:         uuid.NewString(),
		OrderNo:    strings.TrimSpace(orderNo),
		Before:     before,
		After:      after,
		Summary:    summary,
		Source:     source,
		DetectedAt: at.UTC(),
	}
	if c.OrderNo == "" || c.Before == "" || c.After == "" {
		return nil, ErrInvalidCorrection
	}
	if c.Source == "" {
		c.Source = SourceScan
	}
	return c, nil
}
