package mapper

import (
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
)

type Correction struct {
	ID         string    `json:"id"`
	OrderNo    string    `json:"orderNo"`
	Before     string    `json:"before"`
	After      string    `json:"after"`
	Summary    string    `json:"summary"`
	Source     string    `json:"source"`
	DetectedAt time.Time `json:"detectedAt"`
}

type Report struct {
	Scanned      int                   `json:"scanned"`
	DryRun       bool                  `json:"dryRun"`
	Inconsistent []ports.Inconsistency `json:"inconsistent"`
	Corrections  []Correction          `json:"corrections"`
	Failures     []ports.Failure       `json:"failures"`
	StatusCounts map[string]int        `json:"statusCounts"`
}

func FromCorrection(c *domain.Correction) Correction {
	if c == nil {
		return Correction{}
	}
	return Correction{
		ID:         c.ID,
		OrderNo:    c.OrderNo,
		Before:     c.Before,
		After:      c.After,
		Summary:    c.Summary,
		Source:     string(c.Source),
		DetectedAt: c.DetectedAt,
	}
}

func FromCorrections(list []*domain.Correction) []Correction {
	out := make([]Correction, 0, len(list))
	for _, c := range list {
		out = append(out, FromCorrection(c))
	}
	return out
}

// FromReport always emits arrays so clients need not special-case null.
func FromReport(r *ports.Report) Report {
	if r == nil {
		return Report{Inconsistent: []ports.Inconsistency{}, Corrections: []Correction{}, Failures: []ports.Failure{}}
	}
	out := Report{
		Scanned:      r.Scanned,
		DryRun:       r.DryRun,
		Inconsistent: r.Inconsistent,
		Corrections:  FromCorrections(r.Corrections),
		Failures:     r.Failures,
		StatusCounts: r.StatusCounts,
	}
	if out.Inconsistent == nil {
		out.Inconsistent = []ports.Inconsistency{}
	}
	if out.Failures == nil {
		out.Failures = []ports.Failure{}
	}
	return out
}
