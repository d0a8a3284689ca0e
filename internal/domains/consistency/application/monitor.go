// Package application runs the requisition status consistency monitor.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	reqdomain "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	reqports "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

const tracerName = "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/application/monitor"

// errAlreadyConsistent aborts a repair that another writer already applied.
var errAlreadyConsistent = errors.New("requisition already consistent")

// Monitor finds submitted requisitions with no pending items and moves them
// to reviewed through the requisition repository's locked update.
type Monitor struct {
	requisitions reqports.Repository
	corrections  ports.CorrectionLog
	dispatcher   *events.Dispatcher
	logger       *slog.Logger
	tracer       trace.Tracer
	repaired     metric.Int64Counter
	now          func() time.Time
}

type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(m *Monitor) {
		if tr != nil {
			m.tracer = tr
		}
	}
}

func WithMeter(meter metric.Meter) Option {
	return func(m *Monitor) {
		if meter == nil {
			return
		}
		m.repaired, _ = meter.Int64Counter("consistency.monitor.corrections",
			metric.WithDescription("Requisitions whose status was repaired by the consistency monitor"))
	}
}

// WithDispatcher publishes a status change for every repair.
func WithDispatcher(d *events.Dispatcher) Option {
	return func(m *Monitor) {
		m.dispatcher = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMonitor(requisitions reqports.Repository, corrections ports.CorrectionLog, opts ...Option) *Monitor {
	m := &Monitor{
		requisitions: requisitions,
		corrections:  corrections,
		logger:       slog.Default(),
		tracer:       nooptrace.NewTracerProvider().Tracer(tracerName),
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Scan reports every inconsistent requisition and, unless opts.DryRun is set,
// repairs them. A failed repair is reported and does not stop the run.
func (m *Monitor) Scan(ctx context.Context, opts ports.ScanOptions) (*ports.Report, error) {
	if opts.Source == "" {
		opts.Source = domain.SourceScan
	}
	ctx, span := m.tracer.Start(ctx, "ConsistencyMonitor.Scan", trace.WithAttributes(
		attribute.Bool("scan.dry_run", opts.DryRun),
		attribute.String("scan.source", string(opts.Source)),
	))
	defer span.End()

	all, err := m.requisitions.List(ctx, reqports.ListFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list requisitions: %w", err)
	}
	report := &ports.Report{
		StatusCounts: map[string]int{},
		Inconsistent: []ports.Inconsistency{},
		Corrections:  []*domain.Correction{},
		Failures:     []ports.Failure{},
		DryRun:       opts.DryRun,
	}
	for _, req := range all {
		report.StatusCounts[string(req.Status)]++
		if req.Status != reqdomain.OrderSubmitted {
			continue
		}
		report.Scanned++
		summary := req.Summary()
		if summary.AllDecided() {
			report.Inconsistent = append(report.Inconsistent, ports.Inconsistency{
				OrderNo: req.OrderNo,
				Status:  string(req.Status),
				Total:   summary.Total,
				Pending: summary.Pending,
			})
		}
	}

	if !opts.DryRun {
		for _, found := range report.Inconsistent {
			correction, err := m.repair(ctx, found.OrderNo, opts.Source)
			switch {
			case errors.Is(err, errAlreadyConsistent):
				continue
			case err != nil:
				report.Failures = append(report.Failures, ports.Failure{OrderNo: found.OrderNo, Error: err.Error()})
				m.logger.LogAttrs(ctx, slog.LevelError, "requisition status repair failed",
					slog.String("order_no", found.OrderNo), slog.String("error", err.Error()))
				continue
			}
			report.Corrections = append(report.Corrections, correction)
			report.StatusCounts[correction.Before]--
			report.StatusCounts[correction.After]++
		}
	}

	span.SetAttributes(
		attribute.Int("scan.scanned", report.Scanned),
		attribute.Int("scan.inconsistent", len(report.Inconsistent)),
		attribute.Int("scan.corrections", len(report.Corrections)),
		attribute.Int("scan.failures", len(report.Failures)),
	)
	m.logger.LogAttrs(ctx, slog.LevelInfo, "consistency scan finished",
		slog.String("source", string(opts.Source)),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("scanned", report.Scanned),
		slog.Int("inconsistent", len(report.Inconsistent)),
		slog.Int("corrections", len(report.Corrections)),
		slog.Int("failures", len(report.Failures)))
	return report, nil
}

// Corrections lists the most recent repairs.
func (m *Monitor) Corrections(ctx context.Context, limit int) ([]*domain.Correction, error) {
	return m.corrections.List(ctx, limit)
}

func (m *Monitor) repair(ctx context.Context, orderNo string, source domain.Source) (*domain.Correction, error) {
	var (
		before  reqdomain.OrderStatus
		summary reqdomain.Summary
	)
	updated, err := m.requisitions.Update(ctx, orderNo, func(req *reqdomain.Requisition) error {
		before = req.Status
		summary = req.Summary()
		if !req.UpdateStatusAfterReview() {
			return errAlreadyConsistent
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated.ClearEvents()

	now := m.now().UTC()
	correction, err := domain.NewCorrection(orderNo, string(before), string(updated.Status), describe(summary), source, now)
	if err != nil {
		return nil, err
	}
	if err := m.corrections.Append(ctx, correction); err != nil {
		// The status fix is committed; only the audit row is missing.
		m.logger.LogAttrs(ctx, slog.LevelError, "failed to record status correction",
			slog.String("order_no", orderNo), slog.String("error", err.Error()))
	}
	m.logger.LogAttrs(ctx, slog.LevelWarn, "requisition status corrected",
		slog.String("order_no", orderNo),
		slog.String("from", correction.Before),
		slog.String("to", correction.After),
		slog.String("summary", correction.Summary),
		slog.String("source", string(source)))
	if m.repaired != nil {
		m.repaired.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(source))))
	}
	m.dispatcher.Dispatch(ctx, events.NewStatusChanged(events.AggregateRequisition, orderNo,
		correction.Before, correction.After, actor.System.ID, now))
	return correction, nil
}

func describe(s reqdomain.Summary) string {
	return fmt.Sprintf("total=%d pending=%d approved=%d rejected=%d questioned=%d unavailable=%d cancelled=%d",
		s.Total, s.Pending, s.Approved, s.Rejected, s.Questioned, s.Unavailable, s.Cancelled)
}

var _ ports.Monitor = (*Monitor)(nil)
