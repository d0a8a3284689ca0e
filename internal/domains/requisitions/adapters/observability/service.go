package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

const tracerName = "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/observability/service"

// Service decorates the requisition service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core requisition service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Create(ctx context.Context, by actor.Actor, input ports.CreateInput) (*domain.Requisition, error) {
	ctx, span := s.tracer.Start(ctx, "RequisitionService.Create",
		trace.WithAttributes(attribute.String("actor.id", by.ID), attribute.Int("requisition.items", len(input.Items))))
	defer span.End()

	result, err := s.inner.Create(ctx, by, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create requisition", slog.String("actor.id", by.ID))
	}
	span.SetAttributes(attribute.String("requisition.order_no", result.OrderNo))
	s.logInfo(ctx, "requisition created", slog.String("order_no", result.OrderNo), slog.Int("items", len(result.Items)))
	return result, nil
}

func (s *Service) Get(ctx context.Context, orderNo string) (*domain.Requisition, error) {
	ctx, span := s.tracer.Start(ctx, "RequisitionService.Get", trace.WithAttributes(attribute.String("requisition.order_no", orderNo)))
	defer span.End()

	result, err := s.inner.Get(ctx, orderNo)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load requisition", slog.String("order_no", orderNo))
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Requisition, error) {
	ctx, span := s.tracer.Start(ctx, "RequisitionService.List", trace.WithAttributes(attribute.String("filter.status", string(filter.Status))))
	defer span.End()

	result, err := s.inner.List(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list requisitions")
	}
	span.SetAttributes(attribute.Int("requisition.count", len(result)))
	return result, nil
}

func (s *Service) Summary(ctx context.Context, orderNo string) (domain.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "RequisitionService.Summary", trace.WithAttributes(attribute.String("requisition.order_no", orderNo)))
	defer span.End()

	result, err := s.inner.Summary(ctx, orderNo)
	if err != nil {
		return domain.Summary{}, s.handleError(ctx, span, err, "failed to summarize requisition", slog.String("order_no", orderNo))
	}
	return result, nil
}

func (s *Service) QuestionedItems(ctx context.Context) ([]ports.QuestionedItem, error) {
	ctx, span := s.tracer.Start(ctx, "RequisitionService.QuestionedItems")
	defer span.End()

	result, err := s.inner.QuestionedItems(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list questioned items")
	}
	span.SetAttributes(attribute.Int("line_item.count", len(result)))
	return result, nil
}

func (s *Service) Submit(ctx context.Context, by actor.Actor, orderNo string) (*domain.Requisition, error) {
	return s.transition(ctx, "Submit", "submit", by, orderNo, 0, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.Submit(ctx, by, orderNo)
	})
}

func (s *Service) Cancel(ctx context.Context, by actor.Actor, orderNo, reason string) (*domain.Requisition, error) {
	return s.transition(ctx, "Cancel", "cancel", by, orderNo, 0, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.Cancel(ctx, by, orderNo, reason)
	})
}

func (s *Service) RejectRemaining(ctx context.Context, by actor.Actor, orderNo, reason string) (*domain.Requisition, error) {
	return s.transition(ctx, "RejectRemaining", "reject_remaining", by, orderNo, 0, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.RejectRemaining(ctx, by, orderNo, reason)
	})
}

func (s *Service) ApproveItem(ctx context.Context, by actor.Actor, input ports.ApproveInput) (*domain.Requisition, error) {
	return s.transition(ctx, "ApproveItem", "approve", by, input.OrderNo, input.LineNo, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.ApproveItem(ctx, by, input)
	})
}

func (s *Service) RejectItem(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.transition(ctx, "RejectItem", "reject", by, input.OrderNo, input.LineNo, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.RejectItem(ctx, by, input)
	})
}

func (s *Service) QuestionItem(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.transition(ctx, "QuestionItem", "question", by, input.OrderNo, input.LineNo, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.QuestionItem(ctx, by, input)
	})
}

func (s *Service) MarkItemUnavailable(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.transition(ctx, "MarkItemUnavailable", "unavailable", by, input.OrderNo, input.LineNo, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.MarkItemUnavailable(ctx, by, input)
	})
}

func (s *Service) UpdateItemNote(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.transition(ctx, "UpdateItemNote", "note", by, input.OrderNo, input.LineNo, func(ctx context.Context) (*domain.Requisition, error) {
		return s.inner.UpdateItemNote(ctx, by, input)
	})
}

// transition wraps every mutating call: one span, one outcome log line and
// the decision/transition counters.
func (s *Service) transition(ctx context.Context, method, action string, by actor.Actor, orderNo string, lineNo int64, call func(context.Context) (*domain.Requisition, error)) (*domain.Requisition, error) {
	attrs := []attribute.KeyValue{
		attribute.String("requisition.order_no", orderNo),
		attribute.String("actor.id", by.ID),
		attribute.String("requisition.action", action),
	}
	if lineNo > 0 {
		attrs = append(attrs, attribute.Int64("line_item.line_no", lineNo))
	}
	ctx, span := s.tracer.Start(ctx, "RequisitionService."+method, trace.WithAttributes(attrs...))
	defer span.End()

	before, _ := s.inner.Get(ctx, orderNo)
	result, err := call(ctx)
	if err != nil {
		s.metrics.recordDecision(ctx, action, "error")
		return nil, s.handleError(ctx, span, err, "requisition "+action+" failed",
			slog.String("order_no", orderNo), slog.Int64("line_no", lineNo), slog.String("actor", by.ID))
	}
	s.metrics.recordDecision(ctx, action, "ok")
	span.SetAttributes(attribute.String("requisition.status", string(result.Status)))
	if before != nil && before.Status != result.Status {
		s.metrics.recordTransition(ctx, before.Status, result.Status)
		s.logInfo(ctx, "requisition status changed",
			slog.String("order_no", orderNo), slog.String("from", string(before.Status)), slog.String("to", string(result.Status)))
	}
	s.logInfo(ctx, "requisition "+action+" applied",
		slog.String("order_no", orderNo), slog.Int64("line_no", lineNo), slog.String("actor", by.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	decisions   metric.Int64Counter
	transitions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	decisions, _ := m.Int64Counter("requisitions.service.decisions", metric.WithDescription("Requisition mutations by action and outcome"))
	transitions, _ := m.Int64Counter("requisitions.service.status_transitions", metric.WithDescription("Requisition status transitions"))
	return serviceMetrics{decisions: decisions, transitions: transitions}
}

func (m serviceMetrics) recordDecision(ctx context.Context, action, outcome string) {
	if m.decisions != nil {
		m.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action), attribute.String("outcome", outcome)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, from, to domain.OrderStatus) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("from", string(from)), attribute.String("to", string(to))))
	}
}

var _ ports.Service = (*Service)(nil)
