package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

const tracerName = "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/observability/service"

// Service decorates the delivery service with tracing, logging, and metrics.
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

// New wraps the core delivery service.
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

func (s *Service) CreateSupplier(ctx context.Context, input ports.SupplierInput) (*domain.Supplier, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.CreateSupplier", trace.WithAttributes(attribute.String("supplier.id", input.ID)))
	defer span.End()

	result, err := s.inner.CreateSupplier(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create supplier", slog.String("supplier_id", input.ID))
	}
	s.logInfo(ctx, "supplier created", slog.String("supplier_id", result.ID), slog.String("region", string(result.Region)))
	return result, nil
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.GetSupplier", trace.WithAttributes(attribute.String("supplier.id", id)))
	defer span.End()

	result, err := s.inner.GetSupplier(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load supplier", slog.String("supplier_id", id))
	}
	return result, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]*domain.Supplier, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.ListSuppliers")
	defer span.End()

	result, err := s.inner.ListSuppliers(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list suppliers")
	}
	span.SetAttributes(attribute.Int("supplier.count", len(result)))
	return result, nil
}

func (s *Service) CreatePurchaseOrder(ctx context.Context, by actor.Actor, input ports.CreatePurchaseOrderInput) (*domain.PurchaseOrder, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.CreatePurchaseOrder",
		trace.WithAttributes(attribute.String("supplier.id", input.SupplierID), attribute.String("actor.id", by.ID)))
	defer span.End()

	result, err := s.inner.CreatePurchaseOrder(ctx, by, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create purchase order", slog.String("supplier_id", input.SupplierID))
	}
	span.SetAttributes(attribute.String("purchase_order.po_no", result.PONo))
	s.logInfo(ctx, "purchase order created", slog.String("po_no", result.PONo), slog.String("region", string(result.SupplierRegion)))
	return result, nil
}

func (s *Service) GetPurchaseOrder(ctx context.Context, poNo string) (*domain.PurchaseOrder, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.GetPurchaseOrder", trace.WithAttributes(attribute.String("purchase_order.po_no", poNo)))
	defer span.End()

	result, err := s.inner.GetPurchaseOrder(ctx, poNo)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load purchase order", slog.String("po_no", poNo))
	}
	return result, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context, filter ports.PurchaseOrderFilter) ([]*domain.PurchaseOrder, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.ListPurchaseOrders", trace.WithAttributes(attribute.String("filter.view", string(filter.View))))
	defer span.End()

	result, err := s.inner.ListPurchaseOrders(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list purchase orders")
	}
	span.SetAttributes(attribute.Int("purchase_order.count", len(result)))
	return result, nil
}

func (s *Service) ConfirmPurchase(ctx context.Context, by actor.Actor, poNo string) (*domain.PurchaseOrder, error) {
	return s.update(ctx, "ConfirmPurchase", "confirm", by, poNo, func(ctx context.Context) (*domain.PurchaseOrder, error) {
		return s.inner.ConfirmPurchase(ctx, by, poNo)
	})
}

func (s *Service) Withdraw(ctx context.Context, by actor.Actor, poNo, reason string) (*domain.PurchaseOrder, error) {
	return s.update(ctx, "Withdraw", "withdraw", by, poNo, func(ctx context.Context) (*domain.PurchaseOrder, error) {
		return s.inner.Withdraw(ctx, by, poNo, reason)
	})
}

func (s *Service) UpdateDeliveryStatus(ctx context.Context, by actor.Actor, poNo string, input ports.DeliveryStatusInput) (*domain.PurchaseOrder, error) {
	return s.update(ctx, "UpdateDeliveryStatus", "delivery_status", by, poNo, func(ctx context.Context) (*domain.PurchaseOrder, error) {
		return s.inner.UpdateDeliveryStatus(ctx, by, poNo, input)
	})
}

func (s *Service) OverrideDeliveryStatus(ctx context.Context, by actor.Actor, poNo string, input ports.OverrideInput) (*domain.PurchaseOrder, error) {
	result, err := s.update(ctx, "OverrideDeliveryStatus", "override", by, poNo, func(ctx context.Context) (*domain.PurchaseOrder, error) {
		return s.inner.OverrideDeliveryStatus(ctx, by, poNo, input)
	})
	if err == nil && s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "delivery status overridden",
			slog.String("po_no", poNo), slog.String("to", input.Status), slog.String("reason", input.Reason), slog.String("actor", by.ID))
	}
	return result, err
}

func (s *Service) CreateConsolidation(ctx context.Context, by actor.Actor, input ports.CreateConsolidationInput) (*ports.ConsolidationView, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.CreateConsolidation",
		trace.WithAttributes(attribute.StringSlice("purchase_order.po_nos", input.PurchaseOrders), attribute.String("actor.id", by.ID)))
	defer span.End()

	result, err := s.inner.CreateConsolidation(ctx, by, input)
	if err != nil {
		s.metrics.recordConsolidation(ctx, "error")
		return nil, s.handleError(ctx, span, err, "failed to create consolidation", slog.Any("po_nos", input.PurchaseOrders))
	}
	s.metrics.recordConsolidation(ctx, "ok")
	span.SetAttributes(attribute.String("consolidation.id", result.Consolidation.ID))
	s.logInfo(ctx, "consolidation created",
		slog.String("consolidation_id", result.Consolidation.ID), slog.Int("members", len(result.Consolidation.Members)))
	return result, nil
}

func (s *Service) AddToConsolidation(ctx context.Context, by actor.Actor, id string, poNos []string) (*ports.ConsolidationView, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.AddToConsolidation",
		trace.WithAttributes(attribute.String("consolidation.id", id), attribute.StringSlice("purchase_order.po_nos", poNos)))
	defer span.End()

	result, err := s.inner.AddToConsolidation(ctx, by, id, poNos)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to extend consolidation", slog.String("consolidation_id", id))
	}
	s.logInfo(ctx, "consolidation extended", slog.String("consolidation_id", id), slog.Int("members", len(result.Consolidation.Members)))
	return result, nil
}

func (s *Service) GetConsolidation(ctx context.Context, id string) (*ports.ConsolidationView, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.GetConsolidation", trace.WithAttributes(attribute.String("consolidation.id", id)))
	defer span.End()

	result, err := s.inner.GetConsolidation(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load consolidation", slog.String("consolidation_id", id))
	}
	return result, nil
}

func (s *Service) ListConsolidations(ctx context.Context) ([]*domain.Consolidation, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.ListConsolidations")
	defer span.End()

	result, err := s.inner.ListConsolidations(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list consolidations")
	}
	span.SetAttributes(attribute.Int("consolidation.count", len(result)))
	return result, nil
}

func (s *Service) UpdateLogisticsStatus(ctx context.Context, by actor.Actor, id string, input ports.LogisticsStatusInput) (*ports.ConsolidationView, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService.UpdateLogisticsStatus",
		trace.WithAttributes(attribute.String("consolidation.id", id), attribute.String("logistics.status", input.Status)))
	defer span.End()

	result, err := s.inner.UpdateLogisticsStatus(ctx, by, id, input)
	if err != nil {
		s.metrics.recordStatusUpdate(ctx, "logistics_status", "error", input.Status)
		return nil, s.handleError(ctx, span, err, "consolidation logistics update failed",
			slog.String("consolidation_id", id), slog.String("status", input.Status))
	}
	s.metrics.recordStatusUpdate(ctx, "logistics_status", "ok", string(result.Consolidation.LogisticsStatus))
	s.logInfo(ctx, "consolidation logistics status updated",
		slog.String("consolidation_id", id), slog.String("status", string(result.Consolidation.LogisticsStatus)), slog.Int("members", len(result.Members)))
	return result, nil
}

// update wraps purchase order mutations with a span, an outcome log line and the status update counter.
func (s *Service) update(ctx context.Context, method, operation string, by actor.Actor, poNo string, call func(context.Context) (*domain.PurchaseOrder, error)) (*domain.PurchaseOrder, error) {
	ctx, span := s.tracer.Start(ctx, "DeliveryService."+method, trace.WithAttributes(
		attribute.String("purchase_order.po_no", poNo),
		attribute.String("actor.id", by.ID),
		attribute.String("delivery.operation", operation),
	))
	defer span.End()

	result, err := call(ctx)
	if err != nil {
		s.metrics.recordStatusUpdate(ctx, operation, "error", "")
		return nil, s.handleError(ctx, span, err, "purchase order "+operation+" failed",
			slog.String("po_no", poNo), slog.String("actor", by.ID))
	}
	s.metrics.recordStatusUpdate(ctx, operation, "ok", string(result.DeliveryStatus))
	span.SetAttributes(
		attribute.String("purchase_order.delivery_status", string(result.DeliveryStatus)),
		attribute.String("purchase_order.purchase_status", string(result.PurchaseStatus)),
	)
	s.logInfo(ctx, "purchase order "+operation+" applied",
		slog.String("po_no", poNo),
		slog.String("delivery_status", string(result.DeliveryStatus)),
		slog.String("purchase_status", string(result.PurchaseStatus)),
		slog.String("actor", by.ID))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	statusUpdates  metric.Int64Counter
	consolidations metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	updates, _ := m.Int64Counter("delivery.service.status_updates", metric.WithDescription("Purchase order and consolidation status updates by operation and outcome"))
	consolidations, _ := m.Int64Counter("delivery.service.consolidations", metric.WithDescription("Consolidation attempts by outcome"))
	return serviceMetrics{statusUpdates: updates, consolidations: consolidations}
}

func (m serviceMetrics) recordStatusUpdate(ctx context.Context, operation, outcome, status string) {
	if m.statusUpdates == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("operation", operation), attribute.String("outcome", outcome)}
	if status != "" {
		attrs = append(attrs, attribute.String("status", status))
	}
	m.statusUpdates.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m serviceMetrics) recordConsolidation(ctx context.Context, outcome string) {
	if m.consolidations != nil {
		m.consolidations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

var _ ports.Service = (*Service)(nil)
