package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// Service orchestrates purchase order delivery tracking.
type Service struct {
	repo       ports.Repository
	dispatcher *events.Dispatcher
	now        func() time.Time
}

type Option func(*Service)

// WithDispatcher routes committed status changes to a notification channel.
func WithDispatcher(d *events.Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateSupplier(ctx context.Context, input ports.SupplierInput) (*domain.Supplier, error) {
	region, err := domain.ParseSupplierRegion(input.Region)
	if err != nil {
		return nil, err
	}
	supplier, err := domain.NewSupplier(input.ID, input.Name, region)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.CreateSupplier(ctx, supplier)
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]*domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// CreatePurchaseOrder places an order with a known supplier, capturing its region.
func (s *Service) CreatePurchaseOrder(ctx context.Context, by actor.Actor, input ports.CreatePurchaseOrderInput) (*domain.PurchaseOrder, error) {
	supplier, err := s.repo.GetSupplier(ctx, strings.TrimSpace(input.SupplierID))
	if err != nil {
		return nil, err
	}
	items := make([]*domain.POItem, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, &domain.POItem{
			ItemName:     in.ItemName,
			Quantity:     in.Quantity,
			Unit:         strings.TrimSpace(in.Unit),
			UnitPrice:    in.UnitPrice,
			SourceLineNo: in.SourceLineNo,
		})
	}
	poNo, err := s.repo.NextPONo(ctx, s.now())
	if err != nil {
		return nil, err
	}
	po, err := domain.NewPurchaseOrder(poNo, *supplier, input.SourceRequisition, items)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.CreatePurchaseOrder(ctx, po)
}

func (s *Service) GetPurchaseOrder(ctx context.Context, poNo string) (*domain.PurchaseOrder, error) {
	return s.repo.GetPurchaseOrder(ctx, poNo)
}

func (s *Service) ListPurchaseOrders(ctx context.Context, filter ports.PurchaseOrderFilter) ([]*domain.PurchaseOrder, error) {
	switch filter.View {
	case ports.ViewAll, ports.ViewDelivery, ports.ViewConsolidation:
	default:
		return nil, fmt.Errorf("%w: unknown view %q", ErrInvalidInput, filter.View)
	}
	if filter.DeliveryStatus != "" {
		status, err := domain.ParseDeliveryStatus(string(filter.DeliveryStatus))
		if err != nil {
			return nil, err
		}
		filter.DeliveryStatus = status
	}
	return s.repo.ListPurchaseOrders(ctx, filter)
}

func (s *Service) ConfirmPurchase(ctx context.Context, by actor.Actor, poNo string) (*domain.PurchaseOrder, error) {
	return s.mutate(ctx, poNo, func(po *domain.PurchaseOrder) error {
		return po.ConfirmPurchase(by)
	})
}

func (s *Service) Withdraw(ctx context.Context, by actor.Actor, poNo, reason string) (*domain.PurchaseOrder, error) {
	return s.mutate(ctx, poNo, func(po *domain.PurchaseOrder) error {
		return po.Withdraw(reason, by)
	})
}

// UpdateDeliveryStatus validates the raw status before touching storage so
// unknown values fail without taking a lock.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, by actor.Actor, poNo string, input ports.DeliveryStatusInput) (*domain.PurchaseOrder, error) {
	status, err := domain.ParseDeliveryStatus(input.Status)
	if err != nil {
		return nil, err
	}
	update := domain.DeliveryUpdate{
		Status:               status,
		Remarks:              input.Remarks,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
	}
	return s.mutate(ctx, poNo, func(po *domain.PurchaseOrder) error {
		return po.UpdateDeliveryStatus(update, by)
	})
}

// OverrideDeliveryStatus is restricted to admins.
func (s *Service) OverrideDeliveryStatus(ctx context.Context, by actor.Actor, poNo string, input ports.OverrideInput) (*domain.PurchaseOrder, error) {
	if !by.HasRole(actor.RoleAdmin) {
		return nil, fmt.Errorf("%w: delivery status override requires admin", ErrForbidden)
	}
	status, err := domain.ParseDeliveryStatus(input.Status)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, poNo, func(po *domain.PurchaseOrder) error {
		return po.OverrideDeliveryStatus(status, input.Reason, by)
	})
}

// CreateConsolidation groups shipped international orders. Either every
// order joins or none does.
func (s *Service) CreateConsolidation(ctx context.Context, by actor.Actor, input ports.CreateConsolidationInput) (*ports.ConsolidationView, error) {
	poNos := normalizeNumbers(input.PurchaseOrders)
	if len(poNos) == 0 {
		return nil, &domain.EligibilityError{Reason: "no purchase orders selected"}
	}
	id, err := s.repo.NextConsolidationID(ctx, s.now())
	if err != nil {
		return nil, err
	}
	details := domain.LogisticsDetails{
		Carrier:              input.Carrier,
		TrackingNumber:       input.TrackingNumber,
		CustomsDeclarationNo: input.CustomsDeclarationNo,
	}
	var members []*domain.PurchaseOrder
	created, err := s.repo.Consolidate(ctx, poNos, func(orders []*domain.PurchaseOrder) (*domain.Consolidation, error) {
		members = orders
		return domain.NewConsolidation(id, input.Name, orders, details, by)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &ports.ConsolidationView{Consolidation: created, Members: members}, nil
}

func (s *Service) AddToConsolidation(ctx context.Context, by actor.Actor, id string, poNos []string) (*ports.ConsolidationView, error) {
	poNos = normalizeNumbers(poNos)
	if len(poNos) == 0 {
		return nil, &domain.EligibilityError{Reason: "no purchase orders selected"}
	}
	if _, err := s.repo.AddToConsolidation(ctx, id, poNos, func(c *domain.Consolidation, orders []*domain.PurchaseOrder) error {
		return c.AddMembers(orders)
	}); err != nil {
		return nil, mapError(err)
	}
	return s.GetConsolidation(ctx, id)
}

func (s *Service) GetConsolidation(ctx context.Context, id string) (*ports.ConsolidationView, error) {
	c, members, err := s.repo.GetConsolidation(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ports.ConsolidationView{Consolidation: c, Members: members}, nil
}

func (s *Service) ListConsolidations(ctx context.Context) ([]*domain.Consolidation, error) {
	return s.repo.ListConsolidations(ctx)
}

// UpdateLogisticsStatus advances a consolidation and every member order in one transaction.
func (s *Service) UpdateLogisticsStatus(ctx context.Context, by actor.Actor, id string, input ports.LogisticsStatusInput) (*ports.ConsolidationView, error) {
	status, err := domain.ParseDeliveryStatus(input.Status)
	if err != nil {
		return nil, err
	}
	update := domain.DeliveryUpdate{
		Status:               status,
		Remarks:              input.Remarks,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
	}
	details := &domain.LogisticsDetails{
		Carrier:              input.Carrier,
		TrackingNumber:       input.TrackingNumber,
		CustomsDeclarationNo: input.CustomsDeclarationNo,
	}
	c, members, err := s.repo.UpdateConsolidation(ctx, id, func(c *domain.Consolidation, members []*domain.PurchaseOrder) error {
		return c.UpdateLogisticsStatus(update, details, members, by)
	})
	if err != nil {
		return nil, mapError(err)
	}
	recorded := c.Events()
	for _, po := range members {
		recorded = append(recorded, po.Events()...)
		po.ClearEvents()
	}
	c.ClearEvents()
	s.dispatcher.Dispatch(ctx, Notifications(recorded)...)
	return &ports.ConsolidationView{Consolidation: c, Members: members}, nil
}

// mutate runs fn inside the repository's locked update and notifies only after commit.
func (s *Service) mutate(ctx context.Context, poNo string, fn ports.PurchaseOrderMutation) (*domain.PurchaseOrder, error) {
	if strings.TrimSpace(poNo) == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidPONumber)
	}
	updated, err := s.repo.UpdatePurchaseOrder(ctx, poNo, fn)
	if err != nil {
		return nil, mapError(err)
	}
	if updated == nil {
		return nil, errors.New("repository returned no purchase order")
	}
	s.dispatcher.Dispatch(ctx, Notifications(updated.Events())...)
	updated.ClearEvents()
	return updated, nil
}

func normalizeNumbers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

var _ ports.Service = (*Service)(nil)
