package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

type SupplierInput struct {
	ID     string
	Name   string
	Region string
}

type POItemInput struct {
	ItemName     string
	Quantity     float64
	Unit         string
	UnitPrice    float64
	SourceLineNo int64
}

type CreatePurchaseOrderInput struct {
	SupplierID        string
	SourceRequisition string
	Items             []POItemInput
}

// DeliveryStatusInput is a raw status change as received from a client.
type DeliveryStatusInput struct {
	Status               string
	Remarks              *string
	ExpectedDeliveryDate *time.Time
}

type OverrideInput struct {
	Status string
	Reason string
}

type CreateConsolidationInput struct {
	Name                 string
	PurchaseOrders       []string
	Carrier              string
	TrackingNumber       string
	CustomsDeclarationNo string
}

type LogisticsStatusInput struct {
	DeliveryStatusInput
	Carrier              string
	TrackingNumber       string
	CustomsDeclarationNo string
}

// ConsolidationView is a consolidation with its member orders.
type ConsolidationView struct {
	Consolidation *domain.Consolidation
	Members       []*domain.PurchaseOrder
}

// Service exposes the delivery tracking use cases to adapters.
type Service interface {
	CreateSupplier(ctx context.Context, input SupplierInput) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]*domain.Supplier, error)

	CreatePurchaseOrder(ctx context.Context, by actor.Actor, input CreatePurchaseOrderInput) (*domain.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, poNo string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]*domain.PurchaseOrder, error)
	ConfirmPurchase(ctx context.Context, by actor.Actor, poNo string) (*domain.PurchaseOrder, error)
	Withdraw(ctx context.Context, by actor.Actor, poNo, reason string) (*domain.PurchaseOrder, error)
	UpdateDeliveryStatus(ctx context.Context, by actor.Actor, poNo string, input DeliveryStatusInput) (*domain.PurchaseOrder, error)
	OverrideDeliveryStatus(ctx context.Context, by actor.Actor, poNo string, input OverrideInput) (*domain.PurchaseOrder, error)

	CreateConsolidation(ctx context.Context, by actor.Actor, input CreateConsolidationInput) (*ConsolidationView, error)
	AddToConsolidation(ctx context.Context, by actor.Actor, id string, poNos []string) (*ConsolidationView, error)
	GetConsolidation(ctx context.Context, id string) (*ConsolidationView, error)
	ListConsolidations(ctx context.Context) ([]*domain.Consolidation, error)
	UpdateLogisticsStatus(ctx context.Context, by actor.Actor, id string, input LogisticsStatusInput) (*ConsolidationView, error)
}
