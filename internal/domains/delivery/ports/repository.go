package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
)

var (
	ErrPurchaseOrderNotFound = errors.New("purchase order not found")
	ErrSupplierNotFound      = errors.New("supplier not found")
	ErrConsolidationNotFound = errors.New("consolidation not found")
	ErrSupplierExists        = errors.New("supplier already exists")
)

// ListView selects one of the delivery maintenance listings.
type ListView string

const (
	// ViewAll lists every purchase order.
	ViewAll ListView = ""
	// ViewDelivery lists orders maintained one by one: domestic orders and
	// international orders outside any consolidation.
	ViewDelivery ListView = "delivery"
	// ViewConsolidation lists international orders that belong to a consolidation.
	ViewConsolidation ListView = "consolidation"
)

// Matches reports whether po belongs in the view.
func (v ListView) Matches(po *domain.PurchaseOrder) bool {
	switch v {
	case ViewDelivery:
		return po.SupplierRegion == domain.RegionDomestic || !po.IsConsolidated()
	case ViewConsolidation:
		return po.SupplierRegion == domain.RegionInternational && po.IsConsolidated()
	default:
		return true
	}
}

// PurchaseOrderFilter narrows purchase order listings. Zero values match everything.
type PurchaseOrderFilter struct {
	View           ListView
	DeliveryStatus domain.DeliveryStatus
	SupplierID     string
}

type (
	// PurchaseOrderMutation applies a change to one locked purchase order.
	PurchaseOrderMutation func(po *domain.PurchaseOrder) error
	// ConsolidateFunc builds a consolidation from the locked orders, assigning them as members.
	ConsolidateFunc func(orders []*domain.PurchaseOrder) (*domain.Consolidation, error)
	// ConsolidationMutation applies a change to a locked consolidation and its member orders.
	ConsolidationMutation func(c *domain.Consolidation, members []*domain.PurchaseOrder) error
)

type SupplierRepository interface {
	CreateSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]*domain.Supplier, error)
}

// Repository persists purchase orders and consolidations. Every mutating
// call locks what it touches and writes atomically; nothing is stored when
// the callback fails.
type Repository interface {
	SupplierRepository

	NextPONo(ctx context.Context, day time.Time) (string, error)
	CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) (*domain.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, poNo string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]*domain.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, poNo string, fn PurchaseOrderMutation) (*domain.PurchaseOrder, error)

	NextConsolidationID(ctx context.Context, day time.Time) (string, error)
	// Consolidate locks the named orders, passes them to fn in the given order
	// and stores the returned consolidation with the updated orders.
	Consolidate(ctx context.Context, poNos []string, fn ConsolidateFunc) (*domain.Consolidation, error)
	// AddToConsolidation locks the consolidation and the named orders, then stores both.
	AddToConsolidation(ctx context.Context, id string, poNos []string, fn func(c *domain.Consolidation, orders []*domain.PurchaseOrder) error) (*domain.Consolidation, error)
	GetConsolidation(ctx context.Context, id string) (*domain.Consolidation, []*domain.PurchaseOrder, error)
	ListConsolidations(ctx context.Context) ([]*domain.Consolidation, error)
	UpdateConsolidation(ctx context.Context, id string, fn ConsolidationMutation) (*domain.Consolidation, []*domain.PurchaseOrder, error)
}
