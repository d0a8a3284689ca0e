package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/docnum"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps suppliers, purchase orders and consolidations in memory.
// A single mutex guards all three maps so consolidation writes stay atomic.
type Repository struct {
	mu             sync.RWMutex
	suppliers      map[string]*domain.Supplier
	orders         map[string]*domain.PurchaseOrder
	consolidations map[string]*domain.Consolidation
	numbers        *docnum.Counter
}

func NewRepository() *Repository {
	r := &Repository{numbers: docnum.NewCounter()}
	r.reset()
	return r
}

func (r *Repository) CreateSupplier(_ context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	if supplier == nil {
		return nil, errors.New("supplier is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.suppliers[supplier.ID]; exists {
		return nil, ports.ErrSupplierExists
	}
	now := time.Now().UTC()
	stored := *supplier
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.suppliers[supplier.ID] = &stored
	out := stored
	return &out, nil
}

func (r *Repository) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.suppliers[id]
	if !ok {
		return nil, ports.ErrSupplierNotFound
	}
	out := *s
	return &out, nil
}

func (r *Repository) ListSuppliers(_ context.Context) ([]*domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		out := *s
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) NextPONo(_ context.Context, day time.Time) (string, error) {
	return r.numbers.Next(docnum.PrefixPurchaseOrder, day), nil
}

func (r *Repository) NextConsolidationID(_ context.Context, day time.Time) (string, error) {
	return r.numbers.Next(docnum.PrefixConsolidation, day), nil
}

func (r *Repository) CreatePurchaseOrder(_ context.Context, po *domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if po == nil {
		return nil, errors.New("purchase order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[po.PONo]; exists {
		return nil, errors.New("purchase order " + po.PONo + " already exists")
	}
	r.orders[po.PONo] = po.Clone()
	return po.Clone(), nil
}

// PutPurchaseOrder stores po as-is, letting tests seed arbitrary states.
func (r *Repository) PutPurchaseOrder(po *domain.PurchaseOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[po.PONo] = po.Clone()
}

func (r *Repository) GetPurchaseOrder(_ context.Context, poNo string) (*domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	po, ok := r.orders[poNo]
	if !ok {
		return nil, ports.ErrPurchaseOrderNotFound
	}
	return po.Clone(), nil
}

func (r *Repository) ListPurchaseOrders(_ context.Context, filter ports.PurchaseOrderFilter) ([]*domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.PurchaseOrder, 0, len(r.orders))
	for _, po := range r.orders {
		if !filter.View.Matches(po) {
			continue
		}
		if filter.DeliveryStatus != "" && po.DeliveryStatus != filter.DeliveryStatus {
			continue
		}
		if filter.SupplierID != "" && po.SupplierID != filter.SupplierID {
			continue
		}
		list = append(list, po.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PONo < list[j].PONo })
	return list, nil
}

func (r *Repository) UpdatePurchaseOrder(_ context.Context, poNo string, fn ports.PurchaseOrderMutation) (*domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[poNo]
	if !ok {
		return nil, ports.ErrPurchaseOrderNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	r.orders[poNo] = working.Clone()
	return working, nil
}

func (r *Repository) Consolidate(_ context.Context, poNos []string, fn ports.ConsolidateFunc) (*domain.Consolidation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	working, err := r.workingOrders(poNos)
	if err != nil {
		return nil, err
	}
	c, err := fn(working)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("consolidation is nil")
	}
	if _, exists := r.consolidations[c.ID]; exists {
		return nil, errors.New("consolidation " + c.ID + " already exists")
	}
	r.consolidations[c.ID] = c.Clone()
	r.storeOrders(working)
	return c, nil
}

func (r *Repository) AddToConsolidation(_ context.Context, id string, poNos []string, fn func(*domain.Consolidation, []*domain.PurchaseOrder) error) (*domain.Consolidation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.consolidations[id]
	if !ok {
		return nil, ports.ErrConsolidationNotFound
	}
	working, err := r.workingOrders(poNos)
	if err != nil {
		return nil, err
	}
	c := current.Clone()
	if err := fn(c, working); err != nil {
		return nil, err
	}
	r.consolidations[id] = c.Clone()
	r.storeOrders(working)
	return c, nil
}

func (r *Repository) GetConsolidation(_ context.Context, id string) (*domain.Consolidation, []*domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consolidations[id]
	if !ok {
		return nil, nil, ports.ErrConsolidationNotFound
	}
	members, err := r.workingOrders(c.Members)
	if err != nil {
		return nil, nil, err
	}
	return c.Clone(), members, nil
}

func (r *Repository) ListConsolidations(_ context.Context) ([]*domain.Consolidation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Consolidation, 0, len(r.consolidations))
	for _, c := range r.consolidations {
		list = append(list, c.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) UpdateConsolidation(_ context.Context, id string, fn ports.ConsolidationMutation) (*domain.Consolidation, []*domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.consolidations[id]
	if !ok {
		return nil, nil, ports.ErrConsolidationNotFound
	}
	members, err := r.workingOrders(current.Members)
	if err != nil {
		return nil, nil, err
	}
	c := current.Clone()
	if err := fn(c, members); err != nil {
		return nil, nil, err
	}
	r.consolidations[id] = c.Clone()
	r.storeOrders(members)
	return c, members, nil
}

// Reset drops every stored entity, used between contract test states.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

func (r *Repository) reset() {
	r.suppliers = map[string]*domain.Supplier{}
	r.orders = map[string]*domain.PurchaseOrder{}
	r.consolidations = map[string]*domain.Consolidation{}
}

// workingOrders clones the named orders in the given order. Callers hold the lock.
func (r *Repository) workingOrders(poNos []string) ([]*domain.PurchaseOrder, error) {
	out := make([]*domain.PurchaseOrder, 0, len(poNos))
	for _, no := range poNos {
		po, ok := r.orders[no]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ports.ErrPurchaseOrderNotFound, no)
		}
		out = append(out, po.Clone())
	}
	return out, nil
}

func (r *Repository) storeOrders(orders []*domain.PurchaseOrder) {
	for _, po := range orders {
		r.orders[po.PONo] = po.Clone()
	}
}
