package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/docnum"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory requisition store. Update holds the write lock
// while the mutation runs, which serializes changes like a row lock would.
type Repository struct {
	mu      sync.RWMutex
	orders  map[string]*domain.Requisition
	numbers *docnum.Counter
}

func NewRepository() *Repository {
	return &Repository{orders: map[string]*domain.Requisition{}, numbers: docnum.NewCounter()}
}

func (r *Repository) NextOrderNo(_ context.Context, day time.Time) (string, error) {
	return r.numbers.Next(docnum.PrefixRequisition, day), nil
}

func (r *Repository) Create(_ context.Context, req *domain.Requisition) (*domain.Requisition, error) {
	if req == nil {
		return nil, errors.New("requisition is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[req.OrderNo]; exists {
		return nil, errors.New("requisition " + req.OrderNo + " already exists")
	}
	r.orders[req.OrderNo] = req.Clone()
	return req.Clone(), nil
}

// Put stores req as-is, replacing any existing requisition. It lets tests and
// fixtures seed states the aggregate API would not produce.
func (r *Repository) Put(req *domain.Requisition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[req.OrderNo] = req.Clone()
}

func (r *Repository) Get(_ context.Context, orderNo string) (*domain.Requisition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.orders[orderNo]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return req.Clone(), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Requisition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Requisition, 0, len(r.orders))
	for _, req := range r.orders {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Requester != "" && req.Requester != filter.Requester {
			continue
		}
		list = append(list, req.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].OrderNo < list[j].OrderNo })
	return list, nil
}

func (r *Repository) Update(_ context.Context, orderNo string, fn ports.MutateFunc) (*domain.Requisition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[orderNo]
	if !ok {
		return nil, ports.ErrNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	r.orders[orderNo] = working.Clone()
	return working, nil
}

// Reset removes every requisition, used to reset fixtures between contract tests.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = map[string]*domain.Requisition{}
}
