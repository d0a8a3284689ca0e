package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
)

var ErrNotFound = errors.New("requisition not found")

// ListFilter narrows requisition listings. Zero values match everything.
type ListFilter struct {
	Status    domain.OrderStatus
	Requester string
}

// MutateFunc applies a change to a loaded requisition. Returning an error aborts the change.
type MutateFunc func(req *domain.Requisition) error

// Repository persists requisitions with their line items.
type Repository interface {
	// NextOrderNo reserves the next REQ<yyyymmdd><seq> number for the given day.
	NextOrderNo(ctx context.Context, day time.Time) (string, error)
	Create(ctx context.Context, req *domain.Requisition) (*domain.Requisition, error)
	Get(ctx context.Context, orderNo string) (*domain.Requisition, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Requisition, error)
	// Update loads the requisition under an exclusive lock, applies fn and
	// persists the aggregate atomically. Nothing is written when fn fails.
	// The returned requisition still carries the events recorded by fn.
	Update(ctx context.Context, orderNo string, fn MutateFunc) (*domain.Requisition, error)
}
