package ports

import (
	"context"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

// ItemInput describes a requested good.
type ItemInput struct {
	ItemName      string
	Specification string
	Quantity      float64
	Unit          string
}

// CreateInput carries a new draft requisition.
type CreateInput struct {
	Requester      string
	Items          []ItemInput
	IdempotencyKey string
}

// ApproveInput selects the supplier and price for a line item.
type ApproveInput struct {
	OrderNo    string
	LineNo     int64
	SupplierID string
	UnitPrice  float64
	Note       string
}

// DecisionInput addresses a line item with a reason or note.
type DecisionInput struct {
	OrderNo string
	LineNo  int64
	Reason  string
}

// QuestionedItem is a line item waiting on the requester's answer.
type QuestionedItem struct {
	OrderNo   string
	Requester string
	Item      *domain.LineItem
}

// Service exposes the requisition review use cases to adapters.
type Service interface {
	Create(ctx context.Context, by actor.Actor, input CreateInput) (*domain.Requisition, error)
	Get(ctx context.Context, orderNo string) (*domain.Requisition, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Requisition, error)
	Summary(ctx context.Context, orderNo string) (domain.Summary, error)
	QuestionedItems(ctx context.Context) ([]QuestionedItem, error)

	Submit(ctx context.Context, by actor.Actor, orderNo string) (*domain.Requisition, error)
	Cancel(ctx context.Context, by actor.Actor, orderNo, reason string) (*domain.Requisition, error)
	RejectRemaining(ctx context.Context, by actor.Actor, orderNo, reason string) (*domain.Requisition, error)

	ApproveItem(ctx context.Context, by actor.Actor, input ApproveInput) (*domain.Requisition, error)
	RejectItem(ctx context.Context, by actor.Actor, input DecisionInput) (*domain.Requisition, error)
	QuestionItem(ctx context.Context, by actor.Actor, input DecisionInput) (*domain.Requisition, error)
	MarkItemUnavailable(ctx context.Context, by actor.Actor, input DecisionInput) (*domain.Requisition, error)
	UpdateItemNote(ctx context.Context, by actor.Actor, input DecisionInput) (*domain.Requisition, error)
}
