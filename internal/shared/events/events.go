// Package events defines the status-change notification contract shared by
// the procurement bounded contexts.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Aggregate kinds that emit status changes.
const (
	AggregateRequisition   = "requisition"
	AggregatePurchaseOrder = "purchase_order"
	AggregateConsolidation = "consolidation"
	AggregateLineItem      = "requisition_line_item"
	// AggregatePurchase tracks the buying side of a purchase order.
	AggregatePurchase      = "purchase_order_purchase"
)

// StatusChanged is published after a committed status transition.
type StatusChanged struct {
	ID          string    `json:"id"`
	Aggregate   string    `json:"aggregate"`
	AggregateID string    `json:"aggregateId"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Actor       string    `json:"actor,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// NewStatusChanged stamps a fresh event identifier.
func NewStatusChanged(aggregate, aggregateID, from, to, actor string, at time.Time) StatusChanged {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return StatusChanged{
		ID:          uuid.NewString(),
		Aggregate:   aggregate,
		AggregateID: aggregateID,
		From:        from,
		To:          to,
		Actor:       actor,
		OccurredAt:  at,
	}
}

// Publisher delivers status change notifications to an external channel.
type Publisher interface {
	Publish(ctx context.Context, event StatusChanged) error
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(ctx context.Context, event StatusChanged) error

func (f PublisherFunc) Publish(ctx context.Context, event StatusChanged) error {
	return f(ctx, event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, StatusChanged) error { return nil }

// Dispatcher publishes events without letting delivery failures reach the caller.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewDispatcher wraps publisher. A nil publisher disables delivery.
func NewDispatcher(publisher Publisher, logger *slog.Logger) *Dispatcher {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{publisher: publisher, logger: logger}
}

// Dispatch hands every event to the publisher and logs failures.
func (d *Dispatcher) Dispatch(ctx context.Context, batch ...StatusChanged) {
	if d == nil {
		return
	}
	for _, event := range batch {
		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.WarnContext(ctx, "status change notification failed",
				slog.String("aggregate", event.Aggregate),
				slog.String("aggregate.id", event.AggregateID),
				slog.String("to", event.To),
				slog.String("error", err.Error()))
		}
	}
}
