package domain

import "time"

// Event is implemented by every requisition domain event.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// RequisitionStatusChanged is raised whenever the requisition status moves.
type RequisitionStatusChanged struct {
	BaseEvent
	OrderNo string
	From    OrderStatus
	To      OrderStatus
	Actor   string
}

func (e RequisitionStatusChanged) EventName() string {
	return "requisitions.requisition.status_changed"
}

// LineItemDecided is raised when a reviewer moves a line item.
type LineItemDecided struct {
	BaseEvent
	OrderNo string
	LineNo  int64
	From    ItemStatus
	To      ItemStatus
	Actor   string
}

func (e LineItemDecided) EventName() string {
	return "requisitions.line_item.decided"
}
