package domain

import "time"

// Event is implemented by every delivery domain event.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	Timestamp time.Time
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// DeliveryStatusChanged is raised when a purchase order moves along the shipping route.
type DeliveryStatusChanged struct {
	BaseEvent
	PONo     string
	From     DeliveryStatus
	To       DeliveryStatus
	Actor    string
	Override bool
}

func (e DeliveryStatusChanged) EventName() string {
	return "delivery.purchase_order.delivery_status_changed"
}

// PurchaseStatusChanged is raised when a purchase order is confirmed or withdrawn.
type PurchaseStatusChanged struct {
	BaseEvent
	PONo  string
	From  PurchaseStatus
	To    PurchaseStatus
	Actor string
}

func (e PurchaseStatusChanged) EventName() string {
	return "delivery.purchase_order.purchase_status_changed"
}

// LogisticsStatusChanged is raised when a consolidation advances.
type LogisticsStatusChanged struct {
	BaseEvent
	ConsolidationID string
	From            DeliveryStatus
	To              DeliveryStatus
	Actor           string
}

func (e LogisticsStatusChanged) EventName() string {
	return "delivery.consolidation.logistics_status_changed"
}
