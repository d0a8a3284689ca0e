package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

var (
	ErrInvalidPONumber    = errors.New("purchase order number is required")
	ErrPurchaseOrderEmpty = errors.New("purchase order requires at least one item")
	ErrInvalidPOItem      = errors.New("purchase order item requires a name and a positive quantity")
	ErrReasonRequired     = errors.New("reason is required")
)

// POItem is one line of a purchase order. Its delivery status mirrors the order's.
type POItem struct {
	LineNo         int64
	ItemName       string
	Quantity       float64
	Unit           string
	UnitPrice      float64
	SourceLineNo   int64
	Remarks        string
	DeliveryStatus DeliveryStatus
}

func (i *POItem) clone() *POItem {
	c := *i
	return &c
}

// RemarksEntry keeps the history of delivery remarks on an order.
type RemarksEntry struct {
	At     time.Time      `json:"at"`
	Actor  string         `json:"actor"`
	Status DeliveryStatus `json:"status"`
	Text   string         `json:"text"`
}

// DeliveryUpdate carries the optional fields sent with a delivery status change.
type DeliveryUpdate struct {
	Status               DeliveryStatus
	Remarks              *string
	ExpectedDeliveryDate *time.Time
}

// PurchaseOrder is the aggregate tracked by the delivery context.
type PurchaseOrder struct {
	PONo                 string
	SupplierID           string
	SupplierName         string
	SupplierRegion       SupplierRegion
	SourceRequisition    string
	PurchaseStatus       PurchaseStatus
	DeliveryStatus       DeliveryStatus
	ConsolidationID      *string
	StatusUpdateRequired bool
	ShippedAt            *time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Remarks              string
	RemarksHistory       []RemarksEntry
	Items                []*POItem
	CreatedAt            time.Time
	UpdatedAt            time.Time

	events []Event
	now    func() time.Time
}

// NewPurchaseOrder creates an order for supplier, stamping the supplier's region.
func NewPurchaseOrder(poNo string, supplier Supplier, sourceRequisition string, items []*POItem) (*PurchaseOrder, error) {
	po := &PurchaseOrder{
		PONo:              strings.TrimSpace(poNo),
		SupplierID:        supplier.ID,
		SupplierName:      supplier.Name,
		SupplierRegion:    supplier.Region,
		SourceRequisition: strings.TrimSpace(sourceRequisition),
		PurchaseStatus:    PurchaseOrderCreated,
		DeliveryStatus:    DeliveryNotShipped,
	}
	if po.PONo == "" {
		return nil, ErrInvalidPONumber
	}
	if err := supplier.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrPurchaseOrderEmpty
	}
	for i, item := range items {
		if item == nil || strings.TrimSpace(item.ItemName) == "" || item.Quantity <= 0 || item.UnitPrice < 0 {
			return nil, ErrInvalidPOItem
		}
		item.ItemName = strings.TrimSpace(item.ItemName)
		item.LineNo = int64(i + 1)
		item.DeliveryStatus = DeliveryNotShipped
		po.Items = append(po.Items, item)
	}
	po.CreatedAt = po.clock()
	po.UpdatedAt = po.CreatedAt
	return po, nil
}

// SetClock overrides the time source, used by tests.
func (po *PurchaseOrder) SetClock(now func() time.Time) {
	po.now = now
}

// IsConsolidated reports whether the order ships as part of a consolidation.
func (po *PurchaseOrder) IsConsolidated() bool {
	return po.ConsolidationID != nil
}

// ConfirmPurchase marks the order as bought and flags it for delivery tracking.
func (po *PurchaseOrder) ConfirmPurchase(by actor.Actor) error {
	if po.PurchaseStatus != PurchaseOrderCreated {
		return po.purchaseTransitionError("confirm", "")
	}
	po.setPurchaseStatus(PurchasePurchased, by)
	po.StatusUpdateRequired = true
	return nil
}

// Withdraw cancels an order that has not shipped yet.
func (po *PurchaseOrder) Withdraw(reason string, by actor.Actor) error {
	if po.PurchaseStatus == PurchaseCancelled {
		return po.purchaseTransitionError("withdraw", "")
	}
	if po.DeliveryStatus != DeliveryNotShipped {
		return po.deliveryTransitionError("withdraw", "order has already shipped")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	po.setPurchaseStatus(PurchaseCancelled, by)
	po.StatusUpdateRequired = false
	po.appendRemarks(reason, by, po.clock())
	return nil
}

// UpdateDeliveryStatus advances a purchased, unconsolidated order along the
// shipping route. Setting the current status again only updates remarks and
// the expected date.
func (po *PurchaseOrder) UpdateDeliveryStatus(update DeliveryUpdate, by actor.Actor) error {
	if !update.Status.Valid() {
		return &lifecycle.StatusError{Field: "delivery status", Value: string(update.Status)}
	}
	action := "set delivery status " + string(update.Status) + " on"
	if po.PurchaseStatus != PurchasePurchased {
		return po.purchaseTransitionError(action, "order is not purchased")
	}
	if po.IsConsolidated() {
		return po.deliveryTransitionError(action, "status is managed by consolidation "+*po.ConsolidationID)
	}
	if !po.SupplierRegion.Allows(update.Status) {
		return po.deliveryTransitionError(action, "domestic orders do not pass customs")
	}
	if update.Status.Rank() < po.DeliveryStatus.Rank() {
		return po.deliveryTransitionError(action, "delivery status cannot move backwards")
	}
	po.applyDelivery(update, by, false)
	return nil
}

// OverrideDeliveryStatus is the administrative correction path. It may move
// backwards but still honours the enum and the supplier region.
func (po *PurchaseOrder) OverrideDeliveryStatus(status DeliveryStatus, reason string, by actor.Actor) error {
	if !status.Valid() {
		return &lifecycle.StatusError{Field: "delivery status", Value: string(status)}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	action := "override delivery status to " + string(status) + " on"
	if po.PurchaseStatus == PurchaseCancelled {
		return po.purchaseTransitionError(action, "")
	}
	if !po.SupplierRegion.Allows(status) {
		return po.deliveryTransitionError(action, "domestic orders do not pass customs")
	}
	if po.IsConsolidated() && status.Rank() < DeliveryShipped.Rank() {
		return po.deliveryTransitionError(action, "consolidated orders must stay shipped")
	}
	remarks := "override: " + reason
	po.applyDelivery(DeliveryUpdate{Status: status, Remarks: &remarks}, by, true)
	return nil
}

// CheckConsolidationEligibility returns an *EligibilityError when the order
// cannot join a consolidation.
func (po *PurchaseOrder) CheckConsolidationEligibility() error {
	switch {
	case po.SupplierRegion != RegionInternational:
		return &EligibilityError{PONo: po.PONo, Reason: "supplier is not international"}
	case po.IsConsolidated():
		return &EligibilityError{PONo: po.PONo, Reason: "already in consolidation " + *po.ConsolidationID}
	case po.PurchaseStatus != PurchasePurchased:
		return &EligibilityError{PONo: po.PONo, Reason: "order is not purchased"}
	case po.DeliveryStatus != DeliveryShipped:
		return &EligibilityError{PONo: po.PONo, Reason: "delivery status is " + string(po.DeliveryStatus) + ", expected shipped"}
	}
	return nil
}

// Events returns the events recorded since the last ClearEvents.
func (po *PurchaseOrder) Events() []Event {
	return append([]Event(nil), po.events...)
}

func (po *PurchaseOrder) ClearEvents() {
	po.events = nil
}

// Clone returns a deep copy without pending events.
func (po *PurchaseOrder) Clone() *PurchaseOrder {
	if po == nil {
		return nil
	}
	c := *po
	c.events = nil
	c.ConsolidationID = cloneString(po.ConsolidationID)
	c.ShippedAt = cloneTime(po.ShippedAt)
	c.ExpectedDeliveryDate = cloneTime(po.ExpectedDeliveryDate)
	c.ActualDeliveryDate = cloneTime(po.ActualDeliveryDate)
	c.RemarksHistory = append([]RemarksEntry(nil), po.RemarksHistory...)
	c.Items = make([]*POItem, 0, len(po.Items))
	for _, item := range po.Items {
		c.Items = append(c.Items, item.clone())
	}
	return &c
}

func (po *PurchaseOrder) joinConsolidation(id string) {
	po.ConsolidationID = &id
	po.UpdatedAt = po.clock()
}

// applyDelivery writes a status change that has already been validated.
func (po *PurchaseOrder) applyDelivery(update DeliveryUpdate, by actor.Actor, override bool) {
	now := po.clock()
	from := po.DeliveryStatus
	if update.Status.Rank() >= DeliveryShipped.Rank() && po.ShippedAt == nil {
		po.ShippedAt = &now
	}
	if update.Status == DeliveryDelivered && po.ActualDeliveryDate == nil {
		po.ActualDeliveryDate = &now
	}
	if update.ExpectedDeliveryDate != nil {
		po.ExpectedDeliveryDate = cloneTime(update.ExpectedDeliveryDate)
	}
	po.DeliveryStatus = update.Status
	for _, item := range po.Items {
		item.DeliveryStatus = update.Status
	}
	if update.Remarks != nil {
		remarks := strings.TrimSpace(*update.Remarks)
		po.Remarks = remarks
		for _, item := range po.Items {
			item.Remarks = remarks
		}
		if remarks != "" {
			po.appendRemarks(remarks, by, now)
		}
	}
	po.StatusUpdateRequired = false
	po.UpdatedAt = now
	if from != update.Status {
		po.events = append(po.events, DeliveryStatusChanged{
			BaseEvent: BaseEvent{Timestamp: now},
			PONo:      po.PONo,
			From:      from,
			To:        update.Status,
			Actor:     by.ID,
			Override:  override,
		})
	}
}

func (po *PurchaseOrder) appendRemarks(text string, by actor.Actor, at time.Time) {
	po.RemarksHistory = append(po.RemarksHistory, RemarksEntry{
		At:     at,
		Actor:  by.ID,
		Status: po.DeliveryStatus,
		Text:   text,
	})
}

func (po *PurchaseOrder) setPurchaseStatus(to PurchaseStatus, by actor.Actor) {
	now := po.clock()
	from := po.PurchaseStatus
	po.PurchaseStatus = to
	po.UpdatedAt = now
	po.events = append(po.events, PurchaseStatusChanged{
		BaseEvent: BaseEvent{Timestamp: now},
		PONo:      po.PONo,
		From:      from,
		To:        to,
		Actor:     by.ID,
	})
}

func (po *PurchaseOrder) clock() time.Time {
	if po.now != nil {
		return po.now().UTC()
	}
	return time.Now().UTC()
}

func (po *PurchaseOrder) purchaseTransitionError(action, reason string) error {
	return &lifecycle.TransitionError{
		Entity: "purchase order",
		ID:     po.PONo,
		From:   string(po.PurchaseStatus),
		Action: action,
		Reason: reason,
	}
}

func (po *PurchaseOrder) deliveryTransitionError(action, reason string) error {
	return &lifecycle.TransitionError{
		Entity: "purchase order",
		ID:     po.PONo,
		From:   string(po.DeliveryStatus),
		Action: action,
		Reason: reason,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
