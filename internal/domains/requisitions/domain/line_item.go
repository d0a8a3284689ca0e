package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

var (
	ErrInvalidItemName    = errors.New("line item name is required")
	ErrInvalidQuantity    = errors.New("line item quantity must be greater than zero")
	ErrSupplierRequired   = errors.New("supplier is required to approve a line item")
	ErrInvalidUnitPrice   = errors.New("unit price must be greater than zero")
	ErrReasonRequired     = errors.New("a reason is required")
	ErrLineItemNotFound   = errors.New("line item not found")
	ErrRequisitionNoItems = errors.New("requisition has no line items")
	ErrInvalidOrderNumber = errors.New("requisition number is required")
	ErrInvalidRequester   = errors.New("requester is required")
)

// LineItem is one requested good inside a requisition. Its transitions are
// only reachable through the owning Requisition.
type LineItem struct {
	OrderNo       string
	LineNo        int64
	ItemName      string
	Specification string
	Quantity      float64
	Unit          string
	Status        ItemStatus
	SupplierID    *string
	UnitPrice     *float64
	StatusNote    string
	ReviewedBy    string
	ReviewedAt    *time.Time
}

// NewLineItem validates a draft line item. The line number is assigned when it joins a requisition.
func NewLineItem(name, specification string, quantity float64, unit string) (*LineItem, error) {
	item := &LineItem{
		ItemName:      strings.TrimSpace(name),
		Specification: strings.TrimSpace(specification),
		Quantity:      quantity,
		Unit:          strings.TrimSpace(unit),
		Status:        ItemDraft,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate enforces the field-level invariants of a line item.
func (i *LineItem) Validate() error {
	if i.ItemName == "" {
		return ErrInvalidItemName
	}
	if i.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !i.Status.Valid() {
		return &lifecycle.StatusError{Field: "line item status", Value: string(i.Status)}
	}
	return nil
}

// IsPending reports whether the item still awaits a reviewer decision.
func (i *LineItem) IsPending() bool {
	return i.Status.IsPending()
}

// Clone returns a deep copy.
func (i *LineItem) Clone() *LineItem {
	if i == nil {
		return nil
	}
	c := *i
	if i.SupplierID != nil {
		v := *i.SupplierID
		c.SupplierID = &v
	}
	if i.UnitPrice != nil {
		v := *i.UnitPrice
		c.UnitPrice = &v
	}
	if i.ReviewedAt != nil {
		v := *i.ReviewedAt
		c.ReviewedAt = &v
	}
	return &c
}

func (i *LineItem) approve(supplierID string, unitPrice float64, note string, by actor.Actor, at time.Time) error {
	if i.Status != ItemPendingReview && i.Status != ItemQuestioned {
		return i.transitionError("approve")
	}
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return ErrSupplierRequired
	}
	if unitPrice <= 0 {
		return ErrInvalidUnitPrice
	}
	i.Status = ItemApproved
	i.SupplierID = &supplierID
	i.UnitPrice = &unitPrice
	if note = strings.TrimSpace(note); note != "" {
		i.appendNote(by, note)
	}
	i.stamp(by, at)
	return nil
}

func (i *LineItem) reject(reason string, by actor.Actor, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	switch i.Status {
	case ItemRejected:
		i.StatusNote = formatNote(by, reason)
		return nil
	case ItemPendingReview, ItemQuestioned:
	default:
		return i.transitionError("reject")
	}
	i.Status = ItemRejected
	i.StatusNote = formatNote(by, reason)
	i.stamp(by, at)
	return nil
}

func (i *LineItem) question(reason string, by actor.Actor, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	switch i.Status {
	case ItemQuestioned:
		i.StatusNote = formatNote(by, reason)
		return nil
	case ItemPendingReview:
	default:
		return i.transitionError("question")
	}
	i.Status = ItemQuestioned
	i.StatusNote = formatNote(by, reason)
	i.stamp(by, at)
	return nil
}

func (i *LineItem) markUnavailable(reason string, by actor.Actor, at time.Time) error {
	if i.Status != ItemPendingReview && i.Status != ItemApproved {
		return i.transitionError("mark unavailable")
	}
	i.Status = ItemUnavailable
	i.SupplierID = nil
	i.UnitPrice = nil
	if reason = strings.TrimSpace(reason); reason != "" {
		i.appendNote(by, reason)
	}
	i.stamp(by, at)
	return nil
}

func (i *LineItem) cancel(reason string, by actor.Actor) {
	i.Status = ItemCancelled
	i.SupplierID = nil
	i.UnitPrice = nil
	i.appendNote(by, "cancelled: "+reason)
}

func (i *LineItem) editNote(note string) error {
	if i.Status == ItemCancelled {
		return i.transitionError("edit note of")
	}
	i.StatusNote = strings.TrimSpace(note)
	return nil
}

func (i *LineItem) appendNote(by actor.Actor, text string) {
	entry := formatNote(by, text)
	if i.StatusNote == "" {
		i.StatusNote = entry
		return
	}
	i.StatusNote += "\n" + entry
}

func (i *LineItem) stamp(by actor.Actor, at time.Time) {
	i.ReviewedBy = by.ID
	i.ReviewedAt = &at
}

func (i *LineItem) transitionError(action string) error {
	return &lifecycle.TransitionError{
		Entity: "line item",
		ID:     fmt.Sprintf("#%d", i.LineNo),
		From:   string(i.Status),
		Action: action,
	}
}

func formatNote(by actor.Actor, text string) string {
	return fmt.Sprintf("[%s] %s", by, text)
}
