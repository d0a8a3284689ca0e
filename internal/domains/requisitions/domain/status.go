package domain

import (
	"strings"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

// ItemStatus enumerates the review state of a single line item.
type ItemStatus string

const (
	ItemDraft         ItemStatus = "draft"
	ItemPendingReview ItemStatus = "pending_review"
	ItemApproved      ItemStatus = "approved"
	ItemRejected      ItemStatus = "rejected"
	ItemQuestioned    ItemStatus = "questioned"
	ItemUnavailable   ItemStatus = "unavailable"
	ItemCancelled     ItemStatus = "cancelled"
)

// legacyItemStatuses maps values written by older releases onto the current enum.
var legacyItemStatuses = map[string]ItemStatus{
	"submitted": ItemPendingReview,
}

// IsPending is the one predicate deciding whether an item still awaits a decision.
func (s ItemStatus) IsPending() bool {
	return s == ItemDraft || s == ItemPendingReview
}

// Valid reports whether s is a member of the enum.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemDraft, ItemPendingReview, ItemApproved, ItemRejected, ItemQuestioned, ItemUnavailable, ItemCancelled:
		return true
	default:
		return false
	}
}

// ParseItemStatus accepts current and legacy spellings.
func ParseItemStatus(raw string) (ItemStatus, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if legacy, ok := legacyItemStatuses[value]; ok {
		return legacy, nil
	}
	status := ItemStatus(value)
	if !status.Valid() {
		return "", &lifecycle.StatusError{Field: "line item status", Value: raw}
	}
	return status, nil
}

// OrderStatus enumerates requisition-level progression.
type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderSubmitted OrderStatus = "submitted"
	OrderReviewed  OrderStatus = "reviewed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderSubmitted, OrderReviewed, OrderCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus validates a requisition status value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", &lifecycle.StatusError{Field: "requisition status", Value: raw}
	}
	return status, nil
}
