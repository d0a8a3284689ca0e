package domain

import (
	"strings"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

// DeliveryStatus tracks a shipment from the supplier to the warehouse.
type DeliveryStatus string

const (
	DeliveryNotShipped     DeliveryStatus = "not_shipped"
	DeliveryShipped        DeliveryStatus = "shipped"
	DeliveryForeignCustoms DeliveryStatus = "foreign_customs"
	DeliveryTaiwanCustoms  DeliveryStatus = "taiwan_customs"
	DeliveryInTransit      DeliveryStatus = "in_transit"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

var deliveryRank = map[DeliveryStatus]int{
	DeliveryNotShipped:     0,
	DeliveryShipped:        1,
	DeliveryForeignCustoms: 2,
	DeliveryTaiwanCustoms:  3,
	DeliveryInTransit:      4,
	DeliveryDelivered:      5,
}

// Rank orders statuses along the shipping route; -1 for unknown values.
func (s DeliveryStatus) Rank() int {
	if r, ok := deliveryRank[s]; ok {
		return r
	}
	return -1
}

func (s DeliveryStatus) Valid() bool {
	_, ok := deliveryRank[s]
	return ok
}

// IsCustoms reports whether the status is a customs clearance stage.
func (s DeliveryStatus) IsCustoms() bool {
	return s == DeliveryForeignCustoms || s == DeliveryTaiwanCustoms
}

// ParseDeliveryStatus validates a delivery status value.
func ParseDeliveryStatus(raw string) (DeliveryStatus, error) {
	status := DeliveryStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", &lifecycle.StatusError{Field: "delivery status", Value: raw}
	}
	return status, nil
}

// SupplierRegion decides which delivery statuses apply to a supplier's orders.
type SupplierRegion string

const (
	RegionDomestic      SupplierRegion = "domestic"
	RegionInternational SupplierRegion = "international"
)

func ParseSupplierRegion(raw string) (SupplierRegion, error) {
	region := SupplierRegion(strings.ToLower(strings.TrimSpace(raw)))
	switch region {
	case RegionDomestic, RegionInternational:
		return region, nil
	default:
		return "", &lifecycle.StatusError{Field: "supplier region", Value: raw}
	}
}

// Allows reports whether orders from this region may enter status.
// Domestic shipments never pass customs.
func (r SupplierRegion) Allows(status DeliveryStatus) bool {
	if r == RegionDomestic {
		return !status.IsCustoms()
	}
	return true
}

// PurchaseStatus tracks the buying side of a purchase order.
type PurchaseStatus string

const (
	PurchaseOrderCreated PurchaseStatus = "order_created"
	PurchasePurchased    PurchaseStatus = "purchased"
	PurchaseCancelled    PurchaseStatus = "cancelled"
)

func ParsePurchaseStatus(raw string) (PurchaseStatus, error) {
	status := PurchaseStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case PurchaseOrderCreated, PurchasePurchased, PurchaseCancelled:
		return status, nil
	default:
		return "", &lifecycle.StatusError{Field: "purchase status", Value: raw}
	}
}
