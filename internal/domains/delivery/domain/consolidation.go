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
	// ErrNotEligible signals a purchase order that cannot join a consolidation.
	ErrNotEligible = errors.New("purchase order not eligible for consolidation")

	ErrInvalidConsolidationID = errors.New("consolidation id is required")
	ErrMembersMismatch        = errors.New("consolidation members do not match the loaded purchase orders")
)

// EligibilityError names the purchase order that blocked a consolidation.
type EligibilityError struct {
	PONo   string
	Reason string
}

func (e *EligibilityError) Error() string {
	if e.PONo == "" {
		return fmt.Sprintf("%s: %s", ErrNotEligible, e.Reason)
	}
	return fmt.Sprintf("purchase order %s not eligible for consolidation: %s", e.PONo, e.Reason)
}

func (e *EligibilityError) Unwrap() error { return ErrNotEligible }

// LogisticsDetails are the carrier fields of a consolidated shipment.
type LogisticsDetails struct {
	Carrier              string
	TrackingNumber       string
	CustomsDeclarationNo string
}

// Consolidation groups shipped international purchase orders into one
// shipment whose logistics status drives every member.
type Consolidation struct {
	ID                   string
	Name                 string
	LogisticsStatus      DeliveryStatus
	Carrier              string
	TrackingNumber       string
	CustomsDeclarationNo string
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Remarks              string
	Members              []string
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	events []Event
	now    func() time.Time
}

// NewConsolidation checks every order and, when all are eligible, assigns
// them to the new consolidation. Nothing is modified on failure.
func NewConsolidation(id, name string, orders []*PurchaseOrder, details LogisticsDetails, by actor.Actor) (*Consolidation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidConsolidationID
	}
	if err := checkMembers(orders); err != nil {
		return nil, err
	}
	c := &Consolidation{
		ID:                   id,
		Name:                 strings.TrimSpace(name),
		LogisticsStatus:      DeliveryShipped,
		Carrier:              strings.TrimSpace(details.Carrier),
		TrackingNumber:       strings.TrimSpace(details.TrackingNumber),
		CustomsDeclarationNo: strings.TrimSpace(details.CustomsDeclarationNo),
		CreatedBy:            by.ID,
	}
	if c.Name == "" {
		c.Name = id
	}
	for _, po := range orders {
		po.joinConsolidation(id)
		c.Members = append(c.Members, po.PONo)
	}
	c.CreatedAt = c.clock()
	c.UpdatedAt = c.CreatedAt
	return c, nil
}

// SetClock overrides the time source, used by tests.
func (c *Consolidation) SetClock(now func() time.Time) {
	c.now = now
}

// AddMembers attaches more eligible orders while the shipment is still at its first stage.
func (c *Consolidation) AddMembers(orders []*PurchaseOrder) error {
	if c.LogisticsStatus != DeliveryShipped {
		return c.transitionError("add purchase orders to", "shipment has left the first stage")
	}
	if err := checkMembers(orders); err != nil {
		return err
	}
	for _, po := range orders {
		if c.HasMember(po.PONo) {
			return &EligibilityError{PONo: po.PONo, Reason: "already a member"}
		}
	}
	for _, po := range orders {
		po.joinConsolidation(c.ID)
		c.Members = append(c.Members, po.PONo)
	}
	c.UpdatedAt = c.clock()
	return nil
}

// UpdateLogisticsStatus advances the consolidation and cascades status,
// stamps and remarks to every member order. members must be exactly the
// consolidation's orders.
func (c *Consolidation) UpdateLogisticsStatus(update DeliveryUpdate, details *LogisticsDetails, members []*PurchaseOrder, by actor.Actor) error {
	if !update.Status.Valid() || update.Status == DeliveryNotShipped {
		return &lifecycle.StatusError{Field: "logistics status", Value: string(update.Status)}
	}
	if update.Status.Rank() < c.LogisticsStatus.Rank() {
		return c.transitionError("set logistics status "+string(update.Status)+" on", "logistics status cannot move backwards")
	}
	if err := c.matchMembers(members); err != nil {
		return err
	}
	// A member moved ahead by an administrative override is never dragged back by the cascade.
	for _, po := range members {
		if update.Status.Rank() < po.DeliveryStatus.Rank() {
			return po.deliveryTransitionError("cascade logistics status "+string(update.Status)+" to", "member order is already further along")
		}
	}
	now := c.clock()
	from := c.LogisticsStatus
	c.LogisticsStatus = update.Status
	if update.Status == DeliveryDelivered && c.ActualDeliveryDate == nil {
		c.ActualDeliveryDate = &now
	}
	if update.ExpectedDeliveryDate != nil {
		c.ExpectedDeliveryDate = cloneTime(update.ExpectedDeliveryDate)
	}
	if update.Remarks != nil {
		c.Remarks = strings.TrimSpace(*update.Remarks)
	}
	if details != nil {
		if v := strings.TrimSpace(details.Carrier); v != "" {
			c.Carrier = v
		}
		if v := strings.TrimSpace(details.TrackingNumber); v != "" {
			c.TrackingNumber = v
		}
		if v := strings.TrimSpace(details.CustomsDeclarationNo); v != "" {
			c.CustomsDeclarationNo = v
		}
	}
	c.UpdatedAt = now
	for _, po := range members {
		po.applyDelivery(update, by, false)
	}
	if from != update.Status {
		c.events = append(c.events, LogisticsStatusChanged{
			BaseEvent:       BaseEvent{Timestamp: now},
			ConsolidationID: c.ID,
			From:            from,
			To:              update.Status,
			Actor:           by.ID,
		})
	}
	return nil
}

func (c *Consolidation) HasMember(poNo string) bool {
	for _, m := range c.Members {
		if m == poNo {
			return true
		}
	}
	return false
}

func (c *Consolidation) Events() []Event {
	return append([]Event(nil), c.events...)
}

func (c *Consolidation) ClearEvents() {
	c.events = nil
}

// Clone returns a deep copy without pending events.
func (c *Consolidation) Clone() *Consolidation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.events = nil
	cp.ExpectedDeliveryDate = cloneTime(c.ExpectedDeliveryDate)
	cp.ActualDeliveryDate = cloneTime(c.ActualDeliveryDate)
	cp.Members = append([]string(nil), c.Members...)
	return &cp
}

func (c *Consolidation) matchMembers(members []*PurchaseOrder) error {
	if len(members) != len(c.Members) {
		return ErrMembersMismatch
	}
	for _, po := range members {
		if po == nil || !c.HasMember(po.PONo) || po.ConsolidationID == nil || *po.ConsolidationID != c.ID {
			return ErrMembersMismatch
		}
	}
	return nil
}

func (c *Consolidation) clock() time.Time {
	if c.now != nil {
		return c.now().UTC()
	}
	return time.Now().UTC()
}

func (c *Consolidation) transitionError(action, reason string) error {
	return &lifecycle.TransitionError{
		Entity: "consolidation",
		ID:     c.ID,
		From:   string(c.LogisticsStatus),
		Action: action,
		Reason: reason,
	}
}

func checkMembers(orders []*PurchaseOrder) error {
	if len(orders) == 0 {
		return &EligibilityError{Reason: "no purchase orders selected"}
	}
	seen := make(map[string]struct{}, len(orders))
	for _, po := range orders {
		if po == nil {
			return &EligibilityError{Reason: "unknown purchase order"}
		}
		if _, dup := seen[po.PONo]; dup {
			return &EligibilityError{PONo: po.PONo, Reason: "listed more than once"}
		}
		seen[po.PONo] = struct{}{}
		if err := po.CheckConsolidationEligibility(); err != nil {
			return err
		}
	}
	return nil
}
