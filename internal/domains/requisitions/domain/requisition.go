package domain

import (
	"strings"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

// Requisition is the order aggregate: a requester's list of line items moving
// through review. Every item mutation goes through it so the derived order
// status is recomputed in the same call.
type Requisition struct {
	OrderNo      string
	Requester    string
	Status       OrderStatus
	SubmitDate   *time.Time
	CancelReason string
	Items        []*LineItem
	CreatedAt    time.Time
	UpdatedAt    time.Time

	events []Event
	now    func() time.Time
}

// Summary counts line items per review bucket.
type Summary struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Questioned  int `json:"questioned"`
	Unavailable int `json:"unavailable"`
	Cancelled   int `json:"cancelled"`
}

// AllDecided reports whether a non-empty requisition has no pending items left.
func (s Summary) AllDecided() bool {
	return s.Total > 0 && s.Pending == 0
}

// NewRequisition builds a draft requisition and numbers its items.
func NewRequisition(orderNo, requester string, items ...*LineItem) (*Requisition, error) {
	r := &Requisition{
		OrderNo:   strings.TrimSpace(orderNo),
		Requester: strings.TrimSpace(requester),
		Status:    OrderDraft,
	}
	if r.OrderNo == "" {
		return nil, ErrInvalidOrderNumber
	}
	if r.Requester == "" {
		return nil, ErrInvalidRequester
	}
	for _, item := range items {
		if err := r.AddItem(item); err != nil {
			return nil, err
		}
	}
	r.CreatedAt = r.clock()
	r.UpdatedAt = r.CreatedAt
	return r, nil
}

// SetClock overrides the time source, used by tests.
func (r *Requisition) SetClock(now func() time.Time) {
	r.now = now
}

// AddItem appends a draft item. Only draft requisitions accept new items.
func (r *Requisition) AddItem(item *LineItem) error {
	if r.Status != OrderDraft {
		return r.transitionError("add item to", "")
	}
	if item == nil {
		return ErrInvalidItemName
	}
	if err := item.Validate(); err != nil {
		return err
	}
	item.Status = ItemDraft
	item.OrderNo = r.OrderNo
	item.LineNo = r.nextLineNo()
	r.Items = append(r.Items, item)
	return nil
}

// Submit sends a draft requisition to review.
func (r *Requisition) Submit(by actor.Actor) error {
	if r.Status != OrderDraft {
		return r.transitionError("submit", "")
	}
	if len(r.Items) == 0 {
		return r.transitionError("submit", ErrRequisitionNoItems.Error())
	}
	now := r.clock()
	for _, item := range r.Items {
		if item.Status == ItemDraft {
			item.Status = ItemPendingReview
		}
	}
	r.SubmitDate = &now
	r.setStatus(OrderSubmitted, by)
	r.refresh(by)
	return nil
}

// Cancel terminates the requisition from any non-cancelled state and cancels every item.
func (r *Requisition) Cancel(reason string, by actor.Actor) error {
	if r.Status == OrderCancelled {
		return r.transitionError("cancel", "")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	for _, item := range r.Items {
		item.cancel(reason, by)
	}
	r.CancelReason = reason
	r.setStatus(OrderCancelled, by)
	return nil
}

// ApproveItem approves a line item with the chosen supplier and price.
func (r *Requisition) ApproveItem(lineNo int64, supplierID string, unitPrice float64, note string, by actor.Actor) error {
	return r.decide(lineNo, "approve", by, func(item *LineItem, at time.Time) error {
		return item.approve(supplierID, unitPrice, note, by, at)
	})
}

// RejectItem rejects a line item. Rejecting an already rejected item only replaces its note.
func (r *Requisition) RejectItem(lineNo int64, reason string, by actor.Actor) error {
	return r.decide(lineNo, "reject", by, func(item *LineItem, at time.Time) error {
		return item.reject(reason, by, at)
	})
}

// QuestionItem sends a line item back to the requester with a question.
func (r *Requisition) QuestionItem(lineNo int64, reason string, by actor.Actor) error {
	return r.decide(lineNo, "question", by, func(item *LineItem, at time.Time) error {
		return item.question(reason, by, at)
	})
}

// MarkItemUnavailable records that a pending or approved item cannot be sourced.
func (r *Requisition) MarkItemUnavailable(lineNo int64, reason string, by actor.Actor) error {
	return r.decide(lineNo, "mark unavailable", by, func(item *LineItem, at time.Time) error {
		return item.markUnavailable(reason, by, at)
	})
}

// UpdateItemNote replaces the note of a non-cancelled item without changing its status.
func (r *Requisition) UpdateItemNote(lineNo int64, note string) error {
	if r.Status == OrderCancelled {
		return r.transitionError("edit note on", "")
	}
	item, err := r.item(lineNo)
	if err != nil {
		return err
	}
	if err := item.editNote(note); err != nil {
		if te, ok := lifecycle.AsTransition(err); ok {
			te.ID = r.OrderNo + te.ID
		}
		return err
	}
	r.UpdatedAt = r.clock()
	return nil
}

// RejectRemaining rejects every item still awaiting a decision, including questioned ones.
func (r *Requisition) RejectRemaining(reason string, by actor.Actor) error {
	if r.Status != OrderSubmitted && r.Status != OrderReviewed {
		return r.transitionError("reject", "")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	now := r.clock()
	rejected := 0
	for _, item := range r.Items {
		if item.Status != ItemPendingReview && item.Status != ItemQuestioned {
			continue
		}
		from := item.Status
		if err := item.reject(reason, by, now); err != nil {
			return err
		}
		r.recordItemEvent(item, from, by, now)
		rejected++
	}
	if rejected == 0 {
		return r.transitionError("reject", "no line items awaiting a decision")
	}
	r.UpdatedAt = now
	r.refresh(by)
	return nil
}

// Summary counts items per bucket using the single pending predicate.
func (r *Requisition) Summary() Summary {
	var s Summary
	for _, item := range r.Items {
		s.Total++
		switch {
		case item.IsPending():
			s.Pending++
		case item.Status == ItemApproved:
			s.Approved++
		case item.Status == ItemRejected:
			s.Rejected++
		case item.Status == ItemQuestioned:
			s.Questioned++
		case item.Status == ItemUnavailable:
			s.Unavailable++
		case item.Status == ItemCancelled:
			s.Cancelled++
		}
	}
	return s
}

// UpdateStatusAfterReview moves a submitted requisition to reviewed once no
// item is pending. It reports whether the status changed and is safe to call repeatedly.
func (r *Requisition) UpdateStatusAfterReview() bool {
	return r.refresh(actor.System)
}

// Item returns a copy of the addressed line item.
func (r *Requisition) Item(lineNo int64) (*LineItem, error) {
	item, err := r.item(lineNo)
	if err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// Events returns the events recorded since the last ClearEvents.
func (r *Requisition) Events() []Event {
	return append([]Event(nil), r.events...)
}

// ClearEvents drops recorded events, typically after they have been dispatched.
func (r *Requisition) ClearEvents() {
	r.events = nil
}

// Clone returns a deep copy without pending events.
func (r *Requisition) Clone() *Requisition {
	if r == nil {
		return nil
	}
	c := *r
	c.events = nil
	if r.SubmitDate != nil {
		v := *r.SubmitDate
		c.SubmitDate = &v
	}
	c.Items = make([]*LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		c.Items = append(c.Items, item.Clone())
	}
	return &c
}

func (r *Requisition) decide(lineNo int64, action string, by actor.Actor, apply func(*LineItem, time.Time) error) error {
	if r.Status == OrderDraft || r.Status == OrderCancelled {
		return r.transitionError(action+" an item of", "")
	}
	item, err := r.item(lineNo)
	if err != nil {
		return err
	}
	from := item.Status
	now := r.clock()
	if err := apply(item, now); err != nil {
		if te, ok := lifecycle.AsTransition(err); ok {
			te.ID = r.OrderNo + te.ID
		}
		return err
	}
	if item.Status != from {
		r.recordItemEvent(item, from, by, now)
	}
	r.UpdatedAt = now
	r.refresh(by)
	return nil
}

func (r *Requisition) refresh(by actor.Actor) bool {
	if r.Status != OrderSubmitted {
		return false
	}
	if !r.Summary().AllDecided() {
		return false
	}
	r.setStatus(OrderReviewed, by)
	return true
}

func (r *Requisition) setStatus(to OrderStatus, by actor.Actor) {
	from := r.Status
	now := r.clock()
	r.Status = to
	r.UpdatedAt = now
	r.events = append(r.events, RequisitionStatusChanged{
		BaseEvent: BaseEvent{Timestamp: now},
		OrderNo:   r.OrderNo,
		From:      from,
		To:        to,
		Actor:     by.ID,
	})
}

func (r *Requisition) recordItemEvent(item *LineItem, from ItemStatus, by actor.Actor, at time.Time) {
	r.events = append(r.events, LineItemDecided{
		BaseEvent: BaseEvent{Timestamp: at},
		OrderNo:   r.OrderNo,
		LineNo:    item.LineNo,
		From:      from,
		To:        item.Status,
		Actor:     by.ID,
	})
}

func (r *Requisition) item(lineNo int64) (*LineItem, error) {
	for _, item := range r.Items {
		if item.LineNo == lineNo {
			return item, nil
		}
	}
	return nil, ErrLineItemNotFound
}

func (r *Requisition) nextLineNo() int64 {
	var highest int64
	for _, item := range r.Items {
		if item.LineNo > highest {
			highest = item.LineNo
		}
	}
	return highest + 1
}

func (r *Requisition) clock() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

func (r *Requisition) transitionError(action, reason string) error {
	return &lifecycle.TransitionError{
		Entity: "requisition",
		ID:     r.OrderNo,
		From:   string(r.Status),
		Action: action,
		Reason: reason,
	}
}
