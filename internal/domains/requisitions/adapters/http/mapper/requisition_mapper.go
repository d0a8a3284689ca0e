package mapper

import (
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
)

// CreateRequisition is the request body for creating a draft requisition.
type CreateRequisition struct {
	Requester string        `json:"requester,omitempty"`
	Items     []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

type ItemRequest struct {
	ItemName      string  `json:"itemName" validate:"required,max=255"`
	Specification string  `json:"specification,omitempty"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
	Unit          string  `json:"unit,omitempty" validate:"max=32"`
}

// ApproveItem is the request body for approving a line item.
type ApproveItem struct {
	SupplierID string  `json:"supplierId" validate:"required"`
	UnitPrice  float64 `json:"unitPrice" validate:"gt=0"`
	Note       string  `json:"note,omitempty"`
}

// Reason carries the free-text reason for reject, question, unavailable and cancel.
type Reason struct {
	Reason string `json:"reason" validate:"required"`
}

// OptionalReason is used where the reason may be omitted.
type OptionalReason struct {
	Reason string `json:"reason,omitempty"`
}

// Note carries an edited line item note.
type Note struct {
	Note string `json:"note"`
}

type Requisition struct {
	OrderNo      string     `json:"orderNo"`
	Requester    string     `json:"requester"`
	Status       string     `json:"status"`
	SubmitDate   *time.Time `json:"submitDate,omitempty"`
	CancelReason string     `json:"cancelReason,omitempty"`
	Items        []LineItem `json:"items"`
	Summary      Summary    `json:"summary"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type LineItem struct {
	LineNo        int64      `json:"lineNo"`
	ItemName      string     `json:"itemName"`
	Specification string     `json:"specification,omitempty"`
	Quantity      float64    `json:"quantity"`
	Unit          string     `json:"unit,omitempty"`
	Status        string     `json:"status"`
	SupplierID    *string    `json:"supplierId,omitempty"`
	UnitPrice     *float64   `json:"unitPrice,omitempty"`
	StatusNote    string     `json:"statusNote,omitempty"`
	ReviewedBy    string     `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
}

type Summary struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Questioned  int `json:"questioned"`
	Unavailable int `json:"unavailable"`
	Cancelled   int `json:"cancelled"`
}

type QuestionedItem struct {
	OrderNo   string   `json:"orderNo"`
	Requester string   `json:"requester"`
	Item      LineItem `json:"item"`
}

// ToCreateInput converts the transport payload into the service input.
func ToCreateInput(payload CreateRequisition, idempotencyKey string) ports.CreateInput {
	input := ports.CreateInput{
		Requester:      payload.Requester,
		IdempotencyKey: idempotencyKey,
		Items:          make([]ports.ItemInput, 0, len(payload.Items)),
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, ports.ItemInput{
			ItemName:      item.ItemName,
			Specification: item.Specification,
			Quantity:      item.Quantity,
			Unit:          item.Unit,
		})
	}
	return input
}

func FromRequisition(req *domain.Requisition) Requisition {
	if req == nil {
		return Requisition{}
	}
	out := Requisition{
		OrderNo:      req.OrderNo,
		Requester:    req.Requester,
		Status:       string(req.Status),
		SubmitDate:   req.SubmitDate,
		CancelReason: req.CancelReason,
		Items:        make([]LineItem, 0, len(req.Items)),
		Summary:      FromSummary(req.Summary()),
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
	for _, item := range req.Items {
		out.Items = append(out.Items, FromLineItem(item))
	}
	return out
}

func FromRequisitions(list []*domain.Requisition) []Requisition {
	out := make([]Requisition, 0, len(list))
	for _, req := range list {
		out = append(out, FromRequisition(req))
	}
	return out
}

func FromLineItem(item *domain.LineItem) LineItem {
	if item == nil {
		return LineItem{}
	}
	return LineItem{
		LineNo:        item.LineNo,
		ItemName:      item.ItemName,
		Specification: item.Specification,
		Quantity:      item.Quantity,
		Unit:          item.Unit,
		Status:        string(item.Status),
		SupplierID:    item.SupplierID,
		UnitPrice:     item.UnitPrice,
		StatusNote:    item.StatusNote,
		ReviewedBy:    item.ReviewedBy,
		ReviewedAt:    item.ReviewedAt,
	}
}

func FromSummary(s domain.Summary) Summary {
	return Summary{
		Total:       s.Total,
		Pending:     s.Pending,
		Approved:    s.Approved,
		Rejected:    s.Rejected,
		Questioned:  s.Questioned,
		Unavailable: s.Unavailable,
		Cancelled:   s.Cancelled,
	}
}

func FromQuestionedItems(items []ports.QuestionedItem) []QuestionedItem {
	out := make([]QuestionedItem, 0, len(items))
	for _, q := range items {
		out = append(out, QuestionedItem{OrderNo: q.OrderNo, Requester: q.Requester, Item: FromLineItem(q.Item)})
	}
	return out
}
