package mapper

import (
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
)

type CreateSupplier struct {
	ID     string `json:"id" validate:"required,max=64"`
	Name   string `json:"name" validate:"required,max=255"`
	Region string `json:"region" validate:"required"`
}

type CreatePurchaseOrder struct {
	SupplierID        string          `json:"supplierId" validate:"required"`
	SourceRequisition string          `json:"sourceRequisition,omitempty"`
	Items             []POItemRequest `json:"items" validate:"required,min=1,dive"`
}

type POItemRequest struct {
	ItemName     string  `json:"itemName" validate:"required,max=255"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	Unit         string  `json:"unit,omitempty" validate:"max=32"`
	UnitPrice    float64 `json:"unitPrice" validate:"gte=0"`
	SourceLineNo int64   `json:"sourceLineNo,omitempty"`
}

// DeliveryStatusUpdate is the body of PUT /purchase-orders/:poNo/delivery-status.
type DeliveryStatusUpdate struct {
	Status               string     `json:"status" validate:"required"`
	Remarks              *string    `json:"remarks,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate,omitempty"`
}

type DeliveryOverride struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type Withdraw struct {
	Reason string `json:"reason" validate:"required"`
}

type CreateConsolidation struct {
	Name                 string   `json:"name,omitempty"`
	PurchaseOrders       []string `json:"purchaseOrders" validate:"required,min=1,dive,required"`
	Carrier              string   `json:"carrier,omitempty"`
	TrackingNumber       string   `json:"trackingNumber,omitempty"`
	CustomsDeclarationNo string   `json:"customsDeclarationNo,omitempty"`
}

type AddMembers struct {
	PurchaseOrders []string `json:"purchaseOrders" validate:"required,min=1,dive,required"`
}

type LogisticsStatusUpdate struct {
	DeliveryStatusUpdate
	Carrier              string `json:"carrier,omitempty"`
	TrackingNumber       string `json:"trackingNumber,omitempty"`
	CustomsDeclarationNo string `json:"customsDeclarationNo,omitempty"`
}

type Supplier struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

type PurchaseOrder struct {
	PONo                 string         `json:"poNo"`
	SupplierID           string         `json:"supplierId"`
	SupplierName         string         `json:"supplierName"`
	SupplierRegion       string         `json:"supplierRegion"`
	SourceRequisition    string         `json:"sourceRequisition,omitempty"`
	PurchaseStatus       string         `json:"purchaseStatus"`
	DeliveryStatus       string         `json:"deliveryStatus"`
	ConsolidationID      *string        `json:"consolidationId,omitempty"`
	StatusUpdateRequired bool           `json:"statusUpdateRequired"`
	ShippedAt            *time.Time     `json:"shippedAt,omitempty"`
	ExpectedDeliveryDate *time.Time     `json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time     `json:"actualDeliveryDate,omitempty"`
	Remarks              string         `json:"remarks,omitempty"`
	RemarksHistory       []RemarksEntry `json:"remarksHistory,omitempty"`
	Items                []POItem       `json:"items"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

type POItem struct {
	LineNo         int64   `json:"lineNo"`
	ItemName       string  `json:"itemName"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit,omitempty"`
	UnitPrice      float64 `json:"unitPrice"`
	SourceLineNo   int64   `json:"sourceLineNo,omitempty"`
	Remarks        string  `json:"remarks,omitempty"`
	DeliveryStatus string  `json:"deliveryStatus"`
}

type RemarksEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Status string    `json:"status"`
	Text   string    `json:"text"`
}

type Consolidation struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	LogisticsStatus      string          `json:"logisticsStatus"`
	Carrier              string          `json:"carrier,omitempty"`
	TrackingNumber       string          `json:"trackingNumber,omitempty"`
	CustomsDeclarationNo string          `json:"customsDeclarationNo,omitempty"`
	ExpectedDeliveryDate *time.Time      `json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time      `json:"actualDeliveryDate,omitempty"`
	Remarks              string          `json:"remarks,omitempty"`
	Members              []string        `json:"members"`
	PurchaseOrders       []PurchaseOrder `json:"purchaseOrders,omitempty"`
	CreatedBy            string          `json:"createdBy,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func ToSupplierInput(payload CreateSupplier) ports.SupplierInput {
	return ports.SupplierInput{ID: payload.ID, Name: payload.Name, Region: payload.Region}
}

func ToCreatePurchaseOrderInput(payload CreatePurchaseOrder) ports.CreatePurchaseOrderInput {
	input := ports.CreatePurchaseOrderInput{
		SupplierID:        payload.SupplierID,
		SourceRequisition: payload.SourceRequisition,
		Items:             make([]ports.POItemInput, 0, len(payload.Items)),
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, ports.POItemInput{
			ItemName:     item.ItemName,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    item.UnitPrice,
			SourceLineNo: item.SourceLineNo,
		})
	}
	return input
}

func ToDeliveryStatusInput(payload DeliveryStatusUpdate) ports.DeliveryStatusInput {
	return ports.DeliveryStatusInput{
		Status:               payload.Status,
		Remarks:              payload.Remarks,
		ExpectedDeliveryDate: payload.ExpectedDeliveryDate,
	}
}

func ToCreateConsolidationInput(payload CreateConsolidation) ports.CreateConsolidationInput {
	return ports.CreateConsolidationInput{
		Name:                 payload.Name,
		PurchaseOrders:       payload.PurchaseOrders,
		Carrier:              payload.Carrier,
		TrackingNumber:       payload.TrackingNumber,
		CustomsDeclarationNo: payload.CustomsDeclarationNo,
	}
}

func ToLogisticsStatusInput(payload LogisticsStatusUpdate) ports.LogisticsStatusInput {
	return ports.LogisticsStatusInput{
		DeliveryStatusInput:  ToDeliveryStatusInput(payload.DeliveryStatusUpdate),
		Carrier:              payload.Carrier,
		TrackingNumber:       payload.TrackingNumber,
		CustomsDeclarationNo: payload.CustomsDeclarationNo,
	}
}

func FromSupplier(s *domain.Supplier) Supplier {
	if s == nil {
		return Supplier{}
	}
	return Supplier{ID: s.ID, Name: s.Name, Region: string(s.Region)}
}

func FromSuppliers(list []*domain.Supplier) []Supplier {
	out := make([]Supplier, 0, len(list))
	for _, s := range list {
		out = append(out, FromSupplier(s))
	}
	return out
}

func FromPurchaseOrder(po *domain.PurchaseOrder) PurchaseOrder {
	if po == nil {
		return PurchaseOrder{}
	}
	out := PurchaseOrder{
		PONo:                 po.PONo,
		SupplierID:           po.SupplierID,
		SupplierName:         po.SupplierName,
		SupplierRegion:       string(po.SupplierRegion),
		SourceRequisition:    po.SourceRequisition,
		PurchaseStatus:       string(po.PurchaseStatus),
		DeliveryStatus:       string(po.DeliveryStatus),
		ConsolidationID:      po.ConsolidationID,
		StatusUpdateRequired: po.StatusUpdateRequired,
		ShippedAt:            po.ShippedAt,
		ExpectedDeliveryDate: po.ExpectedDeliveryDate,
		ActualDeliveryDate:   po.ActualDeliveryDate,
		Remarks:              po.Remarks,
		Items:                make([]POItem, 0, len(po.Items)),
		CreatedAt:            po.CreatedAt,
		UpdatedAt:            po.UpdatedAt,
	}
	for _, entry := range po.RemarksHistory {
		out.RemarksHistory = append(out.RemarksHistory, RemarksEntry{
			At:     entry.At,
			Actor:  entry.Actor,
			Status: string(entry.Status),
			Text:   entry.Text,
		})
	}
	for _, item := range po.Items {
		out.Items = append(out.Items, POItem{
			LineNo:         item.LineNo,
			ItemName:       item.ItemName,
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			UnitPrice:      item.UnitPrice,
			SourceLineNo:   item.SourceLineNo,
			Remarks:        item.Remarks,
			DeliveryStatus: string(item.DeliveryStatus),
		})
	}
	return out
}

func FromPurchaseOrders(list []*domain.PurchaseOrder) []PurchaseOrder {
	out := make([]PurchaseOrder, 0, len(list))
	for _, po := range list {
		out = append(out, FromPurchaseOrder(po))
	}
	return out
}

func FromConsolidation(c *domain.Consolidation) Consolidation {
	if c == nil {
		return Consolidation{}
	}
	return Consolidation{
		ID:                   c.ID,
		Name:                 c.Name,
		LogisticsStatus:      string(c.LogisticsStatus),
		Carrier:              c.Carrier,
		TrackingNumber:       c.TrackingNumber,
		CustomsDeclarationNo: c.CustomsDeclarationNo,
		ExpectedDeliveryDate: c.ExpectedDeliveryDate,
		ActualDeliveryDate:   c.ActualDeliveryDate,
		Remarks:              c.Remarks,
		Members:              append([]string{}, c.Members...),
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// FromConsolidationView includes the member purchase orders.
func FromConsolidationView(view *ports.ConsolidationView) Consolidation {
	if view == nil {
		return Consolidation{}
	}
	out := FromConsolidation(view.Consolidation)
	out.PurchaseOrders = FromPurchaseOrders(view.Members)
	return out
}

func FromConsolidations(list []*domain.Consolidation) []Consolidation {
	out := make([]Consolidation, 0, len(list))
	for _, c := range list {
		out = append(out, FromConsolidation(c))
	}
	return out
}
