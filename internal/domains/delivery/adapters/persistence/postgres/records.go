package postgres

import (
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
)

// Models lists the tables owned by this adapter.
func Models() []any {
	return []any{&supplierRecord{}, &purchaseOrderRecord{}, &poItemRecord{}, &consolidationRecord{}}
}

type supplierRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Name      string    `gorm:"column:name"`
	Region    string    `gorm:"column:region;type:varchar(16)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (supplierRecord) TableName() string { return "suppliers" }

type purchaseOrderRecord struct {
	PONo                 string                `gorm:"primaryKey;column:po_no;size:32"`
	SupplierID           string                `gorm:"column:supplier_id;size:64;index"`
	SupplierName         string                `gorm:"column:supplier_name"`
	SupplierRegion       string                `gorm:"column:supplier_region;type:varchar(16);index"`
	SourceRequisition    string                `gorm:"column:source_requisition;size:32"`
	PurchaseStatus       string                `gorm:"column:purchase_status;type:varchar(32)"`
	DeliveryStatus       string                `gorm:"column:delivery_status;type:varchar(32);index"`
	ConsolidationID      *string               `gorm:"column:consolidation_id;size:32;index"`
	StatusUpdateRequired bool                  `gorm:"column:status_update_required"`
	ShippedAt            *time.Time            `gorm:"column:shipped_at"`
	ExpectedDeliveryDate *time.Time            `gorm:"column:expected_delivery_date"`
	ActualDeliveryDate   *time.Time            `gorm:"column:actual_delivery_date"`
	Remarks              string                `gorm:"column:remarks;type:text"`
	RemarksHistory       []domain.RemarksEntry `gorm:"column:remarks_history;type:jsonb;serializer:json"`
	CreatedAt            time.Time             `gorm:"column:created_at"`
	UpdatedAt            time.Time             `gorm:"column:updated_at"`
}

func (purchaseOrderRecord) TableName() string { return "purchase_orders" }

type poItemRecord struct {
	PONo           string  `gorm:"primaryKey;column:po_no;size:32"`
	LineNo         int64   `gorm:"primaryKey;column:line_no;autoIncrement:false"`
	ItemName       string  `gorm:"column:item_name"`
	Quantity       float64 `gorm:"column:quantity"`
	Unit           string  `gorm:"column:unit;size:32"`
	UnitPrice      float64 `gorm:"column:unit_price"`
	SourceLineNo   int64   `gorm:"column:source_line_no"`
	Remarks        string  `gorm:"column:remarks;type:text"`
	DeliveryStatus string  `gorm:"column:delivery_status;type:varchar(32)"`
}

func (poItemRecord) TableName() string { return "purchase_order_items" }

type consolidationRecord struct {
	ID                   string         `gorm:"primaryKey;column:id;size:32"`
	Name                 string         `gorm:"column:name"`
	LogisticsStatus      string         `gorm:"column:logistics_status;type:varchar(32);index"`
	Carrier              string         `gorm:"column:carrier"`
	TrackingNumber       string         `gorm:"column:tracking_number"`
	CustomsDeclarationNo string         `gorm:"column:customs_declaration_no"`
	ExpectedDeliveryDate *time.Time     `gorm:"column:expected_delivery_date"`
	ActualDeliveryDate   *time.Time     `gorm:"column:actual_delivery_date"`
	Remarks              string         `gorm:"column:remarks;type:text"`
	Members              pq.StringArray `gorm:"column:members;type:text[]"`
	CreatedBy            string         `gorm:"column:created_by;size:128"`
	CreatedAt            time.Time      `gorm:"column:created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at"`
}

func (consolidationRecord) TableName() string { return "consolidations" }

func toSupplierRecord(s *domain.Supplier) supplierRecord {
	return supplierRecord{ID: s.ID, Name: s.Name, Region: string(s.Region), CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

func supplierToDomain(rec supplierRecord) (*domain.Supplier, error) {
	region, err := domain.ParseSupplierRegion(rec.Region)
	if err != nil {
		return nil, fmt.Errorf("supplier %s: %w", rec.ID, err)
	}
	return &domain.Supplier{ID: rec.ID, Name: rec.Name, Region: region, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}, nil
}

func toPORecord(po *domain.PurchaseOrder) purchaseOrderRecord {
	return purchaseOrderRecord{
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
		RemarksHistory:       po.RemarksHistory,
		CreatedAt:            po.CreatedAt,
		UpdatedAt:            po.UpdatedAt,
	}
}

func toPOItemRecords(po *domain.PurchaseOrder) []poItemRecord {
	items := make([]poItemRecord, 0, len(po.Items))
	for _, item := range po.Items {
		items = append(items, poItemRecord{
			PONo:           po.PONo,
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
	return items
}

func poToDomain(rec purchaseOrderRecord, items []poItemRecord) (*domain.PurchaseOrder, error) {
	region, err := domain.ParseSupplierRegion(rec.SupplierRegion)
	if err != nil {
		return nil, fmt.Errorf("purchase order %s: %w", rec.PONo, err)
	}
	purchase, err := domain.ParsePurchaseStatus(rec.PurchaseStatus)
	if err != nil {
		return nil, fmt.Errorf("purchase order %s: %w", rec.PONo, err)
	}
	delivery, err := domain.ParseDeliveryStatus(rec.DeliveryStatus)
	if err != nil {
		return nil, fmt.Errorf("purchase order %s: %w", rec.PONo, err)
	}
	po := &domain.PurchaseOrder{
		PONo:                 rec.PONo,
		SupplierID:           rec.SupplierID,
		SupplierName:         rec.SupplierName,
		SupplierRegion:       region,
		SourceRequisition:    rec.SourceRequisition,
		PurchaseStatus:       purchase,
		DeliveryStatus:       delivery,
		ConsolidationID:      rec.ConsolidationID,
		StatusUpdateRequired: rec.StatusUpdateRequired,
		ShippedAt:            rec.ShippedAt,
		ExpectedDeliveryDate: rec.ExpectedDeliveryDate,
		ActualDeliveryDate:   rec.ActualDeliveryDate,
		Remarks:              rec.Remarks,
		RemarksHistory:       rec.RemarksHistory,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
		Items:                make([]*domain.POItem, 0, len(items)),
	}
	for _, item := range items {
		status, err := domain.ParseDeliveryStatus(item.DeliveryStatus)
		if err != nil {
			return nil, fmt.Errorf("purchase order %s line %d: %w", rec.PONo, item.LineNo, err)
		}
		po.Items = append(po.Items, &domain.POItem{
			LineNo:         item.LineNo,
			ItemName:       item.ItemName,
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			UnitPrice:      item.UnitPrice,
			SourceLineNo:   item.SourceLineNo,
			Remarks:        item.Remarks,
			DeliveryStatus: status,
		})
	}
	return po, nil
}

func toConsolidationRecord(c *domain.Consolidation) consolidationRecord {
	return consolidationRecord{
		ID:                   c.ID,
		Name:                 c.Name,
		LogisticsStatus:      string(c.LogisticsStatus),
		Carrier:              c.Carrier,
		TrackingNumber:       c.TrackingNumber,
		CustomsDeclarationNo: c.CustomsDeclarationNo,
		ExpectedDeliveryDate: c.ExpectedDeliveryDate,
		ActualDeliveryDate:   c.ActualDeliveryDate,
		Remarks:              c.Remarks,
		Members:              pq.StringArray(append([]string(nil), c.Members...)),
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func consolidationToDomain(rec consolidationRecord) (*domain.Consolidation, error) {
	status, err := domain.ParseDeliveryStatus(rec.LogisticsStatus)
	if err != nil {
		return nil, fmt.Errorf("consolidation %s: %w", rec.ID, err)
	}
	return &domain.Consolidation{
		ID:                   rec.ID,
		Name:                 rec.Name,
		LogisticsStatus:      status,
		Carrier:              rec.Carrier,
		TrackingNumber:       rec.TrackingNumber,
		CustomsDeclarationNo: rec.CustomsDeclarationNo,
		ExpectedDeliveryDate: rec.ExpectedDeliveryDate,
		ActualDeliveryDate:   rec.ActualDeliveryDate,
		Remarks:              rec.Remarks,
		Members:              append([]string(nil), rec.Members...),
		CreatedBy:            rec.CreatedBy,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}, nil
}
