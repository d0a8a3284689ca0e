package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	platformpostgres "github.com/Apurer/go-gin-procurement-api/internal/platform/postgres"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/docnum"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists requisitions in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the tables owned by this adapter.
func Models() []any {
	return []any{&requisitionRecord{}, &lineItemRecord{}, &idempotencyRecord{}}
}

type requisitionRecord struct {
	OrderNo      string     `gorm:"primaryKey;column:order_no;size:32"`
	Requester    string     `gorm:"column:requester;size:128;index"`
	Status       string     `gorm:"column:status;type:varchar(32);index"`
	SubmitDate   *time.Time `gorm:"column:submit_date"`
	CancelReason string     `gorm:"column:cancel_reason;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (requisitionRecord) TableName() string { return "request_orders" }

type lineItemRecord struct {
	OrderNo       string     `gorm:"primaryKey;column:order_no;size:32"`
	LineNo        int64      `gorm:"primaryKey;column:line_no;autoIncrement:false"`
	ItemName      string     `gorm:"column:item_name"`
	Specification string     `gorm:"column:specification;type:text"`
	Quantity      float64    `gorm:"column:quantity"`
	Unit          string     `gorm:"column:unit;size:32"`
	Status        string     `gorm:"column:status;type:varchar(32);index"`
	SupplierID    *string    `gorm:"column:supplier_id;size:64"`
	UnitPrice     *float64   `gorm:"column:unit_price"`
	StatusNote    string     `gorm:"column:status_note;type:text"`
	ReviewedBy    string     `gorm:"column:reviewed_by;size:128"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (lineItemRecord) TableName() string { return "request_order_items" }

// NextOrderNo reserves the next REQ number for day.
func (r *Repository) NextOrderNo(ctx context.Context, day time.Time) (string, error) {
	if err := r.ensureDB(); err != nil {
		return "", err
	}
	key := docnum.DayKey(docnum.PrefixRequisition, day)
	seq, err := platformpostgres.NextSequence(ctx, r.db, key)
	if err != nil {
		return "", err
	}
	return docnum.Format(key, seq), nil
}

// Create inserts the requisition and its items in one transaction.
func (r *Repository) Create(ctx context.Context, req *domain.Requisition) (*domain.Requisition, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New("requisition is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toRecord(req)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		items := toItemRecords(req)
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, req.OrderNo)
}

// Get loads a requisition with its items.
func (r *Repository) Get(ctx context.Context, orderNo string) (*domain.Requisition, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	var record requisitionRecord
	if err := db.First(&record, "order_no = ?", orderNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return loadAggregate(db, record)
}

// List returns requisitions matching filter ordered by number.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Requisition, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	query := db.Model(&requisitionRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Requester != "" {
		query = query.Where("requester = ?", filter.Requester)
	}
	var records []requisitionRecord
	if err := query.Order("order_no").Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*domain.Requisition{}, nil
	}
	numbers := make([]string, 0, len(records))
	for _, rec := range records {
		numbers = append(numbers, rec.OrderNo)
	}
	var items []lineItemRecord
	if err := db.Where("order_no IN ?", numbers).Order("order_no, line_no").Find(&items).Error; err != nil {
		return nil, err
	}
	grouped := map[string][]lineItemRecord{}
	for _, item := range items {
		grouped[item.OrderNo] = append(grouped[item.OrderNo], item)
	}
	result := make([]*domain.Requisition, 0, len(records))
	for _, rec := range records {
		req, err := toDomain(rec, grouped[rec.OrderNo])
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, nil
}

// Update locks the requisition row with SELECT ... FOR UPDATE, applies fn and
// writes the root and every item before committing. Concurrent updates of the
// same requisition queue on the row lock.
func (r *Repository) Update(ctx context.Context, orderNo string, fn ports.MutateFunc) (*domain.Requisition, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var result *domain.Requisition
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record requisitionRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "order_no = ?", orderNo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		req, err := loadAggregate(tx, record)
		if err != nil {
			return err
		}
		if err := fn(req); err != nil {
			return err
		}
		if err := saveAggregate(tx, req); err != nil {
			return fmt.Errorf("persist requisition %s: %w", orderNo, err)
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres requisition repository not configured")
	}
	return nil
}

func loadAggregate(db *gorm.DB, record requisitionRecord) (*domain.Requisition, error) {
	var items []lineItemRecord
	if err := db.Where("order_no = ?", record.OrderNo).Order("line_no").Find(&items).Error; err != nil {
		return nil, err
	}
	return toDomain(record, items)
}

func saveAggregate(tx *gorm.DB, req *domain.Requisition) error {
	record := toRecord(req)
	if err := tx.Model(&requisitionRecord{}).Where("order_no = ?", record.OrderNo).Updates(map[string]any{
		"status":        record.Status,
		"submit_date":   record.SubmitDate,
		"cancel_reason": record.CancelReason,
		"updated_at":    gorm.Expr("NOW()"),
	}).Error; err != nil {
		return err
	}
	items := toItemRecords(req)
	if len(items) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_no"}, {Name: "line_no"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "supplier_id", "unit_price", "status_note", "reviewed_by", "reviewed_at", "updated_at",
		}),
	}).Create(&items).Error
}

func toRecord(req *domain.Requisition) requisitionRecord {
	return requisitionRecord{
		OrderNo:      req.OrderNo,
		Requester:    req.Requester,
		Status:       string(req.Status),
		SubmitDate:   req.SubmitDate,
		CancelReason: req.CancelReason,
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
}

func toItemRecords(req *domain.Requisition) []lineItemRecord {
	items := make([]lineItemRecord, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, lineItemRecord{
			OrderNo:       req.OrderNo,
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
			UpdatedAt:     time.Now().UTC(),
		})
	}
	return items
}

func toDomain(record requisitionRecord, items []lineItemRecord) (*domain.Requisition, error) {
	status, err := domain.ParseOrderStatus(record.Status)
	if err != nil {
		return nil, fmt.Errorf("requisition %s: %w", record.OrderNo, err)
	}
	req := &domain.Requisition{
		OrderNo:      record.OrderNo,
		Requester:    record.Requester,
		Status:       status,
		SubmitDate:   record.SubmitDate,
		CancelReason: record.CancelReason,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
		Items:        make([]*domain.LineItem, 0, len(items)),
	}
	for _, rec := range items {
		itemStatus, err := domain.ParseItemStatus(rec.Status)
		if err != nil {
			return nil, fmt.Errorf("requisition %s line %d: %w", record.OrderNo, rec.LineNo, err)
		}
		req.Items = append(req.Items, &domain.LineItem{
			OrderNo:       rec.OrderNo,
			LineNo:        rec.LineNo,
			ItemName:      rec.ItemName,
			Specification: rec.Specification,
			Quantity:      rec.Quantity,
			Unit:          rec.Unit,
			Status:        itemStatus,
			SupplierID:    rec.SupplierID,
			UnitPrice:     rec.UnitPrice,
			StatusNote:    rec.StatusNote,
			ReviewedBy:    rec.ReviewedBy,
			ReviewedAt:    rec.ReviewedAt,
		})
	}
	return req, nil
}
