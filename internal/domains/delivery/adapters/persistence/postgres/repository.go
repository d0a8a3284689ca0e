package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
	platformpostgres "github.com/Apurer/go-gin-procurement-api/internal/platform/postgres"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/docnum"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists suppliers, purchase orders and consolidations in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	record := toSupplierRecord(supplier)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrSupplierExists
		}
		return nil, err
	}
	return supplierToDomain(record)
}

func (r *Repository) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record supplierRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrSupplierNotFound
		}
		return nil, err
	}
	return supplierToDomain(record)
}

func (r *Repository) ListSuppliers(ctx context.Context) ([]*domain.Supplier, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []supplierRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Supplier, 0, len(records))
	for _, rec := range records {
		s, err := supplierToDomain(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Repository) NextPONo(ctx context.Context, day time.Time) (string, error) {
	return r.nextNumber(ctx, docnum.PrefixPurchaseOrder, day)
}

func (r *Repository) NextConsolidationID(ctx context.Context, day time.Time) (string, error) {
	return r.nextNumber(ctx, docnum.PrefixConsolidation, day)
}

func (r *Repository) CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if po == nil {
		return nil, errors.New("purchase order is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toPORecord(po)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		items := toPOItemRecords(po)
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetPurchaseOrder(ctx, po.PONo)
}

func (r *Repository) GetPurchaseOrder(ctx context.Context, poNo string) (*domain.PurchaseOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	orders, err := loadOrders(r.db.WithContext(ctx), []string{poNo}, false)
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// ListPurchaseOrders pushes the view predicates into SQL.
func (r *Repository) ListPurchaseOrders(ctx context.Context, filter ports.PurchaseOrderFilter) ([]*domain.PurchaseOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	query := db.Model(&purchaseOrderRecord{})
	switch filter.View {
	case ports.ViewDelivery:
		query = query.Where("supplier_region = ? OR consolidation_id IS NULL", string(domain.RegionDomestic))
	case ports.ViewConsolidation:
		query = query.Where("supplier_region = ? AND consolidation_id IS NOT NULL", string(domain.RegionInternational))
	}
	if filter.DeliveryStatus != "" {
		query = query.Where("delivery_status = ?", string(filter.DeliveryStatus))
	}
	if filter.SupplierID != "" {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	var records []purchaseOrderRecord
	if err := query.Order("po_no").Find(&records).Error; err != nil {
		return nil, err
	}
	return withItems(db, records)
}

func (r *Repository) UpdatePurchaseOrder(ctx context.Context, poNo string, fn ports.PurchaseOrderMutation) (*domain.PurchaseOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var result *domain.PurchaseOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders, err := loadOrders(tx, []string{poNo}, true)
		if err != nil {
			return err
		}
		po := orders[0]
		if err := fn(po); err != nil {
			return err
		}
		if err := saveOrder(tx, po); err != nil {
			return fmt.Errorf("persist purchase order %s: %w", poNo, err)
		}
		result = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Consolidate locks every selected order before handing them to fn, so two
// consolidations cannot claim the same order.
func (r *Repository) Consolidate(ctx context.Context, poNos []string, fn ports.ConsolidateFunc) (*domain.Consolidation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var result *domain.Consolidation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders, err := loadOrders(tx, poNos, true)
		if err != nil {
			return err
		}
		c, err := fn(orders)
		if err != nil {
			return err
		}
		if c == nil {
			return errors.New("consolidation is nil")
		}
		record := toConsolidationRecord(c)
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("persist consolidation %s: %w", c.ID, err)
		}
		for _, po := range orders {
			if err := saveOrder(tx, po); err != nil {
				return fmt.Errorf("persist purchase order %s: %w", po.PONo, err)
			}
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) AddToConsolidation(ctx context.Context, id string, poNos []string, fn func(*domain.Consolidation, []*domain.PurchaseOrder) error) (*domain.Consolidation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var result *domain.Consolidation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockConsolidation(tx, id)
		if err != nil {
			return err
		}
		orders, err := loadOrders(tx, poNos, true)
		if err != nil {
			return err
		}
		if err := fn(c, orders); err != nil {
			return err
		}
		if err := saveConsolidation(tx, c); err != nil {
			return err
		}
		for _, po := range orders {
			if err := saveOrder(tx, po); err != nil {
				return fmt.Errorf("persist purchase order %s: %w", po.PONo, err)
			}
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) GetConsolidation(ctx context.Context, id string) (*domain.Consolidation, []*domain.PurchaseOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, nil, err
	}
	db := r.db.WithContext(ctx)
	var record consolidationRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ports.ErrConsolidationNotFound
		}
		return nil, nil, err
	}
	c, err := consolidationToDomain(record)
	if err != nil {
		return nil, nil, err
	}
	members, err := loadOrders(db, c.Members, false)
	if err != nil {
		return nil, nil, err
	}
	return c, members, nil
}

func (r *Repository) ListConsolidations(ctx context.Context) ([]*domain.Consolidation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []consolidationRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Consolidation, 0, len(records))
	for _, rec := range records {
		c, err := consolidationToDomain(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// UpdateConsolidation locks the consolidation row, then its member orders,
// and writes all of them in one transaction.
func (r *Repository) UpdateConsolidation(ctx context.Context, id string, fn ports.ConsolidationMutation) (*domain.Consolidation, []*domain.PurchaseOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, nil, err
	}
	var (
		result  *domain.Consolidation
		members []*domain.PurchaseOrder
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockConsolidation(tx, id)
		if err != nil {
			return err
		}
		orders, err := loadOrders(tx, c.Members, true)
		if err != nil {
			return err
		}
		if err := fn(c, orders); err != nil {
			return err
		}
		if err := saveConsolidation(tx, c); err != nil {
			return err
		}
		for _, po := range orders {
			if err := saveOrder(tx, po); err != nil {
				return fmt.Errorf("persist purchase order %s: %w", po.PONo, err)
			}
		}
		result, members = c, orders
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, members, nil
}

func (r *Repository) nextNumber(ctx context.Context, prefix string, day time.Time) (string, error) {
	if err := r.ensureDB(); err != nil {
		return "", err
	}
	key := docnum.DayKey(prefix, day)
	seq, err := platformpostgres.NextSequence(ctx, r.db, key)
	if err != nil {
		return "", err
	}
	return docnum.Format(key, seq), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres delivery repository not configured")
	}
	return nil
}

// loadOrders returns the orders in the requested order. Locked loads take
// the row locks sorted by number to keep lock acquisition deadlock free.
func loadOrders(db *gorm.DB, poNos []string, lock bool) ([]*domain.PurchaseOrder, error) {
	if len(poNos) == 0 {
		return []*domain.PurchaseOrder{}, nil
	}
	sorted := append([]string(nil), poNos...)
	sort.Strings(sorted)
	query := db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var records []purchaseOrderRecord
	if err := query.Where("po_no IN ?", sorted).Order("po_no").Find(&records).Error; err != nil {
		return nil, err
	}
	loaded, err := withItems(db, records)
	if err != nil {
		return nil, err
	}
	byNo := make(map[string]*domain.PurchaseOrder, len(loaded))
	for _, po := range loaded {
		byNo[po.PONo] = po
	}
	out := make([]*domain.PurchaseOrder, 0, len(poNos))
	seen := make(map[string]bool, len(poNos))
	for _, no := range poNos {
		po, ok := byNo[no]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ports.ErrPurchaseOrderNotFound, no)
		}
		// repeated numbers must not alias the same aggregate
		if seen[no] {
			po = po.Clone()
		}
		seen[no] = true
		out = append(out, po)
	}
	return out, nil
}

func withItems(db *gorm.DB, records []purchaseOrderRecord) ([]*domain.PurchaseOrder, error) {
	if len(records) == 0 {
		return []*domain.PurchaseOrder{}, nil
	}
	numbers := make([]string, 0, len(records))
	for _, rec := range records {
		numbers = append(numbers, rec.PONo)
	}
	var items []poItemRecord
	if err := db.Where("po_no IN ?", numbers).Order("po_no, line_no").Find(&items).Error; err != nil {
		return nil, err
	}
	grouped := map[string][]poItemRecord{}
	for _, item := range items {
		grouped[item.PONo] = append(grouped[item.PONo], item)
	}
	out := make([]*domain.PurchaseOrder, 0, len(records))
	for _, rec := range records {
		po, err := poToDomain(rec, grouped[rec.PONo])
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, nil
}

func lockConsolidation(tx *gorm.DB, id string) (*domain.Consolidation, error) {
	var record consolidationRecord
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrConsolidationNotFound
		}
		return nil, err
	}
	return consolidationToDomain(record)
}

func saveOrder(tx *gorm.DB, po *domain.PurchaseOrder) error {
	record := toPORecord(po)
	// Select writes zero values too, which clears timestamps and the consolidation link.
	if err := tx.Model(&record).Select(
		"purchase_status", "delivery_status", "consolidation_id", "status_update_required",
		"shipped_at", "expected_delivery_date", "actual_delivery_date",
		"remarks", "remarks_history", "updated_at",
	).Updates(&record).Error; err != nil {
		return err
	}
	items := toPOItemRecords(po)
	if len(items) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "po_no"}, {Name: "line_no"}},
		DoUpdates: clause.AssignmentColumns([]string{"remarks", "delivery_status"}),
	}).Create(&items).Error
}

func saveConsolidation(tx *gorm.DB, c *domain.Consolidation) error {
	record := toConsolidationRecord(c)
	return tx.Model(&consolidationRecord{}).Where("id = ?", record.ID).Updates(map[string]any{
		"logistics_status":       record.LogisticsStatus,
		"carrier":                record.Carrier,
		"tracking_number":        record.TrackingNumber,
		"customs_declaration_no": record.CustomsDeclarationNo,
		"expected_delivery_date": record.ExpectedDeliveryDate,
		"actual_delivery_date":   record.ActualDeliveryDate,
		"remarks":                record.Remarks,
		"members":                record.Members,
		"updated_at":             gorm.Expr("NOW()"),
	}).Error
}
