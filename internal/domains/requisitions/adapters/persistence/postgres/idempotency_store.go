package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore persists requisition creation keys in PostgreSQL.
type IdempotencyStore struct {
	db *gorm.DB
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderNo     string    `gorm:"column:order_no;size:32;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (idempotencyRecord) TableName() string { return "requisition_idempotency_keys" }

// Get loads a record by key, returning nil when absent.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record.toPort(), nil
}

// Reserve inserts a pending row for the key. The primary key makes concurrent
// reservations race on the insert, so exactly one caller gets reserved=true.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, requestHash string) (*ports.IdempotencyRecord, bool, error) {
	if err := s.ensureDB(); err != nil {
		return nil, false, err
	}
	row := idempotencyRecord{Key: key, RequestHash: requestHash}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, err
		}
		existing, getErr := s.Get(ctx, key)
		if getErr != nil {
			return nil, false, getErr
		}
		if existing == nil {
			return nil, false, err
		}
		if existing.RequestHash != requestHash {
			return existing, false, ports.ErrIdempotencyConflict
		}
		return existing, false, nil
	}
	return row.toPort(), true, nil
}

// Complete binds the pending key to orderNo. Rebinding to the same order is a no-op.
func (s *IdempotencyStore) Complete(ctx context.Context, key, orderNo string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&idempotencyRecord{}).
		Where("key = ? AND (order_no = '' OR order_no = ?)", key, orderNo).
		Update("order_no", orderNo)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	existing, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("idempotency key %q is not reserved", key)
	}
	return ports.ErrIdempotencyConflict
}

// Release deletes the key only while it is still pending.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("key = ? AND order_no = ''", key).
		Delete(&idempotencyRecord{}).Error
}

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

func (r idempotencyRecord) toPort() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         r.Key,
		RequestHash: r.RequestHash,
		OrderNo:     r.OrderNo,
		CreatedAt:   r.CreatedAt,
	}
}
