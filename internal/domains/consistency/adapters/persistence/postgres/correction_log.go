package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
)

var _ ports.CorrectionLog = (*CorrectionLog)(nil)

// CorrectionLog stores repairs in the status_corrections table.
type CorrectionLog struct {
	db *gorm.DB
}

func NewCorrectionLog(db *gorm.DB) *CorrectionLog {
	return &CorrectionLog{db: db}
}

// Models lists the tables owned by this adapter.
func Models() []any {
	return []any{&correctionRecord{}}
}

type correctionRecord struct {
	ID         string    `gorm:"primaryKey;column:id;type:uuid"`
	OrderNo    string    `gorm:"column:order_no;size:32;index"`
	Before     string    `gorm:"column:before_status;type:varchar(32)"`
	After      string    `gorm:"column:after_status;type:varchar(32)"`
	Summary    string    `gorm:"column:summary;type:text"`
	Source     string    `gorm:"column:source;type:varchar(16)"`
	DetectedAt time.Time `gorm:"column:detected_at;index"`
}

func (correctionRecord) TableName() string { return "status_corrections" }

func (l *CorrectionLog) Append(ctx context.Context, correction *domain.Correction) error {
	if l == nil || l.db == nil {
		return errors.New("postgres correction log not configured")
	}
	if correction == nil {
		return errors.New("correction is nil")
	}
	record := correctionRecord{
		ID:         correction.ID,
		OrderNo:    correction.OrderNo,
		Before:     correction.Before,
		After:      correction.After,
		Summary:    correction.Summary,
		Source:     string(correction.Source),
		DetectedAt: correction.DetectedAt,
	}
	return l.db.WithContext(ctx).Create(&record).Error
}

func (l *CorrectionLog) List(ctx context.Context, limit int) ([]*domain.Correction, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("postgres correction log not configured")
	}
	query := l.db.WithContext(ctx).Order("detected_at DESC, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []correctionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Correction, 0, len(records))
	for _, rec := range records {
		out = append(out, &domain.Correction{
			ID:         rec.ID,
			OrderNo:    rec.OrderNo,
			Before:     rec.Before,
			After:      rec.After,
			Summary:    rec.Summary,
			Source:     domain.Source(rec.Source),
			DetectedAt: rec.DetectedAt,
		})
	}
	return out, nil
}
