package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens a PostgreSQL connection via GORM and verifies connectivity.
// Driver errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Open dials dsn and returns the DB plus a cleanup function. An empty DSN or
// a failed connection is logged and yields a nil DB so callers can fall back
// to in-memory adapters.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}

// NextSequence atomically increments and returns the counter stored under key.
// Callers inside a transaction should pass the transaction handle.
func NextSequence(ctx context.Context, db *gorm.DB, key string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("postgres connection not configured")
	}
	var value int64
	err := db.WithContext(ctx).Raw(
		`INSERT INTO document_sequences (key, last_value) VALUES (?, 1)
		 ON CONFLICT (key) DO UPDATE SET last_value = document_sequences.last_value + 1
		 RETURNING last_value`, key).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

type sequenceRecord struct {
	Key       string `gorm:"primaryKey;column:key;size:64"`
	LastValue int64  `gorm:"column:last_value"`
}

func (sequenceRecord) TableName() string { return "document_sequences" }

// Models lists the platform-owned tables.
func Models() []any {
	return []any{&sequenceRecord{}}
}
