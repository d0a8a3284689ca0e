package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps creation keys in memory for development and tests.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: map[string]ports.IdempotencyRecord{}}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *IdempotencyStore) Reserve(_ context.Context, key, requestHash string) (*ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok {
		if existing.RequestHash != requestHash {
			return &existing, false, ports.ErrIdempotencyConflict
		}
		return &existing, false, nil
	}
	record := ports.IdempotencyRecord{Key: key, RequestHash: requestHash, CreatedAt: time.Now().UTC()}
	s.records[key] = record
	return &record, true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key, orderNo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return fmt.Errorf("idempotency key %q is not reserved", key)
	}
	if !record.Pending() && record.OrderNo != orderNo {
		return ports.ErrIdempotencyConflict
	}
	record.OrderNo = orderNo
	s.records[key] = record
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[key]; ok && record.Pending() {
		delete(s.records, key)
	}
	return nil
}
