package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
)

var _ ports.CorrectionLog = (*CorrectionLog)(nil)

type CorrectionLog struct {
	mu      sync.RWMutex
	entries []domain.Correction
}

func NewCorrectionLog() *CorrectionLog {
	return &CorrectionLog{}
}

func (l *CorrectionLog) Append(_ context.Context, correction *domain.Correction) error {
	if correction == nil {
		return errors.New("correction is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *correction)
	return nil
}

func (l *CorrectionLog) List(_ context.Context, limit int) ([]*domain.Correction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*domain.Correction, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		c := l.entries[i]
		out = append(out, &c)
	}
	return out, nil
}
