// Package docnum formats the dated document numbers used for requisitions,
// purchase orders and consolidations, e.g. REQ20240115003.
package docnum

import (
	"fmt"
	"sync"
	"time"
)

const (
	PrefixRequisition   = "REQ"
	PrefixPurchaseOrder = "PO"
	PrefixConsolidation = "CONS"
)

// DayKey returns the prefix+date part shared by all numbers issued on day.
func DayKey(prefix string, day time.Time) string {
	return prefix + day.UTC().Format("20060102")
}

// Format renders a document number from its day key and sequence.
func Format(dayKey string, seq int64) string {
	return fmt.Sprintf("%s%03d", dayKey, seq)
}

// Counter issues per-day sequences in memory.
type Counter struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewCounter() *Counter {
	return &Counter{last: map[string]int64{}}
}

// Next returns the next number for prefix on day.
func (c *Counter) Next(prefix string, day time.Time) string {
	key := DayKey(prefix, day)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[key]++
	return Format(key, c.last[key])
}
