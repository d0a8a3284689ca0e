package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was reused for a different request.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInProgress indicates the first request for a key has not finished yet.
	ErrIdempotencyInProgress = errors.New("idempotent request still in progress")
)

// IdempotencyRecord ties a client-supplied key to the requisition it created.
// An empty OrderNo marks a reservation whose creation has not completed.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderNo     string
	CreatedAt   time.Time
}

// Pending reports whether the key is reserved but not yet bound to an order.
func (r IdempotencyRecord) Pending() bool { return r.OrderNo == "" }

// IdempotencyStore remembers creation keys so client retries replay the first result.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Reserve atomically claims the key for the request hash. When the key is
	// already held it returns the stored record and reserved=false, with
	// ErrIdempotencyConflict if the stored hash differs.
	Reserve(ctx context.Context, key, requestHash string) (record *IdempotencyRecord, reserved bool, err error)
	// Complete binds a reserved key to the order it created.
	Complete(ctx context.Context, key, orderNo string) error
	// Release drops a reservation that never produced an order.
	Release(ctx context.Context, key string) error
}
