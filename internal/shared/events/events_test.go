package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusChangedStampsIdentity(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	first := NewStatusChanged(AggregateRequisition, "REQ20240601001", "draft", "submitted", "alice", at)
	second := NewStatusChanged(AggregateRequisition, "REQ20240601001", "draft", "submitted", "alice", time.Time{})

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, at, first.OccurredAt)
	assert.False(t, second.OccurredAt.IsZero())
}

func TestDispatcherDeliversEveryEventDespiteFailures(t *testing.T) {
	var delivered []string
	publisher := PublisherFunc(func(_ context.Context, event StatusChanged) error {
		delivered = append(delivered, event.AggregateID)
		if event.AggregateID == "PO1" {
			return errors.New("broker down")
		}
		return nil
	})
	dispatcher := NewDispatcher(publisher, nil)

	require.NotPanics(t, func() {
		dispatcher.Dispatch(context.Background(),
			NewStatusChanged(AggregatePurchaseOrder, "PO1", "not_shipped", "shipped", "bob", time.Time{}),
			NewStatusChanged(AggregatePurchaseOrder, "PO2", "not_shipped", "shipped", "bob", time.Time{}),
		)
	})
	assert.Equal(t, []string{"PO1", "PO2"}, delivered)
}

func TestNilDispatcherAndPublisherAreNoops(t *testing.T) {
	var dispatcher *Dispatcher
	event := NewStatusChanged(AggregateConsolidation, "C1", "not_shipped", "shipped", "", time.Time{})

	assert.NotPanics(t, func() { dispatcher.Dispatch(context.Background(), event) })
	assert.NotPanics(t, func() { NewDispatcher(nil, nil).Dispatch(context.Background(), event) })
}
