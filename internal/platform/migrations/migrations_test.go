package migrations

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestModels_CoverEveryTableOnce(t *testing.T) {
	cache := &sync.Map{}
	seen := map[string]bool{}
	for _, model := range Models() {
		parsed, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		require.False(t, seen[parsed.Table], "table %s registered twice", parsed.Table)
		seen[parsed.Table] = true
	}
	for _, table := range []string{
		"document_sequences",
		"request_orders",
		"request_order_items",
		"requisition_idempotency_keys",
		"suppliers",
		"purchase_orders",
		"purchase_order_items",
		"consolidations",
		"status_corrections",
	} {
		require.True(t, seen[table], "missing table %s", table)
	}
}

func TestRun_NilDB(t *testing.T) {
	require.NoError(t, Run(nil))
}
