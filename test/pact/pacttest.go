//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "procurement-api"
	ConsumerName = "requisition-portal"

	StateRequisitionsBaseline = "requisitions baseline"
	StateRequisitionSubmitted = "requisition REQ20240601001 is submitted with one pending line"
	StateRequisitionMissing   = "no requisition REQ20240601999"
)

const (
	ExistingOrderNo = "REQ20240601001"
	MissingOrderNo  = "REQ20240601999"
	OrderNoPattern  = `^REQ\d{11}$`

	RequesterID = "pact-requester"
	ReviewerID  = "pact-reviewer"
	SupplierID  = "SUP-PACT"
)

const (
	exampleItemName = "Ergonomic chair"
	exampleUnit     = "pcs"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the requisition portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleItemName is the line item both sides agree on.
func ExampleItemName() string { return exampleItemName }

// ExampleCreatePayload provides stable test data for the create interaction.
func ExampleCreatePayload() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"itemName": exampleItemName, "quantity": 2, "unit": exampleUnit},
		},
	}
}

// ExampleApprovePayload approves line 1 of the seeded requisition.
func ExampleApprovePayload() map[string]any {
	return map[string]any{
		"supplierId": SupplierID,
		"unitPrice":  129.5,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
