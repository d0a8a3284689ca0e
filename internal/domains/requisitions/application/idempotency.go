package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
)

type normalizedCreateInput struct {
	Requester string                `json:"requester"`
	Items     []normalizedItemInput `json:"items"`
}

type normalizedItemInput struct {
	ItemName      string  `json:"itemName"`
	Specification string  `json:"specification"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
}

// FingerprintCreate hashes a creation request, excluding its idempotency key.
func FingerprintCreate(input ports.CreateInput) (string, error) {
	normalized := normalizedCreateInput{
		Requester: strings.TrimSpace(input.Requester),
		Items:     make([]normalizedItemInput, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		normalized.Items = append(normalized.Items, normalizedItemInput{
			ItemName:      strings.TrimSpace(item.ItemName),
			Specification: strings.TrimSpace(item.Specification),
			Quantity:      item.Quantity,
			Unit:          strings.TrimSpace(item.Unit),
		})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
