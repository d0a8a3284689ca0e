package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid delivery input")
	ErrForbidden    = actor.ErrForbidden
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidSupplierID) ||
		errors.Is(err, domain.ErrInvalidSupplierName) ||
		errors.Is(err, domain.ErrInvalidPONumber) ||
		errors.Is(err, domain.ErrPurchaseOrderEmpty) ||
		errors.Is(err, domain.ErrInvalidPOItem) ||
		errors.Is(err, domain.ErrReasonRequired) ||
		errors.Is(err, domain.ErrInvalidConsolidationID) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
