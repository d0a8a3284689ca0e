package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid requisition input")
	ErrForbidden    = actor.ErrForbidden
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidItemName) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrSupplierRequired) ||
		errors.Is(err, domain.ErrInvalidUnitPrice) ||
		errors.Is(err, domain.ErrReasonRequired) ||
		errors.Is(err, domain.ErrInvalidOrderNumber) ||
		errors.Is(err, domain.ErrInvalidRequester) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
