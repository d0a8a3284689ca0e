package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidSupplierID   = errors.New("supplier id is required")
	ErrInvalidSupplierName = errors.New("supplier name is required")
)

// Supplier is a vendor purchase orders are placed with. Its region decides
// whether shipments pass through customs.
type Supplier struct {
	ID        string
	Name      string
	Region    SupplierRegion
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSupplier(id, name string, region SupplierRegion) (*Supplier, error) {
	s := &Supplier{
		ID:     strings.TrimSpace(id),
		Name:   strings.TrimSpace(name),
		Region: region,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Supplier) Validate() error {
	if s.ID == "" {
		return ErrInvalidSupplierID
	}
	if s.Name == "" {
		return ErrInvalidSupplierName
	}
	if _, err := ParseSupplierRegion(string(s.Region)); err != nil {
		return err
	}
	return nil
}

func (s *Supplier) IsInternational() bool {
	return s.Region == RegionInternational
}
