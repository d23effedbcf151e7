// Package store provides the gorm-backed read adapters the fraud engine
// consumes. All reads are company-scoped.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/StackTheCode/invoice-shield/internal/model"
)

// VendorStore reads trusted vendors from the database
type VendorStore struct {
	db *gorm.DB
}

// NewVendorStore creates a vendor store backed by the given database
func NewVendorStore(db *gorm.DB) *VendorStore {
	return &VendorStore{db: db}
}

// ListVendors returns all trusted vendors of a company in registry order
func (s *VendorStore) ListVendors(ctx context.Context, companyID uuid.UUID) ([]model.Vendor, error) {
	var vendors []model.Vendor
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at asc").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

// FindVendorByVAT looks up a vendor by its exact (company, VAT) identity key
func (s *VendorStore) FindVendorByVAT(ctx context.Context, companyID uuid.UUID, vat string) (*model.Vendor, error) {
	var vendor model.Vendor
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND vat_number = ?", companyID, vat).
		First(&vendor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// InvoiceStore reads invoice history from the database
type InvoiceStore struct {
	db *gorm.DB
}

// NewInvoiceStore creates an invoice store backed by the given database
func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// ListInvoices returns all invoices of a company
func (s *InvoiceStore) ListInvoices(ctx context.Context, companyID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
