package repository

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fulfillment-service/internal/models"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByOrderID(orderID uuid.UUID) (*models.Invoice, error)
	GetByNumber(invoiceNumber string) (*models.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(invoice *models.Invoice) error {
	if err := r.db.Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) GetByOrderID(orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.First(&invoice, "order_id = ?", orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByNumber(invoiceNumber string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.First(&invoice, "invoice_number = ?", invoiceNumber).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}
