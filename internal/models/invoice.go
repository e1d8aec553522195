package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice is the immutable fiscal snapshot created when an order is
// confirmed. Amounts are copied from the order at confirmation time and
// never recomputed.
type Invoice struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InvoiceNumber string    `json:"invoiceNumber" gorm:"not null;uniqueIndex:idx_invoices_number"`
	OrderID       uuid.UUID `json:"orderId" gorm:"type:uuid;not null;uniqueIndex:idx_invoices_order"`
	OrderNumber   string    `json:"orderNumber" gorm:"not null"`

	BillingName    string `json:"billingName" gorm:"not null"`
	BillingAddress string `json:"billingAddress" gorm:"not null"`
	BillingState   string `json:"billingState" gorm:"not null"`
	BillingPincode string `json:"billingPincode" gorm:"type:varchar(10)"`

	Subtotal     float64 `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	ShippingCost float64 `json:"shippingCost" gorm:"type:decimal(10,2);default:0"`
	CGST         float64 `json:"cgst" gorm:"type:decimal(10,2);default:0"`
	SGST         float64 `json:"sgst" gorm:"type:decimal(10,2);default:0"`
	IGST         float64 `json:"igst" gorm:"type:decimal(10,2);default:0"`
	TotalAmount  float64 `json:"totalAmount" gorm:"type:decimal(10,2);not null"`

	// Per-line tax snapshot, copied from the order
	TaxBreakdown JSONB `json:"taxBreakdown,omitempty" gorm:"type:jsonb"`

	IssuedAt  time.Time      `json:"issuedAt"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook to generate invoice number and stamp the issue time
func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.InvoiceNumber == "" {
		i.InvoiceNumber = fmt.Sprintf("INV-%d", time.Now().UnixNano())
	}
	if i.IssuedAt.IsZero() {
		i.IssuedAt = time.Now()
	}
	return
}
