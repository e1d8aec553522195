package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONB is a custom type for PostgreSQL JSONB fields
type JSONB json.RawMessage

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = JSONB(v)
		return nil
	case string:
		*j = JSONB([]byte(v))
		return nil
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler
func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSONB) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		*j = nil
		return nil
	}
	*j = JSONB(data)
	return nil
}

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"   // Created, awaiting payment confirmation
	OrderStatusConfirmed OrderStatus = "CONFIRMED" // Payment confirmed (or COD), being fulfilled
	OrderStatusShipped   OrderStatus = "SHIPPED"   // Handed to carrier, AWB assigned
	OrderStatusDelivered OrderStatus = "DELIVERED" // Successfully delivered
	OrderStatusCancelled OrderStatus = "CANCELLED" // Cancelled before delivery
)

// PaymentMethod represents the supported payment methods
type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodCOD      PaymentMethod = "cod"
	PaymentMethodUPI      PaymentMethod = "upi"
)

// PaymentStatus represents the payment/money flow status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Order represents the main order entity. Line prices are frozen at
// creation time; TotalAmount = Subtotal + ShippingCost + Tax.
type Order struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderNumber string      `json:"orderNumber" gorm:"not null;uniqueIndex:idx_orders_order_number"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index:idx_orders_status"`

	// Exactly one of CustomerEmail (registered user) or GuestEmail is set
	CustomerEmail string `json:"customerEmail,omitempty" gorm:"type:varchar(255);index:idx_orders_customer_email"`
	GuestEmail    string `json:"guestEmail,omitempty" gorm:"type:varchar(255)"`

	// Money (INR). Tax = CGST + SGST + IGST.
	Subtotal     float64 `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	ShippingCost float64 `json:"shippingCost" gorm:"type:decimal(10,2);default:0"`
	Tax          float64 `json:"tax" gorm:"type:decimal(10,2);default:0"`
	CGST         float64 `json:"cgst" gorm:"type:decimal(10,2);default:0"`
	SGST         float64 `json:"sgst" gorm:"type:decimal(10,2);default:0"`
	IGST         float64 `json:"igst" gorm:"type:decimal(10,2);default:0"`
	TotalAmount  float64 `json:"totalAmount" gorm:"type:decimal(10,2);not null"`

	// Chargeable package weight in kilograms (actual vs volumetric, whichever is greater)
	TotalWeight float64 `json:"totalWeight" gorm:"type:decimal(10,3);default:0"`

	// Tax breakdown per line, kept for invoice snapshots
	TaxBreakdown JSONB `json:"taxBreakdown,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"createdAt" gorm:"index:idx_orders_created"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Items    []OrderItem      `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipping *ShippingDetails `json:"shipping" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment  *OrderPayment    `json:"payment" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OwnerEmail returns whichever of customer/guest email identifies the order owner
func (o *Order) OwnerEmail() string {
	if o.CustomerEmail != "" {
		return o.CustomerEmail
	}
	return o.GuestEmail
}

// OrderItem represents a line item snapshot in an order
type OrderItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID     uuid.UUID `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null"`
	ProductName string    `json:"productName" gorm:"not null"`
	SKU         string    `json:"sku"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	UnitPrice   float64   `json:"unitPrice" gorm:"type:decimal(10,2);not null"`
	TotalPrice  float64   `json:"totalPrice" gorm:"type:decimal(10,2);not null"`

	// Resolved GST amounts for this line
	CGSTAmount float64 `json:"cgstAmount" gorm:"type:decimal(10,2);default:0"`
	SGSTAmount float64 `json:"sgstAmount" gorm:"type:decimal(10,2);default:0"`
	IGSTAmount float64 `json:"igstAmount" gorm:"type:decimal(10,2);default:0"`
	TaxAmount  float64 `json:"taxAmount" gorm:"type:decimal(10,2);default:0"`

	// Chargeable weight per unit in kilograms
	ChargeableWeightKg float64 `json:"chargeableWeightKg" gorm:"type:decimal(10,3);default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ShippingDetails represents the shipping address captured at checkout
type ShippingDetails struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID uuid.UUID `json:"orderId" gorm:"type:uuid;not null;unique"`
	Name    string    `json:"name" gorm:"not null"`
	Phone   string    `json:"phone" gorm:"not null"`
	Email   string    `json:"email"`
	Address string    `json:"address" gorm:"not null"`
	City    string    `json:"city" gorm:"not null"`
	State   string    `json:"state" gorm:"not null"`
	Pincode string    `json:"pincode" gorm:"type:varchar(10);not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderPayment represents payment information for an order
type OrderPayment struct {
	ID            uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID       uuid.UUID     `json:"orderId" gorm:"type:uuid;not null;unique"`
	Method        PaymentMethod `json:"method" gorm:"type:varchar(20);not null"`
	Status        PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	Amount        float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	TransactionID string        `json:"transactionId"`
	ProcessedAt   *time.Time    `json:"processedAt"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// BeforeCreate hook to generate order number
func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.OrderNumber == "" {
		o.OrderNumber = generateOrderNumber()
	}
	return
}

// generateOrderNumber creates a unique order number
func generateOrderNumber() string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("ORD-%d", timestamp)
}

// ItemTaxBreakdown is the per-line tax snapshot persisted on orders and invoices
type ItemTaxBreakdown struct {
	ProductID uuid.UUID `json:"productId"`
	CGSTRate  float64   `json:"cgstRate"`
	SGSTRate  float64   `json:"sgstRate"`
	IGSTRate  float64   `json:"igstRate"`
	CGST      float64   `json:"cgst"`
	SGST      float64   `json:"sgst"`
	IGST      float64   `json:"igst"`
	Total     float64   `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message,omitempty"`
}
