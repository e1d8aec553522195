package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryStatus represents the fulfillment status of a delivery
type DeliveryStatus string

const (
	DeliveryStatusPending        DeliveryStatus = "pending"          // Created, awaiting carrier pickup
	DeliveryStatusPickedUp       DeliveryStatus = "picked_up"        // Collected from the origin warehouse
	DeliveryStatusInTransit      DeliveryStatus = "in_transit"       // Moving through the carrier network
	DeliveryStatusOutForDelivery DeliveryStatus = "out_for_delivery" // On the last-mile vehicle
	DeliveryStatusDelivered      DeliveryStatus = "delivered"        // Delivered to the recipient
	DeliveryStatusFailed         DeliveryStatus = "failed"           // Delivery attempt failed / lost
	DeliveryStatusReturned       DeliveryStatus = "returned"         // Returned to origin (RTO)
	DeliveryStatusCancelled      DeliveryStatus = "cancelled"        // Shipment cancelled before handover
)

// Delivery tracks a single order's shipment from confirmation through
// carrier handover to the doorstep. One delivery per order.
type Delivery struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID     uuid.UUID      `json:"orderId" gorm:"type:uuid;not null;uniqueIndex:idx_deliveries_order"`
	OrderNumber string         `json:"orderNumber" gorm:"not null"`
	Status      DeliveryStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_deliveries_status"`

	// Locally generated placeholder until a carrier issues an AWB
	TrackingNumber string `json:"trackingNumber" gorm:"type:varchar(50)"`

	// Carrier references, populated once the shipment is booked
	CarrierShipmentID string `json:"carrierShipmentId,omitempty" gorm:"type:varchar(50)"`
	CarrierOrderID    string `json:"carrierOrderId,omitempty" gorm:"type:varchar(50)"`
	AWBCode           string `json:"awbCode,omitempty" gorm:"type:varchar(50);index:idx_deliveries_awb"`
	CourierName       string `json:"courierName,omitempty" gorm:"type:varchar(100)"`

	// Latest scan snapshot from the carrier's tracking feed
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`

	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Checkpoints []DeliveryCheckpoint `json:"checkpoints,omitempty" gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook to issue the placeholder tracking number
func (d *Delivery) BeforeCreate(tx *gorm.DB) (err error) {
	if d.TrackingNumber == "" {
		d.TrackingNumber = fmt.Sprintf("TRK-%d", time.Now().UnixNano())
	}
	return
}

// IsTerminal reports whether the delivery has reached a final state
func (d *Delivery) IsTerminal() bool {
	switch d.Status {
	case DeliveryStatusDelivered, DeliveryStatusReturned, DeliveryStatusCancelled:
		return true
	}
	return false
}

// DeliveryCheckpoint is one scan event pulled from the carrier's
// tracking feed
type DeliveryCheckpoint struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DeliveryID uuid.UUID      `json:"deliveryId" gorm:"type:uuid;not null;index"`
	Status     DeliveryStatus `json:"status" gorm:"type:varchar(20);not null"`
	Location   string         `json:"location"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
	CreatedAt  time.Time      `json:"createdAt"`
}
