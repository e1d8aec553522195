package carriers

import "time"

// Carrier is the courier-side contract the fulfillment flow depends on.
// Implementations are thin authenticated wrappers; no call here retries
// automatically, the operator retries through the admin UI.
type Carrier interface {
	// GetName returns the carrier name
	GetName() string

	// TestConnection tests the carrier credentials by making a real API call
	TestConnection() error

	// QuoteRates retrieves courier options for a pincode pair and weight
	QuoteRates(request RateRequest) ([]RateQuote, error)

	// CreateShipment books an order with the carrier
	CreateShipment(request ShipmentRequest) (*ShipmentResult, error)

	// AssignCourier assigns a courier to the shipment and produces the
	// externally trackable waybill number
	AssignCourier(shipmentID string, courierID string) (*AWBResult, error)

	// SchedulePickup requests warehouse pickup for a booked shipment
	SchedulePickup(shipmentID string, date time.Time) error

	// Track retrieves the scan history for a waybill
	Track(awbCode string) (*TrackingResult, error)

	// CancelShipment cancels a booked shipment by carrier order id
	CancelShipment(carrierOrderID string) error
}

// CarrierConfig holds configuration for a carrier
type CarrierConfig struct {
	APIKey       string
	APISecret    string
	BaseURL      string
	Enabled      bool
	IsProduction bool
}

// RateRequest asks for courier options over a pincode pair
type RateRequest struct {
	PickupPincode   string
	DeliveryPincode string
	WeightKg        float64
	Length          float64
	Width           float64
	Height          float64
	DeclaredValue   float64
	COD             bool
}

// RateQuote is one courier option returned by the carrier
type RateQuote struct {
	CourierID     string
	CourierName   string
	Rate          float64
	Currency      string
	EstimatedDays int
}

// ShipmentItem is one order line forwarded to the carrier
type ShipmentItem struct {
	Name     string
	SKU      string
	Quantity int
	Price    float64
}

// ShipmentAddress is the consignee address forwarded to the carrier
type ShipmentAddress struct {
	Name    string
	Phone   string
	Email   string
	Street  string
	City    string
	State   string
	Pincode string
	Country string
}

// ShipmentRequest books an order with the carrier
type ShipmentRequest struct {
	OrderNumber string
	ToAddress   ShipmentAddress
	Items       []ShipmentItem
	Subtotal    float64
	COD         bool
	WeightKg    float64
	Length      float64
	Width       float64
	Height      float64
}

// ShipmentResult identifies a booked shipment on the carrier side
type ShipmentResult struct {
	CarrierOrderID string
	ShipmentID     string
	AWBCode        string
}

// AWBResult holds the result of courier assignment
type AWBResult struct {
	AWBCode      string
	CourierName  string
	ShippingCost float64
}

// TrackingEvent is one scan from the carrier's tracking feed
type TrackingEvent struct {
	Date     string
	Status   string
	Activity string
	Location string
}

// TrackingResult is the decoded tracking response for a waybill
type TrackingResult struct {
	AWBCode           string
	CurrentStatus     string
	CurrentStatusID   int
	EstimatedDelivery *time.Time
	Events            []TrackingEvent
}
