package carriers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"fulfillment-service/internal/models"
)

// ShiprocketCarrier implements the Carrier interface for Shiprocket
type ShiprocketCarrier struct {
	config      CarrierConfig
	httpClient  *http.Client
	authToken   string
	tokenExpiry time.Time
}

// NewShiprocketCarrier creates a new Shiprocket carrier instance
func NewShiprocketCarrier(config CarrierConfig) *ShiprocketCarrier {
	return &ShiprocketCarrier{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetName returns the carrier name
func (s *ShiprocketCarrier) GetName() string {
	return "shiprocket"
}

// TestConnection tests the carrier credentials by authenticating with Shiprocket API
func (s *ShiprocketCarrier) TestConnection() error {
	// Force re-authentication to verify credentials
	s.authToken = ""
	s.tokenExpiry = time.Time{}
	return s.authenticate()
}

// authenticate gets an auth token from Shiprocket. Tokens are cached
// for their 10-day validity; there is no automatic refresh on a 401
// mid-session, the caller retries and re-enters here.
func (s *ShiprocketCarrier) authenticate() error {
	if s.authToken != "" && time.Now().Before(s.tokenExpiry) {
		return nil
	}

	endpoint := fmt.Sprintf("%s/v1/external/auth/login", s.config.BaseURL)
	payload := map[string]string{
		"email":    s.config.APIKey,
		"password": s.config.APISecret,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &AuthError{Carrier: s.GetName(), Cause: err}
	}

	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return &AuthError{Carrier: s.GetName(), Cause: err}
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &AuthError{Carrier: s.GetName(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &AuthError{
			Carrier: s.GetName(),
			Cause:   fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes)),
		}
	}

	var authResp struct {
		Token string `json:"token"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return &AuthError{Carrier: s.GetName(), Cause: err}
	}

	s.authToken = authResp.Token
	s.tokenExpiry = time.Now().Add(10 * 24 * time.Hour) // Shiprocket tokens valid for 10 days

	return nil
}

// requestError reads the failed response body into a RequestError
func (s *ShiprocketCarrier) requestError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return &RequestError{
		Carrier:         s.GetName(),
		Status:          resp.StatusCode,
		ProviderMessage: string(bodyBytes),
	}
}

// QuoteRates retrieves courier serviceability and rates from Shiprocket
func (s *ShiprocketCarrier) QuoteRates(request RateRequest) ([]RateQuote, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/external/courier/serviceability", s.config.BaseURL)

	cod := "0"
	if request.COD {
		cod = "1"
	}

	query := url.Values{}
	query.Set("pickup_postcode", request.PickupPincode)
	query.Set("delivery_postcode", request.DeliveryPincode)
	query.Set("weight", fmt.Sprintf("%.2f", request.WeightKg))
	query.Set("cod", cod)
	if request.Length > 0 && request.Width > 0 && request.Height > 0 {
		query.Set("length", fmt.Sprintf("%.2f", request.Length))
		query.Set("breadth", fmt.Sprintf("%.2f", request.Width))
		query.Set("height", fmt.Sprintf("%.2f", request.Height))
	}
	// Declared value affects insurance/handling charges
	if request.DeclaredValue > 0 {
		query.Set("declared_value", fmt.Sprintf("%.2f", request.DeclaredValue))
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s?%s", endpoint, query.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.authToken))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.requestError(resp)
	}

	var ratesResp struct {
		Data struct {
			AvailableCouriers []struct {
				CourierName           string      `json:"courier_name"`
				CourierCompanyID      int         `json:"courier_company_id"`
				Rate                  float64     `json:"rate"`
				FreightCharge         float64     `json:"freight_charge"`
				OtherCharges          float64     `json:"other_charges"`
				EstimatedDeliveryDays interface{} `json:"estimated_delivery_days"` // Can be string or int
			} `json:"available_courier_companies"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&ratesResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(ratesResp.Data.AvailableCouriers) == 0 {
		return nil, &ServiceabilityError{
			PickupPincode:   request.PickupPincode,
			DeliveryPincode: request.DeliveryPincode,
		}
	}

	quotes := make([]RateQuote, 0, len(ratesResp.Data.AvailableCouriers))
	for _, courier := range ratesResp.Data.AvailableCouriers {
		rate := courier.Rate
		if rate == 0 {
			rate = courier.FreightCharge
		}
		rate += courier.OtherCharges

		// Parse estimated delivery days - can be int or string like "3-5"
		estimatedDays := 5
		switch v := courier.EstimatedDeliveryDays.(type) {
		case float64:
			estimatedDays = int(v)
		case int:
			estimatedDays = v
		case string:
			if _, err := fmt.Sscanf(v, "%d", &estimatedDays); err != nil {
				estimatedDays = 5
			}
		}

		quotes = append(quotes, RateQuote{
			CourierID:     fmt.Sprintf("%d", courier.CourierCompanyID),
			CourierName:   courier.CourierName,
			Rate:          rate,
			Currency:      "INR",
			EstimatedDays: estimatedDays,
		})
	}

	return quotes, nil
}

// CreateShipment books an adhoc order with Shiprocket
func (s *ShiprocketCarrier) CreateShipment(request ShipmentRequest) (*ShipmentResult, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/external/orders/create/adhoc", s.config.BaseURL)

	// Shiprocket requires first and last name separately
	firstName, lastName := splitName(request.ToAddress.Name)

	// Shiprocket requires 10-digit Indian phone numbers
	phone := CleanPhoneNumber(request.ToAddress.Phone)
	if len(phone) != 10 {
		log.Printf("shiprocket: invalid phone for order %s, using placeholder", request.OrderNumber)
		phone = "0000000000"
	}

	orderItems := make([]map[string]interface{}, 0, len(request.Items))
	for _, item := range request.Items {
		orderItems = append(orderItems, map[string]interface{}{
			"name":          item.Name,
			"sku":           item.SKU,
			"units":         item.Quantity,
			"selling_price": item.Price,
		})
	}

	paymentMethod := "Prepaid"
	if request.COD {
		paymentMethod = "COD"
	}

	country := request.ToAddress.Country
	if country == "" {
		country = "India"
	}

	payload := map[string]interface{}{
		"order_id":              request.OrderNumber,
		"order_date":            time.Now().Format("2006-01-02 15:04"),
		"pickup_location":       "Primary",
		"billing_customer_name": firstName,
		"billing_last_name":     lastName,
		"billing_address":       request.ToAddress.Street,
		"billing_city":          request.ToAddress.City,
		"billing_pincode":       request.ToAddress.Pincode,
		"billing_state":         request.ToAddress.State,
		"billing_country":       country,
		"billing_email":         request.ToAddress.Email,
		"billing_phone":         phone,
		"shipping_is_billing":   true,
		"order_items":           orderItems,
		"payment_method":        paymentMethod,
		"sub_total":             request.Subtotal,
		"length":                request.Length,
		"breadth":               request.Width,
		"height":                request.Height,
		"weight":                request.WeightKg,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.authToken))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.requestError(resp)
	}

	var createResp struct {
		OrderID    int    `json:"order_id"`
		ShipmentID int    `json:"shipment_id"`
		Status     string `json:"status"`
		AWBCode    string `json:"awb_code"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.Printf("shiprocket: order created - OrderID=%d, ShipmentID=%d, AWB=%s",
		createResp.OrderID, createResp.ShipmentID, createResp.AWBCode)

	return &ShipmentResult{
		CarrierOrderID: fmt.Sprintf("%d", createResp.OrderID),
		ShipmentID:     fmt.Sprintf("%d", createResp.ShipmentID),
		AWBCode:        createResp.AWBCode,
	}, nil
}

// AssignCourier assigns a courier and generates the AWB for a shipment.
// An empty courierID lets Shiprocket pick one.
func (s *ShiprocketCarrier) AssignCourier(shipmentID string, courierID string) (*AWBResult, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/external/courier/assign/awb", s.config.BaseURL)

	payload := map[string]interface{}{
		"shipment_id": shipmentID,
	}
	if courierID != "" {
		payload["courier_id"] = courierID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.authToken))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.requestError(resp)
	}

	var awbResp struct {
		Response struct {
			Data struct {
				AWBCode          string  `json:"awb_code"`
				CourierName      string  `json:"courier_name"`
				CourierCompanyID int     `json:"courier_company_id"`
				ShippingCharge   float64 `json:"applied_weight_slab_charge"`
				FreightCharge    float64 `json:"freight_charge"`
				Rate             float64 `json:"rate"`
			} `json:"data"`
		} `json:"response"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&awbResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Use the best available cost field
	cost := awbResp.Response.Data.Rate
	if cost == 0 {
		cost = awbResp.Response.Data.FreightCharge
	}
	if cost == 0 {
		cost = awbResp.Response.Data.ShippingCharge
	}

	return &AWBResult{
		AWBCode:      awbResp.Response.Data.AWBCode,
		CourierName:  awbResp.Response.Data.CourierName,
		ShippingCost: cost,
	}, nil
}

// SchedulePickup requests warehouse pickup for a booked shipment
func (s *ShiprocketCarrier) SchedulePickup(shipmentID string, date time.Time) error {
	if err := s.authenticate(); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v1/external/courier/generate/pickup", s.config.BaseURL)

	payload := map[string]interface{}{
		"shipment_id": []string{shipmentID},
		"pickup_date": []string{date.Format("2006-01-02")},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.authToken))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.requestError(resp)
	}

	return nil
}

// shiprocketTrackingResponse represents Shiprocket tracking API response
type shiprocketTrackingResponse struct {
	TrackingData struct {
		AWB             string `json:"awb"`
		TrackStatus     int    `json:"track_status"`
		ShipmentStatus  string `json:"shipment_status"`
		CurrentStatus   string `json:"current_status"`
		CurrentStatusID int    `json:"current_status_id"`
		ETD             string `json:"etd"`
		ShipmentTrackActivities []struct {
			Date     string `json:"date"`
			Status   string `json:"status"`
			Activity string `json:"activity"`
			Location string `json:"location"`
		} `json:"shipment_track_activities"`
	} `json:"tracking_data"`
}

// MapShiprocketStatus maps a Shiprocket status ID to the internal
// delivery status vocabulary
func MapShiprocketStatus(statusID int) models.DeliveryStatus {
	// Shiprocket status IDs: https://apidocs.shiprocket.in/
	// 1 - Pickup Pending, 2 - Pickup Queued, 3 - Pickup Scheduled
	// 4 - Out for Pickup, 5 - Picked Up, 6 - In Transit
	// 7 - Delivered, 8 - Cancelled, 9 - RTO Initiated, 10 - RTO Delivered
	// 11 - Lost, 12 - Damaged, 13 - Pickup Rescheduled
	// 17/19 - Out For Delivery
	switch statusID {
	case 1, 2, 3, 4, 13:
		return models.DeliveryStatusPending
	case 5:
		return models.DeliveryStatusPickedUp
	case 6:
		return models.DeliveryStatusInTransit
	case 7:
		return models.DeliveryStatusDelivered
	case 8:
		return models.DeliveryStatusCancelled
	case 9, 10:
		return models.DeliveryStatusReturned
	case 11, 12:
		return models.DeliveryStatusFailed
	case 17, 19:
		return models.DeliveryStatusOutForDelivery
	default:
		return models.DeliveryStatusInTransit
	}
}

// Track retrieves tracking information for a waybill
func (s *ShiprocketCarrier) Track(awbCode string) (*TrackingResult, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/external/courier/track/awb/%s", s.config.BaseURL, awbCode)

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.authToken))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.requestError(resp)
	}

	var trackResp shiprocketTrackingResponse
	if err := json.NewDecoder(resp.Body).Decode(&trackResp); err != nil {
		return nil, fmt.Errorf("failed to parse tracking response: %w", err)
	}

	trackingData := trackResp.TrackingData

	var estimatedDelivery *time.Time
	if trackingData.ETD != "" {
		if parsed, err := time.Parse("2006-01-02", trackingData.ETD); err == nil {
			estimatedDelivery = &parsed
		}
	}

	events := make([]TrackingEvent, 0, len(trackingData.ShipmentTrackActivities))
	for _, activity := range trackingData.ShipmentTrackActivities {
		events = append(events, TrackingEvent{
			Date:     activity.Date,
			Status:   activity.Status,
			Activity: activity.Activity,
			Location: activity.Location,
		})
	}

	return &TrackingResult{
		AWBCode:           awbCode,
		CurrentStatus:     trackingData.CurrentStatus,
		CurrentStatusID:   trackingData.CurrentStatusID,
		EstimatedDelivery: estimatedDelivery,
		Events:            events,
	}, nil
}

// CancelShipment cancels a booked shipment
func (s *ShiprocketCarrier) CancelShipment(carrierOrderID string) error {
	if err := s.authenticate(); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v1/external/orders/cancel/shipment/%s", s.config.BaseURL, carrierOrderID)

	req, err := http.NewRequest("POST", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.authToken))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.requestError(resp)
	}

	return nil
}
