package carriers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfillment-service/internal/models"
)

func newTestCarrier(serverURL string) *ShiprocketCarrier {
	return NewShiprocketCarrier(CarrierConfig{
		APIKey:    "ops@example.com",
		APISecret: "secret",
		BaseURL:   serverURL,
		Enabled:   true,
	})
}

func authStub(w http.ResponseWriter, _ *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
}

// ===========================================
// Authentication tests
// ===========================================

func TestAuthenticate_CachesToken(t *testing.T) {
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ops@example.com", creds["email"])
		authStub(w, r)
	})
	mux.HandleFunc("/v1/external/courier/track/awb/AWB1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(shiprocketTrackingResponse{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	_, err := carrier.Track("AWB1")
	require.NoError(t, err)
	_, err = carrier.Track("AWB1")
	require.NoError(t, err)

	// Token is valid for ten days; only the first call hits the login
	// endpoint
	assert.Equal(t, 1, authCalls)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	err := carrier.TestConnection()

	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, "shiprocket", authErr.Carrier)
}

// ===========================================
// QuoteRates tests
// ===========================================

func TestQuoteRates_ParsesCouriers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/courier/serviceability", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "400001", r.URL.Query().Get("pickup_postcode"))
		assert.Equal(t, "411001", r.URL.Query().Get("delivery_postcode"))
		assert.Equal(t, "1", r.URL.Query().Get("cod"))
		w.Write([]byte(`{
			"data": {
				"available_courier_companies": [
					{"courier_name": "Delhivery Surface", "courier_company_id": 21, "rate": 85.5, "other_charges": 4.5, "estimated_delivery_days": "3-5"},
					{"courier_name": "Xpressbees", "courier_company_id": 34, "rate": 0, "freight_charge": 70, "estimated_delivery_days": 4}
				]
			}
		}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	quotes, err := carrier.QuoteRates(RateRequest{
		PickupPincode:   "400001",
		DeliveryPincode: "411001",
		WeightKg:        0.5,
		COD:             true,
	})

	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "21", quotes[0].CourierID)
	assert.Equal(t, "Delhivery Surface", quotes[0].CourierName)
	assert.Equal(t, 90.0, quotes[0].Rate)
	assert.Equal(t, "INR", quotes[0].Currency)
	assert.Equal(t, 3, quotes[0].EstimatedDays)

	// Zero rate falls back to the freight charge field
	assert.Equal(t, 70.0, quotes[1].Rate)
	assert.Equal(t, 4, quotes[1].EstimatedDays)
}

func TestQuoteRates_NotServiceable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/courier/serviceability", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": {"available_courier_companies": []}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	_, err := carrier.QuoteRates(RateRequest{PickupPincode: "400001", DeliveryPincode: "999999", WeightKg: 1})

	var svcErr *ServiceabilityError
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "999999", svcErr.DeliveryPincode)
}

func TestQuoteRates_ProviderErrorPreserved(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/courier/serviceability", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"weight is required"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	_, err := carrier.QuoteRates(RateRequest{PickupPincode: "400001", DeliveryPincode: "411001"})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.Status)
	assert.Contains(t, reqErr.ProviderMessage, "weight is required")
}

// ===========================================
// CreateShipment tests
// ===========================================

func TestCreateShipment_BuildsAdhocOrder(t *testing.T) {
	var payload map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/orders/create/adhoc", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"order_id": 5001, "shipment_id": 7001, "status": "NEW", "awb_code": ""}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	result, err := carrier.CreateShipment(ShipmentRequest{
		OrderNumber: "ORD-100",
		ToAddress: ShipmentAddress{
			Name:    "Asha Rao",
			Phone:   "+91 98765 43210",
			Street:  "14 MG Road",
			City:    "Pune",
			State:   "Maharashtra",
			Pincode: "411001",
		},
		Items: []ShipmentItem{
			{Name: "Widget", SKU: "WID-1", Quantity: 2, Price: 100},
		},
		Subtotal: 200,
		WeightKg: 0.4,
		COD:      true,
	})

	require.NoError(t, err)
	assert.Equal(t, "5001", result.CarrierOrderID)
	assert.Equal(t, "7001", result.ShipmentID)
	assert.Empty(t, result.AWBCode)

	assert.Equal(t, "ORD-100", payload["order_id"])
	assert.Equal(t, "Asha", payload["billing_customer_name"])
	assert.Equal(t, "Rao", payload["billing_last_name"])
	assert.Equal(t, "9876543210", payload["billing_phone"])
	assert.Equal(t, "COD", payload["payment_method"])
	assert.Equal(t, "India", payload["billing_country"])
	assert.Equal(t, true, payload["shipping_is_billing"])
}

func TestCreateShipment_InvalidPhoneGetsPlaceholder(t *testing.T) {
	var payload map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/orders/create/adhoc", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"order_id": 1, "shipment_id": 2}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	_, err := carrier.CreateShipment(ShipmentRequest{
		OrderNumber: "ORD-101",
		ToAddress:   ShipmentAddress{Name: "X", Phone: "123"},
	})

	require.NoError(t, err)
	assert.Equal(t, "0000000000", payload["billing_phone"])
}

// ===========================================
// AssignCourier tests
// ===========================================

func TestAssignCourier_CostFallbackChain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/courier/assign/awb", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "7001", payload["shipment_id"])
		assert.Equal(t, "21", payload["courier_id"])
		w.Write([]byte(`{
			"response": {
				"data": {
					"awb_code": "AWB900",
					"courier_name": "Delhivery Surface",
					"rate": 0,
					"freight_charge": 88.5
				}
			}
		}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	result, err := carrier.AssignCourier("7001", "21")

	require.NoError(t, err)
	assert.Equal(t, "AWB900", result.AWBCode)
	assert.Equal(t, "Delhivery Surface", result.CourierName)
	assert.Equal(t, 88.5, result.ShippingCost)
}

// ===========================================
// SchedulePickup tests
// ===========================================

func TestSchedulePickup_SendsShipmentAndDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/courier/generate/pickup", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []string{"7001"}, payload["shipment_id"])
		assert.Equal(t, []string{"2026-09-03"}, payload["pickup_date"])
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	date := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, carrier.SchedulePickup("7001", date))
}

// ===========================================
// Tracking tests
// ===========================================

func TestTrack_ParsesActivitiesAndETD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/courier/track/awb/AWB900", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"tracking_data": {
				"awb": "AWB900",
				"current_status": "In Transit",
				"current_status_id": 6,
				"etd": "2026-09-05",
				"shipment_track_activities": [
					{"date": "2026-09-02 10:00", "status": "PKD", "activity": "Picked up", "location": "Mumbai Hub"},
					{"date": "2026-09-01 18:00", "status": "NEW", "activity": "Manifested", "location": "Mumbai"}
				]
			}
		}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	result, err := carrier.Track("AWB900")

	require.NoError(t, err)
	assert.Equal(t, "AWB900", result.AWBCode)
	assert.Equal(t, 6, result.CurrentStatusID)
	require.NotNil(t, result.EstimatedDelivery)
	assert.Equal(t, 2026, result.EstimatedDelivery.Year())
	require.Len(t, result.Events, 2)
	assert.Equal(t, "Mumbai Hub", result.Events[0].Location)
}

func TestMapShiprocketStatus(t *testing.T) {
	cases := map[int]models.DeliveryStatus{
		1:  models.DeliveryStatusPending,
		3:  models.DeliveryStatusPending,
		13: models.DeliveryStatusPending,
		5:  models.DeliveryStatusPickedUp,
		6:  models.DeliveryStatusInTransit,
		7:  models.DeliveryStatusDelivered,
		8:  models.DeliveryStatusCancelled,
		9:  models.DeliveryStatusReturned,
		10: models.DeliveryStatusReturned,
		11: models.DeliveryStatusFailed,
		12: models.DeliveryStatusFailed,
		17: models.DeliveryStatusOutForDelivery,
		19: models.DeliveryStatusOutForDelivery,
		// Unknown IDs stay conservative
		42: models.DeliveryStatusInTransit,
	}
	for statusID, expected := range cases {
		assert.Equal(t, expected, MapShiprocketStatus(statusID), "status id %d", statusID)
	}
}

// ===========================================
// CancelShipment tests
// ===========================================

func TestCancelShipment(t *testing.T) {
	cancelled := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", authStub)
	mux.HandleFunc("/v1/external/orders/cancel/shipment/5001", func(w http.ResponseWriter, _ *http.Request) {
		cancelled = true
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	carrier := newTestCarrier(server.URL)

	assert.NoError(t, carrier.CancelShipment("5001"))
	assert.True(t, cancelled)
}
