package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fulfillment-service/internal/carriers"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/services"
)

// MockDeliveryService is a mock implementation of services.DeliveryService
type MockDeliveryService struct {
	mock.Mock
}

var _ services.DeliveryService = (*MockDeliveryService)(nil)

func (m *MockDeliveryService) GetDelivery(orderID uuid.UUID) (*models.Delivery, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockDeliveryService) QuoteRates(orderID uuid.UUID) ([]carriers.RateQuote, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]carriers.RateQuote), args.Error(1)
}

func (m *MockDeliveryService) Ship(orderID uuid.UUID, courierID string) (*models.Delivery, error) {
	args := m.Called(orderID, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockDeliveryService) SchedulePickup(orderID uuid.UUID, date time.Time) error {
	args := m.Called(orderID, date)
	return args.Error(0)
}

func (m *MockDeliveryService) RefreshTracking(orderID uuid.UUID) (*models.Delivery, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockDeliveryService) AdminUpdate(deliveryID uuid.UUID, req services.AdminDeliveryUpdate) (*models.Delivery, error) {
	args := m.Called(deliveryID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockDeliveryService) CancelShipment(orderID uuid.UUID) (*models.Delivery, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func setupShipmentRouter(service *MockDeliveryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewShipmentHandler(service)

	router := gin.New()
	router.GET("/orders/:id/delivery", handler.GetDelivery)
	router.GET("/admin/orders/:id/rates", handler.QuoteRates)
	router.POST("/admin/orders/:id/ship", handler.Ship)
	router.POST("/admin/orders/:id/pickup", handler.SchedulePickup)
	router.GET("/admin/orders/:id/track", handler.RefreshTracking)
	router.PUT("/admin/deliveries/:id", handler.UpdateDelivery)
	return router
}

func TestQuoteRatesHandler_Success(t *testing.T) {
	service := new(MockDeliveryService)
	router := setupShipmentRouter(service)

	id := uuid.New()
	service.On("QuoteRates", id).Return([]carriers.RateQuote{
		{CourierID: "21", CourierName: "Delhivery Surface", Rate: 90, Currency: "INR", EstimatedDays: 3},
	}, nil)

	req := httptest.NewRequest("GET", "/admin/orders/"+id.String()+"/rates", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rates []carriers.RateQuote `json:"rates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rates, 1)
	assert.Equal(t, "Delhivery Surface", resp.Rates[0].CourierName)
}

func TestQuoteRatesHandler_NotServiceableReturns422(t *testing.T) {
	service := new(MockDeliveryService)
	router := setupShipmentRouter(service)

	id := uuid.New()
	service.On("QuoteRates", id).Return(nil, &carriers.ServiceabilityError{
		PickupPincode: "400001", DeliveryPincode: "999999",
	})

	req := httptest.NewRequest("GET", "/admin/orders/"+id.String()+"/rates", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "try another address")
}

func TestShipHandler_CarrierFailureReturns502(t *testing.T) {
	service := new(MockDeliveryService)
	router := setupShipmentRouter(service)

	id := uuid.New()
	service.On("Ship", id, "21").Return(nil, &carriers.RequestError{
		Carrier: "shiprocket", Status: 500, ProviderMessage: `{"message":"internal error"}`,
	})

	body, _ := json.Marshal(map[string]string{"courierId": "21"})
	req := httptest.NewRequest("POST", "/admin/orders/"+id.String()+"/ship", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	// The raw provider message reaches the operator
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "internal error")
}

func TestSchedulePickupHandler_RejectsBadDate(t *testing.T) {
	service := new(MockDeliveryService)
	router := setupShipmentRouter(service)

	body, _ := json.Marshal(map[string]string{"date": "03-09-2026"})
	req := httptest.NewRequest("POST", "/admin/orders/"+uuid.New().String()+"/pickup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "SchedulePickup", mock.Anything, mock.Anything)
}

func TestSchedulePickupHandler_Success(t *testing.T) {
	service := new(MockDeliveryService)
	router := setupShipmentRouter(service)

	id := uuid.New()
	expected := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	service.On("SchedulePickup", id, expected).Return(nil)

	body, _ := json.Marshal(map[string]string{"date": "2026-09-03"})
	req := httptest.NewRequest("POST", "/admin/orders/"+id.String()+"/pickup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestUpdateDeliveryHandler_PassesPointerFields(t *testing.T) {
	service := new(MockDeliveryService)
	router := setupShipmentRouter(service)

	id := uuid.New()
	var gotReq services.AdminDeliveryUpdate
	service.On("AdminUpdate", id, mock.Anything).
		Run(func(args mock.Arguments) {
			gotReq = args.Get(1).(services.AdminDeliveryUpdate)
		}).
		Return(&models.Delivery{ID: id, Status: models.DeliveryStatusInTransit}, nil)

	body, _ := json.Marshal(map[string]string{"status": "in_transit", "awbCode": "AWB900"})
	req := httptest.NewRequest("PUT", "/admin/deliveries/"+id.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotReq.Status)
	assert.Equal(t, models.DeliveryStatusInTransit, *gotReq.Status)
	require.NotNil(t, gotReq.AWBCode)
	assert.Equal(t, "AWB900", *gotReq.AWBCode)
	assert.Nil(t, gotReq.Notes)
}

func TestGetDeliveryHandler_NotFound(t *testing.T) {
	service := new(MockDeliveryService)
	router := setupShipmentRouter(service)

	id := uuid.New()
	service.On("GetDelivery", id).Return(nil, &services.NotFoundError{Entity: "delivery", ID: id.String()})

	req := httptest.NewRequest("GET", "/orders/"+id.String()+"/delivery", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
