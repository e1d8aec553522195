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

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/services"
)

// MockOrderService is a mock implementation of services.OrderService
type MockOrderService struct {
	mock.Mock
}

var _ services.OrderService = (*MockOrderService)(nil)

func (m *MockOrderService) CreateOrder(req services.CheckoutRequest) (*models.Order, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(id uuid.UUID) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	args := m.Called(orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(filters repository.OrderFilters) ([]models.Order, int64, error) {
	args := m.Called(filters)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) GetInvoice(orderID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockOrderService) UpdatePaymentStatus(orderID uuid.UUID, status models.PaymentStatus, transactionID string) (*models.Order, error) {
	args := m.Called(orderID, status, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(id uuid.UUID, reason string) (*models.Order, error) {
	args := m.Called(id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func setupOrderRouter(service *MockOrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewOrderHandler(service)

	router := gin.New()
	router.POST("/checkout/orders", handler.CreateOrder)
	router.GET("/orders", handler.ListOrders)
	router.GET("/orders/:id", handler.GetOrder)
	router.GET("/orders/number/:orderNumber", handler.GetOrderByNumber)
	router.PATCH("/admin/orders/:id/payment-status", handler.UpdatePaymentStatus)
	router.POST("/admin/orders/:id/cancel", handler.CancelOrder)
	return router
}

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"guestEmail": "guest@example.com",
		"items": []map[string]interface{}{
			{"productId": uuid.New().String(), "quantity": 1},
		},
		"shipping": map[string]interface{}{
			"name":    "Asha Rao",
			"phone":   "9876543210",
			"address": "14 MG Road",
			"city":    "Pune",
			"state":   "Maharashtra",
			"pincode": "411001",
		},
		"paymentMethod": "cod",
	}
}

func TestCreateOrderHandler_Success(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	service.On("CreateOrder", mock.Anything).Return(&models.Order{
		OrderNumber: "ORD-1",
		Status:      models.OrderStatusConfirmed,
	}, nil)

	body, _ := json.Marshal(checkoutBody())
	req := httptest.NewRequest("POST", "/checkout/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-1", resp.OrderNumber)
}

func TestCreateOrderHandler_TokenEmailOverridesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := new(MockOrderService)
	handler := NewOrderHandler(service)

	router := gin.New()
	router.POST("/checkout/orders", func(c *gin.Context) {
		c.Set("customer_email", "account@example.com")
	}, handler.CreateOrder)

	var gotReq services.CheckoutRequest
	service.On("CreateOrder", mock.Anything).
		Run(func(args mock.Arguments) {
			gotReq = args.Get(0).(services.CheckoutRequest)
		}).
		Return(&models.Order{}, nil)

	body, _ := json.Marshal(checkoutBody())
	req := httptest.NewRequest("POST", "/checkout/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "account@example.com", gotReq.CustomerEmail)
	assert.Empty(t, gotReq.GuestEmail)
}

func TestCreateOrderHandler_ValidationErrorReturns400(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	service.On("CreateOrder", mock.Anything).
		Return(nil, services.NewValidationError("paymentMethod", "cash on delivery is currently disabled"))

	body, _ := json.Marshal(checkoutBody())
	req := httptest.NewRequest("POST", "/checkout/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderHandler_InsufficientStockReturns409(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	service.On("CreateOrder", mock.Anything).Return(nil, &services.InsufficientStockError{
		ProductName: "Widget", Requested: 3, Available: 1,
	})

	body, _ := json.Marshal(checkoutBody())
	req := httptest.NewRequest("POST", "/checkout/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Insufficient stock", resp.Error)
}

func TestGetOrderHandler_InvalidUUID(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	req := httptest.NewRequest("GET", "/orders/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "GetOrder", mock.Anything)
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	id := uuid.New()
	service.On("GetOrder", id).Return(nil, &services.NotFoundError{Entity: "order", ID: id.String()})

	req := httptest.NewRequest("GET", "/orders/"+id.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersHandler_PassesFilters(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	var gotFilters repository.OrderFilters
	service.On("ListOrders", mock.Anything).
		Run(func(args mock.Arguments) {
			gotFilters = args.Get(0).(repository.OrderFilters)
		}).
		Return([]models.Order{}, int64(0), nil)

	from := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
	req := httptest.NewRequest("GET", "/orders?email=guest@example.com&status=CONFIRMED&dateFrom="+from+"&page=2&limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotFilters.Email)
	assert.Equal(t, "guest@example.com", *gotFilters.Email)
	require.NotNil(t, gotFilters.Status)
	assert.Equal(t, models.OrderStatusConfirmed, *gotFilters.Status)
	assert.NotNil(t, gotFilters.DateFrom)
	assert.Equal(t, 2, gotFilters.Page)
	assert.Equal(t, 10, gotFilters.Limit)
}

func TestUpdatePaymentStatusHandler_RejectsUnknownStatus(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	body, _ := json.Marshal(map[string]string{"status": "SETTLED"})
	req := httptest.NewRequest("PATCH", "/admin/orders/"+uuid.New().String()+"/payment-status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrderHandler_TransitionConflict(t *testing.T) {
	service := new(MockOrderService)
	router := setupOrderRouter(service)

	id := uuid.New()
	service.On("CancelOrder", id, "").Return(nil, &services.InvalidTransitionError{
		Entity: "order", From: "DELIVERED", To: "CANCELLED",
	})

	req := httptest.NewRequest("POST", "/admin/orders/"+id.String()+"/cancel", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
