package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment-service/internal/carriers"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/services"
)

// ErrorResponse is the error body returned by all handlers
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// respondError maps the service error taxonomy onto HTTP statuses.
// Checkout-path errors carry user-readable messages; carrier-path
// errors surface the raw provider message for the operator.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		stockErr      *services.InsufficientStockError
		transitionErr *services.InvalidTransitionError
		authErr       *carriers.AuthError
		requestErr    *carriers.RequestError
		svcErr        *carriers.ServiceabilityError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Message: validationErr.Error(),
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Insufficient stock",
			Message: stockErr.Error(),
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not found",
			Message: notFoundErr.Error(),
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Invalid status transition",
			Message: transitionErr.Error(),
		})
	case errors.As(err, &svcErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Not serviceable",
			Message: "This address is not serviceable, try another address",
		})
	case errors.As(err, &authErr):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Carrier authentication failed",
			Message: authErr.Error(),
		})
	case errors.As(err, &requestErr):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Carrier request failed",
			Message: requestErr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal error",
			Message: err.Error(),
		})
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid ID",
			Message: "must be a valid UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// OrderHandler handles HTTP requests for checkout and orders
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder creates a new order from a checkout payload
// @Summary Create a new order
// @Description Run checkout: price snapshot, tax, shipping cost and order persistence
// @Tags orders
// @Accept json
// @Produce json
// @Param order body services.CheckoutRequest true "Checkout request"
// @Success 201 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /checkout/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	// A logged-in customer's email comes from the token, not the body
	if email := c.GetString("customer_email"); email != "" {
		req.CustomerEmail = email
		req.GuestEmail = ""
	}

	order, err := h.orderService.CreateOrder(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder retrieves an order by ID
// @Summary Get order by ID
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrderByNumber retrieves an order by its order number
// @Summary Get order by order number
// @Tags orders
// @Produce json
// @Param orderNumber path string true "Order number"
// @Success 200 {object} models.Order
// @Failure 404 {object} ErrorResponse
// @Router /orders/number/{orderNumber} [get]
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	orderNumber := c.Param("orderNumber")

	order, err := h.orderService.GetOrderByNumber(orderNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders retrieves orders with filtering and pagination
// @Summary List orders
// @Tags orders
// @Produce json
// @Param email query string false "Owner email filter"
// @Param status query string false "Order status filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filters := repository.OrderFilters{}

	if email := c.Query("email"); email != "" {
		filters.Email = &email
	}
	if status := c.Query("status"); status != "" {
		s := models.OrderStatus(status)
		filters.Status = &s
	}
	if from := c.Query("dateFrom"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("dateTo"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &t
		}
	}
	filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.orderService.ListOrders(filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   filters.Page,
		"limit":  filters.Limit,
	})
}

// GetInvoice retrieves the invoice snapshot for an order
// @Summary Get order invoice
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Invoice
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/invoice [get]
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.orderService.GetInvoice(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// UpdatePaymentStatusRequest is the admin payment status update body
type UpdatePaymentStatusRequest struct {
	Status        models.PaymentStatus `json:"status" binding:"required"`
	TransactionID string               `json:"transactionId"`
}

// UpdatePaymentStatus records a gateway payment result on an order
// @Summary Update payment status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param payment body UpdatePaymentStatusRequest true "Payment status update"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Router /admin/orders/{id}/payment-status [patch]
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	switch req.Status {
	case models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusFailed:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid payment status",
			Message: "status must be PENDING, PAID or FAILED",
		})
		return
	}

	order, err := h.orderService.UpdatePaymentStatus(id, req.Status, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrderRequest carries the cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels an order
// @Summary Cancel an order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 409 {object} ErrorResponse
// @Router /admin/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.CancelOrder(id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
