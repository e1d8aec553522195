package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fulfillment-service/internal/services"
)

// ShipmentHandler handles the admin shipment flow for deliveries
type ShipmentHandler struct {
	deliveryService services.DeliveryService
}

// NewShipmentHandler creates a new shipment handler
func NewShipmentHandler(deliveryService services.DeliveryService) *ShipmentHandler {
	return &ShipmentHandler{deliveryService: deliveryService}
}

// GetDelivery retrieves the delivery for an order
// @Summary Get delivery by order ID
// @Tags deliveries
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Delivery
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/delivery [get]
func (h *ShipmentHandler) GetDelivery(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	delivery, err := h.deliveryService.GetDelivery(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, delivery)
}

// QuoteRates asks the carrier for courier options for an order
// @Summary Quote courier rates for an order
// @Tags shipments
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {array} carriers.RateQuote
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /admin/orders/{id}/rates [get]
func (h *ShipmentHandler) QuoteRates(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	quotes, err := h.deliveryService.QuoteRates(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rates": quotes})
}

// ShipRequest optionally pins the courier chosen by the operator
type ShipRequest struct {
	CourierID string `json:"courierId"`
}

// Ship books the order with the carrier and assigns a waybill
// @Summary Ship an order
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param ship body ShipRequest false "Courier selection"
// @Success 200 {object} models.Delivery
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /admin/orders/{id}/ship [post]
func (h *ShipmentHandler) Ship(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ShipRequest
	_ = c.ShouldBindJSON(&req)

	delivery, err := h.deliveryService.Ship(id, req.CourierID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, delivery)
}

// PickupRequest schedules the warehouse pickup date
type PickupRequest struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
}

// SchedulePickup requests carrier pickup for a booked shipment
// @Summary Schedule warehouse pickup
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param pickup body PickupRequest true "Pickup date"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} ErrorResponse
// @Router /admin/orders/{id}/pickup [post]
func (h *ShipmentHandler) SchedulePickup(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req PickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid date",
			Message: "date must be YYYY-MM-DD",
		})
		return
	}

	if err := h.deliveryService.SchedulePickup(id, date); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheduled": true, "date": req.Date})
}

// RefreshTracking pulls the carrier scan feed and advances the delivery
// @Summary Refresh delivery tracking
// @Tags shipments
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Delivery
// @Failure 502 {object} ErrorResponse
// @Router /admin/orders/{id}/track [get]
func (h *ShipmentHandler) RefreshTracking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	delivery, err := h.deliveryService.RefreshTracking(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, delivery)
}

// UpdateDelivery overwrites delivery fields from the admin UI
// @Summary Update delivery fields
// @Tags deliveries
// @Accept json
// @Produce json
// @Param id path string true "Delivery ID"
// @Param delivery body services.AdminDeliveryUpdate true "Fields to overwrite"
// @Success 200 {object} models.Delivery
// @Failure 404 {object} ErrorResponse
// @Router /admin/deliveries/{id} [put]
func (h *ShipmentHandler) UpdateDelivery(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AdminDeliveryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	delivery, err := h.deliveryService.AdminUpdate(id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, delivery)
}

// CancelShipment cancels the carrier booking for an order
// @Summary Cancel a shipment
// @Tags shipments
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Delivery
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /admin/orders/{id}/cancel-shipment [post]
func (h *ShipmentHandler) CancelShipment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	delivery, err := h.deliveryService.CancelShipment(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, delivery)
}
