package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fulfillment-service/internal/carriers"
	"fulfillment-service/internal/events"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
)

// DeliveryService drives the admin shipment flow: rate quotes, carrier
// booking, pickup scheduling and tracking refresh.
type DeliveryService interface {
	GetDelivery(orderID uuid.UUID) (*models.Delivery, error)
	QuoteRates(orderID uuid.UUID) ([]carriers.RateQuote, error)
	Ship(orderID uuid.UUID, courierID string) (*models.Delivery, error)
	SchedulePickup(orderID uuid.UUID, date time.Time) error
	RefreshTracking(orderID uuid.UUID) (*models.Delivery, error)
	AdminUpdate(deliveryID uuid.UUID, req AdminDeliveryUpdate) (*models.Delivery, error)
	CancelShipment(orderID uuid.UUID) (*models.Delivery, error)
}

// AdminDeliveryUpdate is a direct field overwrite from the admin UI.
// Status changes here bypass the transition table; the operator is
// trusted to correct carrier data by hand.
type AdminDeliveryUpdate struct {
	Status            *models.DeliveryStatus `json:"status"`
	CourierName       *string                `json:"courierName"`
	AWBCode           *string                `json:"awbCode"`
	Location          *string                `json:"location"`
	Notes             *string                `json:"notes"`
	EstimatedDelivery *time.Time             `json:"estimatedDelivery"`
}

type deliveryService struct {
	deliveryRepo repository.DeliveryRepository
	orderRepo    repository.OrderRepository
	settingsRepo repository.SettingsRepository
	carrier      carriers.Carrier
	publisher    *events.Publisher
	logger       *logrus.Logger
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(
	deliveryRepo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	settingsRepo repository.SettingsRepository,
	carrier carriers.Carrier,
	publisher *events.Publisher,
	logger *logrus.Logger,
) DeliveryService {
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		orderRepo:    orderRepo,
		settingsRepo: settingsRepo,
		carrier:      carrier,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *deliveryService) getOrderAndDelivery(orderID uuid.UUID) (*models.Order, *models.Delivery, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Entity: "order", ID: orderID.String()}
		}
		return nil, nil, err
	}

	delivery, err := s.deliveryRepo.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Entity: "delivery", ID: orderID.String()}
		}
		return nil, nil, err
	}

	return order, delivery, nil
}

// GetDelivery retrieves the delivery for an order
func (s *deliveryService) GetDelivery(orderID uuid.UUID) (*models.Delivery, error) {
	_, delivery, err := s.getOrderAndDelivery(orderID)
	return delivery, err
}

// QuoteRates asks the carrier which couriers serve the order's route
func (s *deliveryService) QuoteRates(orderID uuid.UUID) ([]carriers.RateQuote, error) {
	order, _, err := s.getOrderAndDelivery(orderID)
	if err != nil {
		return nil, err
	}
	if order.Shipping == nil {
		return nil, NewValidationError("shipping", "order has no shipping address")
	}

	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}

	cod := order.Payment != nil && order.Payment.Method == models.PaymentMethodCOD

	return s.carrier.QuoteRates(carriers.RateRequest{
		PickupPincode:   settings.OriginPincode,
		DeliveryPincode: order.Shipping.Pincode,
		WeightKg:        order.TotalWeight,
		DeclaredValue:   order.Subtotal,
		COD:             cod,
	})
}

// Ship books the order with the carrier and assigns a courier, which
// produces the trackable waybill. The order moves to shipped.
func (s *deliveryService) Ship(orderID uuid.UUID, courierID string) (*models.Delivery, error) {
	order, delivery, err := s.getOrderAndDelivery(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusConfirmed {
		return nil, &InvalidTransitionError{
			Entity: "order",
			From:   string(order.Status),
			To:     string(models.OrderStatusShipped),
		}
	}
	if order.Shipping == nil {
		return nil, NewValidationError("shipping", "order has no shipping address")
	}

	items := make([]carriers.ShipmentItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, carriers.ShipmentItem{
			Name:     item.ProductName,
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		})
	}

	cod := order.Payment != nil && order.Payment.Method == models.PaymentMethodCOD

	result, err := s.carrier.CreateShipment(carriers.ShipmentRequest{
		OrderNumber: order.OrderNumber,
		ToAddress: carriers.ShipmentAddress{
			Name:    order.Shipping.Name,
			Phone:   order.Shipping.Phone,
			Email:   order.Shipping.Email,
			Street:  order.Shipping.Address,
			City:    order.Shipping.City,
			State:   order.Shipping.State,
			Pincode: order.Shipping.Pincode,
			Country: "India",
		},
		Items:    items,
		Subtotal: order.Subtotal,
		COD:      cod,
		WeightKg: order.TotalWeight,
	})
	if err != nil {
		return nil, err
	}

	delivery.CarrierOrderID = result.CarrierOrderID
	delivery.CarrierShipmentID = result.ShipmentID

	awbCode := result.AWBCode
	courierName := ""
	if awbCode == "" {
		awb, err := s.carrier.AssignCourier(result.ShipmentID, courierID)
		if err != nil {
			// Persist the booked shipment so the operator can retry
			// courier assignment without re-booking
			if saveErr := s.deliveryRepo.Update(delivery); saveErr != nil {
				s.logger.WithError(saveErr).Error("Failed to save delivery after booking")
			}
			return nil, err
		}
		awbCode = awb.AWBCode
		courierName = awb.CourierName
	}

	delivery.AWBCode = awbCode
	delivery.CourierName = courierName
	now := time.Now()
	delivery.ShippedAt = &now

	if err := s.deliveryRepo.Update(delivery); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SetAWBCode(order.ID, awbCode); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(order.ID, models.OrderStatusShipped); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"orderNumber": order.OrderNumber,
		"awbCode":     awbCode,
		"courier":     courierName,
	}).Info("Order shipped")

	if s.publisher != nil {
		order.Status = models.OrderStatusShipped
		_ = s.publisher.PublishOrderShipped(context.Background(), order, courierName, awbCode)
	}

	return delivery, nil
}

// SchedulePickup requests warehouse pickup for a booked shipment
func (s *deliveryService) SchedulePickup(orderID uuid.UUID, date time.Time) error {
	_, delivery, err := s.getOrderAndDelivery(orderID)
	if err != nil {
		return err
	}
	if delivery.CarrierShipmentID == "" {
		return NewValidationError("delivery", "shipment has not been booked with the carrier")
	}
	return s.carrier.SchedulePickup(delivery.CarrierShipmentID, date)
}

// RefreshTracking pulls the carrier's scan feed, maps the carrier
// status onto the internal vocabulary and advances the delivery. Scans
// that would move the delivery backwards are recorded as checkpoints
// but do not change the status.
func (s *deliveryService) RefreshTracking(orderID uuid.UUID) (*models.Delivery, error) {
	order, delivery, err := s.getOrderAndDelivery(orderID)
	if err != nil {
		return nil, err
	}
	if delivery.AWBCode == "" {
		return nil, NewValidationError("delivery", "no waybill assigned yet")
	}

	tracking, err := s.carrier.Track(delivery.AWBCode)
	if err != nil {
		return nil, err
	}

	mapped := carriers.MapShiprocketStatus(tracking.CurrentStatusID)

	if len(tracking.Events) > 0 {
		latest := tracking.Events[0]
		delivery.Location = latest.Location
		delivery.Notes = latest.Activity

		for _, event := range tracking.Events {
			timestamp, parseErr := time.Parse("2006-01-02 15:04:05", event.Date)
			if parseErr != nil {
				timestamp, _ = time.Parse("2006-01-02", event.Date)
			}
			checkpoint := &models.DeliveryCheckpoint{
				DeliveryID: delivery.ID,
				Status:     mapped,
				Location:   event.Location,
				Message:    event.Activity,
				Timestamp:  timestamp,
			}
			if err := s.deliveryRepo.AddCheckpoint(checkpoint); err != nil {
				s.logger.WithError(err).Warn("Failed to record tracking checkpoint")
			}
		}
	}

	if tracking.EstimatedDelivery != nil {
		delivery.EstimatedDelivery = tracking.EstimatedDelivery
	}

	statusChanged := false
	if mapped != delivery.Status && models.CanTransitionDelivery(delivery.Status, mapped) {
		delivery.Status = mapped
		statusChanged = true
		if mapped == models.DeliveryStatusDelivered {
			now := time.Now()
			delivery.DeliveredAt = &now
		}
	}

	if err := s.deliveryRepo.Update(delivery); err != nil {
		return nil, err
	}

	if statusChanged {
		s.applyOrderStatus(order, delivery.Status)
	}

	return delivery, nil
}

// applyOrderStatus moves the order lifecycle in step with its delivery
func (s *deliveryService) applyOrderStatus(order *models.Order, status models.DeliveryStatus) {
	next := models.OrderStatusForDelivery(status)
	if next == "" || next == order.Status || !models.CanTransitionOrder(order.Status, next) {
		return
	}
	if err := s.orderRepo.UpdateStatus(order.ID, next); err != nil {
		s.logger.WithError(err).Error("Failed to sync order status with delivery")
		return
	}
	order.Status = next

	if s.publisher != nil && next == models.OrderStatusDelivered {
		_ = s.publisher.PublishOrderDelivered(context.Background(), order)
	}
}

// AdminUpdate overwrites delivery fields directly. No transition
// validation: the operator corrects whatever the carrier feed got wrong.
func (s *deliveryService) AdminUpdate(deliveryID uuid.UUID, req AdminDeliveryUpdate) (*models.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByID(deliveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "delivery", ID: deliveryID.String()}
		}
		return nil, err
	}

	if req.Status != nil {
		delivery.Status = *req.Status
		if *req.Status == models.DeliveryStatusDelivered && delivery.DeliveredAt == nil {
			now := time.Now()
			delivery.DeliveredAt = &now
		}
	}
	if req.CourierName != nil {
		delivery.CourierName = *req.CourierName
	}
	if req.AWBCode != nil {
		delivery.AWBCode = *req.AWBCode
	}
	if req.Location != nil {
		delivery.Location = *req.Location
	}
	if req.Notes != nil {
		delivery.Notes = *req.Notes
	}
	if req.EstimatedDelivery != nil {
		delivery.EstimatedDelivery = req.EstimatedDelivery
	}

	if err := s.deliveryRepo.Update(delivery); err != nil {
		return nil, err
	}

	if req.Status != nil {
		order, err := s.orderRepo.GetByID(delivery.OrderID)
		if err == nil {
			s.applyOrderStatus(order, delivery.Status)
		}
	}

	return delivery, nil
}

// CancelShipment cancels the carrier booking and marks the delivery
// cancelled. Terminal deliveries cannot be cancelled.
func (s *deliveryService) CancelShipment(orderID uuid.UUID) (*models.Delivery, error) {
	_, delivery, err := s.getOrderAndDelivery(orderID)
	if err != nil {
		return nil, err
	}
	if delivery.IsTerminal() {
		return nil, &InvalidTransitionError{
			Entity: "delivery",
			From:   string(delivery.Status),
			To:     string(models.DeliveryStatusCancelled),
		}
	}

	if delivery.CarrierOrderID != "" {
		if err := s.carrier.CancelShipment(delivery.CarrierOrderID); err != nil {
			return nil, err
		}
	}

	delivery.Status = models.DeliveryStatusCancelled
	if err := s.deliveryRepo.Update(delivery); err != nil {
		return nil, err
	}

	s.logger.WithField("orderNumber", delivery.OrderNumber).Info("Shipment cancelled")

	return delivery, nil
}
