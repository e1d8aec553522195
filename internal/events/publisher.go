package events

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fulfillment-service/internal/models"
)

// Single-store deployment; the shared event envelope still wants a tenant
const storeTenantID = "default"

// Publisher wraps the go-shared events publisher for fulfillment events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new fulfillment events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		// For local development, set NATS_URL=nats://localhost:4222
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "fulfillment-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	// Ensure the orders stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamOrders, []string{"order.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure orders stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "fulfillment-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishOrderCreated publishes an order.created event
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	event := p.buildOrderEvent(events.OrderCreated, order)
	return p.publish(ctx, event)
}

// PublishOrderConfirmed publishes an order.confirmed event
func (p *Publisher) PublishOrderConfirmed(ctx context.Context, order *models.Order) error {
	event := p.buildOrderEvent(events.OrderConfirmed, order)
	return p.publish(ctx, event)
}

// PublishOrderShipped publishes an order.shipped event with carrier references
func (p *Publisher) PublishOrderShipped(ctx context.Context, order *models.Order, courierName, awbCode string) error {
	event := p.buildOrderEvent(events.OrderShipped, order)
	event.CarrierName = courierName
	event.TrackingNumber = awbCode
	return p.publish(ctx, event)
}

// PublishOrderDelivered publishes an order.delivered event
func (p *Publisher) PublishOrderDelivered(ctx context.Context, order *models.Order) error {
	event := p.buildOrderEvent(events.OrderDelivered, order)
	event.DeliveryDate = time.Now().UTC().Format(time.RFC3339)
	return p.publish(ctx, event)
}

// PublishOrderCancelled publishes an order.cancelled event
func (p *Publisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	event := p.buildOrderEvent(events.OrderCancelled, order)
	event.CancellationReason = reason
	event.CancelledBy = "admin"
	return p.publish(ctx, event)
}

// buildOrderEvent creates an OrderEvent from an order model
func (p *Publisher) buildOrderEvent(eventType string, order *models.Order) *events.OrderEvent {
	event := events.NewOrderEvent(eventType, storeTenantID)
	event.SourceID = uuid.New().String()
	event.OrderID = order.ID.String()
	event.OrderNumber = order.OrderNumber
	event.OrderDate = order.CreatedAt.Format(time.RFC3339)
	event.Status = string(order.Status)
	event.TotalAmount = order.TotalAmount
	event.Subtotal = order.Subtotal
	event.Tax = order.Tax
	event.ShippingCost = order.ShippingCost
	event.Currency = "INR"
	event.CustomerEmail = order.OwnerEmail()

	event.Items = make([]events.OrderItem, len(order.Items))
	for i, item := range order.Items {
		event.Items[i] = events.OrderItem{
			ProductID:  item.ProductID.String(),
			SKU:        item.SKU,
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
	}
	event.ItemCount = len(order.Items)

	if order.Shipping != nil {
		event.CustomerName = order.Shipping.Name
		event.CustomerPhone = order.Shipping.Phone
		event.ShippingAddress = &events.Address{
			Name:       order.Shipping.Name,
			Line1:      order.Shipping.Address,
			City:       order.Shipping.City,
			State:      order.Shipping.State,
			PostalCode: order.Shipping.Pincode,
			Country:    "IN",
		}
	}

	if order.Payment != nil {
		event.PaymentMethod = string(order.Payment.Method)
		event.PaymentStatus = string(order.Payment.Status)
	}

	return event
}

// publish is a helper that logs and publishes events asynchronously
func (p *Publisher) publish(ctx context.Context, event *events.OrderEvent) error {
	// Publish asynchronously to not block the main flow
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishOrder(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"orderNumber": event.OrderNumber,
			}).WithError(err).Error("Failed to publish order event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"orderNumber": event.OrderNumber,
			}).Info("Order event published successfully")
		}
	}()

	return nil
}
