package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fulfillment-service/internal/events"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
)

// COD orders promise delivery five days out until a carrier ETA replaces it
const defaultDeliveryETADays = 5

// OrderService defines the business logic interface for checkout and orders
type OrderService interface {
	CreateOrder(req CheckoutRequest) (*models.Order, error)
	GetOrder(id uuid.UUID) (*models.Order, error)
	GetOrderByNumber(orderNumber string) (*models.Order, error)
	ListOrders(filters repository.OrderFilters) ([]models.Order, int64, error)
	GetInvoice(orderID uuid.UUID) (*models.Invoice, error)
	UpdatePaymentStatus(orderID uuid.UUID, status models.PaymentStatus, transactionID string) (*models.Order, error)
	CancelOrder(id uuid.UUID, reason string) (*models.Order, error)
}

// CheckoutRequest is the payload posted by the storefront at checkout
type CheckoutRequest struct {
	CustomerEmail string                `json:"customerEmail"`
	GuestEmail    string                `json:"guestEmail"`
	Items         []CheckoutItemRequest `json:"items" binding:"required,min=1"`
	Shipping      CheckoutShipping      `json:"shipping" binding:"required"`
	PaymentMethod models.PaymentMethod  `json:"paymentMethod" binding:"required"`
}

// CheckoutItemRequest is one cart line at checkout
type CheckoutItemRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CheckoutShipping is the shipping address at checkout
type CheckoutShipping struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Pincode string `json:"pincode" binding:"required"`
}

type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	invoiceRepo  repository.InvoiceRepository
	settingsRepo repository.SettingsRepository
	shipping     *ShippingCalculator
	tax          *TaxCalculator
	publisher    *events.Publisher
	logger       *logrus.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
	settingsRepo repository.SettingsRepository,
	publisher *events.Publisher,
	logger *logrus.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		invoiceRepo:  invoiceRepo,
		settingsRepo: settingsRepo,
		shipping:     NewShippingCalculator(),
		tax:          NewTaxCalculator(),
		publisher:    publisher,
		logger:       logger,
	}
}

// validateCheckout rejects payloads that can never produce an order
func (s *orderService) validateCheckout(req CheckoutRequest) error {
	if len(req.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
	}
	if req.CustomerEmail == "" && req.GuestEmail == "" {
		return NewValidationError("customerEmail", "an owner email is required")
	}
	switch req.PaymentMethod {
	case models.PaymentMethodCOD, models.PaymentMethodRazorpay, models.PaymentMethodUPI:
	default:
		return NewValidationError("paymentMethod", fmt.Sprintf("unsupported payment method %q", req.PaymentMethod))
	}
	if strings.TrimSpace(req.Shipping.Pincode) == "" {
		return NewValidationError("shipping.pincode", "pincode is required")
	}
	return nil
}

// CreateOrder runs the full checkout: validates the payload, snapshots
// prices, aggregates weight and tax, resolves shipping, and persists
// the order. COD orders confirm immediately with an invoice, a pending
// delivery and stock reserved in the same transaction; gateway orders
// stay pending until payment lands.
func (s *orderService) CreateOrder(req CheckoutRequest) (*models.Order, error) {
	if err := s.validateCheckout(req); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}

	if req.PaymentMethod == models.PaymentMethodCOD && !settings.CODEnabled {
		return nil, NewValidationError("paymentMethod", "cash on delivery is currently disabled")
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.BatchGetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var (
		subtotal     float64
		orderItems   []models.OrderItem
		packageLines []PackageLine
		lineTaxes    []LineTax
		breakdown    []models.ItemTaxBreakdown
		decrements   []repository.StockDecrement
	)

	for _, line := range req.Items {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, &NotFoundError{Entity: "product", ID: line.ProductID.String()}
		}
		if product.Stock < line.Quantity {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
		}

		unitPrice := product.EffectivePrice()
		extended := unitPrice * float64(line.Quantity)
		subtotal += extended

		pkg := PackageLine{
			WeightValue:   product.Weight,
			WeightUnit:    product.WeightUnit,
			Length:        product.Length,
			Width:         product.Width,
			Height:        product.Height,
			DimensionUnit: product.DimensionUnit,
			Quantity:      line.Quantity,
		}
		packageLines = append(packageLines, pkg)

		rates := s.tax.ResolveRates(product, settings.GlobalTaxRate)
		lineTax := s.tax.LineTaxFor(unitPrice, line.Quantity, rates)
		lineTaxes = append(lineTaxes, lineTax)
		breakdown = append(breakdown, models.ItemTaxBreakdown{
			ProductID: product.ID,
			CGSTRate:  rates.CGST,
			SGSTRate:  rates.SGST,
			IGSTRate:  rates.IGST,
			CGST:      lineTax.CGST,
			SGST:      lineTax.SGST,
			IGST:      lineTax.IGST,
			Total:     lineTax.Total,
		})

		orderItems = append(orderItems, models.OrderItem{
			ProductID:          product.ID,
			ProductName:        product.Name,
			SKU:                product.SKU,
			Quantity:           line.Quantity,
			UnitPrice:          unitPrice,
			TotalPrice:         extended,
			CGSTAmount:         lineTax.CGST,
			SGSTAmount:         lineTax.SGST,
			IGSTAmount:         lineTax.IGST,
			TaxAmount:          lineTax.Total,
			ChargeableWeightKg: s.shipping.ChargeableWeightKg(pkg),
		})

		decrements = append(decrements, repository.StockDecrement{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
		})
	}

	totals := s.shipping.Aggregate(packageLines)
	shippingCost := s.shipping.ResolveCost(subtotal, totals, settings)
	taxTotals := s.tax.Aggregate(lineTaxes)

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tax breakdown: %w", err)
	}

	order := &models.Order{
		Status:        models.OrderStatusPending,
		CustomerEmail: req.CustomerEmail,
		GuestEmail:    req.GuestEmail,
		Subtotal:      subtotal,
		ShippingCost:  shippingCost,
		Tax:           taxTotals.Total,
		CGST:          taxTotals.CGST,
		SGST:          taxTotals.SGST,
		IGST:          taxTotals.IGST,
		TotalAmount:   subtotal + shippingCost + taxTotals.Total,
		TotalWeight:   totals.TotalWeightGrams / 1000,
		TaxBreakdown:  models.JSONB(breakdownJSON),
		Items:         orderItems,
		Shipping: &models.ShippingDetails{
			Name:    req.Shipping.Name,
			Phone:   req.Shipping.Phone,
			Email:   req.Shipping.Email,
			Address: req.Shipping.Address,
			City:    req.Shipping.City,
			State:   req.Shipping.State,
			Pincode: req.Shipping.Pincode,
		},
		Payment: &models.OrderPayment{
			Method: req.PaymentMethod,
			Status: models.PaymentStatusPending,
			Amount: subtotal + shippingCost + taxTotals.Total,
		},
	}

	var invoice *models.Invoice
	var delivery *models.Delivery
	var checkoutDecrements []repository.StockDecrement

	if req.PaymentMethod == models.PaymentMethodCOD {
		order.Status = models.OrderStatusConfirmed
		invoice = s.buildInvoice(order)
		delivery = s.buildDelivery()
		checkoutDecrements = decrements
	}

	if err := s.orderRepo.CreateCheckout(order, invoice, delivery, checkoutDecrements); err != nil {
		var conflict *repository.StockConflictError
		if errors.As(err, &conflict) {
			return nil, &InsufficientStockError{
				ProductID:   conflict.ProductID,
				ProductName: conflict.ProductName,
				Requested:   conflict.Requested,
				Available:   conflict.Available,
			}
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
		"total":       order.TotalAmount,
		"weightKg":    order.TotalWeight,
	}).Info("Order created")

	if s.publisher != nil {
		ctx := context.Background()
		_ = s.publisher.PublishOrderCreated(ctx, order)
		if order.Status == models.OrderStatusConfirmed {
			_ = s.publisher.PublishOrderConfirmed(ctx, order)
		}
	}

	return order, nil
}

// buildInvoice snapshots the order's amounts into an immutable invoice
func (s *orderService) buildInvoice(order *models.Order) *models.Invoice {
	inv := &models.Invoice{
		Subtotal:     order.Subtotal,
		ShippingCost: order.ShippingCost,
		CGST:         order.CGST,
		SGST:         order.SGST,
		IGST:         order.IGST,
		TotalAmount:  order.TotalAmount,
		TaxBreakdown: order.TaxBreakdown,
	}
	if order.Shipping != nil {
		inv.BillingName = order.Shipping.Name
		inv.BillingAddress = fmt.Sprintf("%s, %s", order.Shipping.Address, order.Shipping.City)
		inv.BillingState = order.Shipping.State
		inv.BillingPincode = order.Shipping.Pincode
	}
	return inv
}

// buildDelivery creates the pending delivery with the default ETA
func (s *orderService) buildDelivery() *models.Delivery {
	eta := time.Now().AddDate(0, 0, defaultDeliveryETADays)
	return &models.Delivery{
		Status:            models.DeliveryStatusPending,
		EstimatedDelivery: &eta,
	}
}

// GetOrder retrieves an order by ID
func (s *orderService) GetOrder(id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", ID: id.String()}
		}
		return nil, err
	}
	return order, nil
}

// GetOrderByNumber retrieves an order by its order number
func (s *orderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", ID: orderNumber}
		}
		return nil, err
	}
	return order, nil
}

// ListOrders retrieves orders with filtering and pagination
func (s *orderService) ListOrders(filters repository.OrderFilters) ([]models.Order, int64, error) {
	return s.orderRepo.List(filters)
}

// GetInvoice retrieves the invoice snapshot for an order
func (s *orderService) GetInvoice(orderID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "invoice", ID: orderID.String()}
		}
		return nil, err
	}
	return invoice, nil
}

// UpdatePaymentStatus records a gateway payment result. A successful
// payment on a pending order confirms it: stock is reserved, the
// invoice snapshot is written and the delivery record created, all
// transactionally.
func (s *orderService) UpdatePaymentStatus(orderID uuid.UUID, status models.PaymentStatus, transactionID string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.orderRepo.UpdatePaymentStatus(orderID, status, transactionID, &now); err != nil {
		return nil, err
	}

	if status == models.PaymentStatusPaid && order.Status == models.OrderStatusPending {
		decrements := make([]repository.StockDecrement, 0, len(order.Items))
		for _, item := range order.Items {
			decrements = append(decrements, repository.StockDecrement{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
			})
		}

		invoice := s.buildInvoice(order)
		delivery := s.buildDelivery()
		if err := s.orderRepo.Confirm(order, invoice, delivery, decrements); err != nil {
			var conflict *repository.StockConflictError
			if errors.As(err, &conflict) {
				return nil, &InsufficientStockError{
					ProductID:   conflict.ProductID,
					ProductName: conflict.ProductName,
					Requested:   conflict.Requested,
					Available:   conflict.Available,
				}
			}
			return nil, err
		}
		order.Status = models.OrderStatusConfirmed

		s.logger.WithField("orderNumber", order.OrderNumber).Info("Order confirmed after payment")
		if s.publisher != nil {
			_ = s.publisher.PublishOrderConfirmed(context.Background(), order)
		}
	}

	return s.GetOrder(orderID)
}

// CancelOrder cancels an order if its status allows it
func (s *orderService) CancelOrder(id uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransitionOrder(order.Status, models.OrderStatusCancelled) {
		return nil, &InvalidTransitionError{
			Entity: "order",
			From:   string(order.Status),
			To:     string(models.OrderStatusCancelled),
		}
	}

	if err := s.orderRepo.UpdateStatus(id, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusCancelled

	s.logger.WithFields(logrus.Fields{
		"orderNumber": order.OrderNumber,
		"reason":      reason,
	}).Info("Order cancelled")

	if s.publisher != nil {
		_ = s.publisher.PublishOrderCancelled(context.Background(), order, reason)
	}

	return order, nil
}
