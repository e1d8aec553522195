package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"fulfillment-service/internal/models"
)

// Cache TTL constants for orders
const (
	OrderCacheTTL       = 10 * time.Minute // Orders - frequently accessed
	OrderNumberCacheTTL = 10 * time.Minute // Order lookups by number
	OrderListCacheTTL   = 2 * time.Minute  // Order lists - frequent changes
)

const orderCachePrefix = "fulfillment:orders:"

// StockDecrement is one conditional stock reservation inside a checkout
// transaction
type StockDecrement struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
}

// StockConflictError is returned when a conditional decrement affects
// zero rows, meaning stock ran out between quote and commit
type StockConflictError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock conflict on %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	CreateCheckout(order *models.Order, invoice *models.Invoice, delivery *models.Delivery, decrements []StockDecrement) error
	Confirm(order *models.Order, invoice *models.Invoice, delivery *models.Delivery, decrements []StockDecrement) error
	GetByID(id uuid.UUID) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	List(filters OrderFilters) ([]models.Order, int64, error)
	Update(order *models.Order) error
	UpdateStatus(id uuid.UUID, status models.OrderStatus) error
	UpdatePaymentStatus(id uuid.UUID, status models.PaymentStatus, transactionID string, processedAt *time.Time) error
	SetAWBCode(id uuid.UUID, awbCode string) error
	// Health check methods for Redis
	RedisHealth(ctx context.Context) error
	CacheStats() *cache.CacheStats
}

// OrderFilters represents filters for querying orders
type OrderFilters struct {
	Email    *string
	Status   *models.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

type orderRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

// NewOrderRepository creates a new order repository with optional Redis caching
func NewOrderRepository(db *gorm.DB, redisClient *redis.Client) OrderRepository {
	repo := &orderRepository{
		db:    db,
		redis: redisClient,
	}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: OrderCacheTTL,
			KeyPrefix:  orderCachePrefix,
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

func generateOrderCacheKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s", orderID.String())
}

func generateOrderNumberCacheKey(orderNumber string) string {
	return fmt.Sprintf("order:number:%s", orderNumber)
}

// invalidateOrderCaches invalidates all caches related to an order
func (r *orderRepository) invalidateOrderCaches(ctx context.Context, orderID uuid.UUID, orderNumber string) {
	if r.cache == nil {
		return
	}

	_ = r.cache.Delete(ctx, generateOrderCacheKey(orderID))
	if orderNumber != "" {
		_ = r.cache.Delete(ctx, generateOrderNumberCacheKey(orderNumber))
	}
	_ = r.cache.DeletePattern(ctx, "order:list:*")
}

// RedisHealth returns the health status of Redis connection
func (r *orderRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// CacheStats returns cache statistics
func (r *orderRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

// CreateCheckout persists the order and, for confirmed orders, its
// invoice and delivery in one transaction. Stock is reserved with a
// conditional decrement per line; a decrement that matches zero rows
// aborts the whole transaction, so stock is never taken without a
// persisted order.
func (r *orderRepository) CreateCheckout(order *models.Order, invoice *models.Invoice, delivery *models.Delivery, decrements []StockDecrement) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, dec := range decrements {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", dec.ProductID, dec.Quantity).
				Update("stock", gorm.Expr("stock - ?", dec.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				var available int
				tx.Model(&models.Product{}).
					Select("stock").
					Where("id = ?", dec.ProductID).
					Scan(&available)
				return &StockConflictError{
					ProductID:   dec.ProductID,
					ProductName: dec.ProductName,
					Requested:   dec.Quantity,
					Available:   available,
				}
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if invoice != nil {
			invoice.OrderID = order.ID
			invoice.OrderNumber = order.OrderNumber
			if invoice.InvoiceNumber == "" {
				invoice.InvoiceNumber = "INV-" + strings.TrimPrefix(order.OrderNumber, "ORD-")
			}
			if err := tx.Create(invoice).Error; err != nil {
				return fmt.Errorf("failed to create invoice: %w", err)
			}
		}

		if delivery != nil {
			delivery.OrderID = order.ID
			delivery.OrderNumber = order.OrderNumber
			if err := tx.Create(delivery).Error; err != nil {
				return fmt.Errorf("failed to create delivery: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateOrderCaches(context.Background(), order.ID, order.OrderNumber)
	return nil
}

// Confirm flips an already-persisted order to confirmed alongside its
// invoice, delivery and stock reservations, all in one transaction.
// Used when a gateway payment lands after checkout.
func (r *orderRepository) Confirm(order *models.Order, invoice *models.Invoice, delivery *models.Delivery, decrements []StockDecrement) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, dec := range decrements {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", dec.ProductID, dec.Quantity).
				Update("stock", gorm.Expr("stock - ?", dec.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				var available int
				tx.Model(&models.Product{}).
					Select("stock").
					Where("id = ?", dec.ProductID).
					Scan(&available)
				return &StockConflictError{
					ProductID:   dec.ProductID,
					ProductName: dec.ProductName,
					Requested:   dec.Quantity,
					Available:   available,
				}
			}
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.OrderStatusConfirmed).Error; err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}

		if invoice != nil {
			invoice.OrderID = order.ID
			invoice.OrderNumber = order.OrderNumber
			if invoice.InvoiceNumber == "" {
				invoice.InvoiceNumber = "INV-" + strings.TrimPrefix(order.OrderNumber, "ORD-")
			}
			if err := tx.Create(invoice).Error; err != nil {
				return fmt.Errorf("failed to create invoice: %w", err)
			}
		}

		if delivery != nil {
			delivery.OrderID = order.ID
			delivery.OrderNumber = order.OrderNumber
			if err := tx.Create(delivery).Error; err != nil {
				return fmt.Errorf("failed to create delivery: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateOrderCaches(context.Background(), order.ID, order.OrderNumber)
	return nil
}

// GetByID retrieves an order by ID with all related data (with caching)
func (r *orderRepository) GetByID(id uuid.UUID) (*models.Order, error) {
	ctx := context.Background()
	cacheKey := generateOrderCacheKey(id)

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, orderCachePrefix+cacheKey).Result()
		if err == nil {
			var order models.Order
			if err := json.Unmarshal([]byte(val), &order); err == nil {
				return &order, nil
			}
		}
	}

	var order models.Order
	err := r.db.Preload("Items").
		Preload("Shipping").
		Preload("Payment").
		First(&order, "id = ?", id).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	// Cache the result
	if r.redis != nil {
		data, marshalErr := json.Marshal(order)
		if marshalErr == nil {
			r.redis.Set(ctx, orderCachePrefix+cacheKey, data, OrderCacheTTL)
		}
	}

	return &order, nil
}

// GetByOrderNumber retrieves an order by order number (with caching)
func (r *orderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	ctx := context.Background()
	cacheKey := generateOrderNumberCacheKey(orderNumber)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, orderCachePrefix+cacheKey).Result()
		if err == nil {
			var order models.Order
			if err := json.Unmarshal([]byte(val), &order); err == nil {
				return &order, nil
			}
		}
	}

	var order models.Order
	err := r.db.Preload("Items").
		Preload("Shipping").
		Preload("Payment").
		First(&order, "order_number = ?", orderNumber).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if r.redis != nil {
		data, marshalErr := json.Marshal(order)
		if marshalErr == nil {
			r.redis.Set(ctx, orderCachePrefix+cacheKey, data, OrderNumberCacheTTL)
		}
	}

	return &order, nil
}

// List retrieves orders with filtering and pagination
func (r *orderRepository) List(filters OrderFilters) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.Model(&models.Order{})

	if filters.Email != nil && *filters.Email != "" {
		query = query.Where("customer_email = ? OR guest_email = ?", *filters.Email, *filters.Email)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	err := query.Preload("Items").
		Preload("Shipping").
		Preload("Payment").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, total, nil
}

// Update saves the full order row and invalidates caches
func (r *orderRepository) Update(order *models.Order) error {
	if err := r.db.Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	r.invalidateOrderCaches(context.Background(), order.ID, order.OrderNumber)
	return nil
}

// UpdateStatus updates only the order status
func (r *orderRepository) UpdateStatus(id uuid.UUID, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateOrderCaches(context.Background(), id, "")
	return nil
}

// UpdatePaymentStatus updates the payment row for an order
func (r *orderRepository) UpdatePaymentStatus(id uuid.UUID, status models.PaymentStatus, transactionID string, processedAt *time.Time) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	if processedAt != nil {
		updates["processed_at"] = processedAt
	}

	res := r.db.Model(&models.OrderPayment{}).Where("order_id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateOrderCaches(context.Background(), id, "")
	return nil
}

// SetAWBCode records the carrier waybill on the order
func (r *orderRepository) SetAWBCode(id uuid.UUID, awbCode string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("awb_code", awbCode)
	if res.Error != nil {
		return fmt.Errorf("failed to set awb code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateOrderCaches(context.Background(), id, "")
	return nil
}
