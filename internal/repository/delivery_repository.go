package repository

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fulfillment-service/internal/models"
)

// DeliveryRepository defines the interface for delivery data operations
type DeliveryRepository interface {
	Create(delivery *models.Delivery) error
	GetByID(id uuid.UUID) (*models.Delivery, error)
	GetByOrderID(orderID uuid.UUID) (*models.Delivery, error)
	Update(delivery *models.Delivery) error
	AddCheckpoint(checkpoint *models.DeliveryCheckpoint) error
	List(status *models.DeliveryStatus, page, limit int) ([]models.Delivery, int64, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(delivery *models.Delivery) error {
	if err := r.db.Create(delivery).Error; err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

func (r *deliveryRepository) GetByID(id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.Preload("Checkpoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp DESC")
	}).First(&delivery, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return &delivery, nil
}

func (r *deliveryRepository) GetByOrderID(orderID uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.Preload("Checkpoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp DESC")
	}).First(&delivery, "order_id = ?", orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return &delivery, nil
}

func (r *deliveryRepository) Update(delivery *models.Delivery) error {
	if err := r.db.Save(delivery).Error; err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	return nil
}

func (r *deliveryRepository) AddCheckpoint(checkpoint *models.DeliveryCheckpoint) error {
	if err := r.db.Create(checkpoint).Error; err != nil {
		return fmt.Errorf("failed to add checkpoint: %w", err)
	}
	return nil
}

func (r *deliveryRepository) List(status *models.DeliveryStatus, page, limit int) ([]models.Delivery, int64, error) {
	var deliveries []models.Delivery
	var total int64

	query := r.db.Model(&models.Delivery{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deliveries: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&deliveries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deliveries: %w", err)
	}

	return deliveries, total, nil
}
