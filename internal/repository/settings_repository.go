package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"fulfillment-service/internal/models"
)

// Settings change rarely; cache generously
const SettingsCacheTTL = 1 * time.Hour

const settingsCacheKey = "fulfillment:settings:store"

// SettingsRepository manages the singleton store settings row
type SettingsRepository interface {
	Get() (*models.StoreSettings, error)
	Update(settings *models.StoreSettings) error
}

type settingsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB, redisClient *redis.Client) SettingsRepository {
	return &settingsRepository{db: db, redis: redisClient}
}

// Get returns the store settings with rate rules in declaration order.
// Creates a default row on first access so checkout always has settings
// to work with.
func (r *settingsRepository) Get() (*models.StoreSettings, error) {
	ctx := context.Background()

	if r.redis != nil {
		val, err := r.redis.Get(ctx, settingsCacheKey).Result()
		if err == nil {
			var settings models.StoreSettings
			if err := json.Unmarshal([]byte(val), &settings); err == nil {
				return &settings, nil
			}
		}
	}

	var settings models.StoreSettings
	err := r.db.
		Preload("WeightRules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("VolumeRules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&settings).Error

	if err == gorm.ErrRecordNotFound {
		settings = models.StoreSettings{
			GlobalTaxRate: 18,
			OriginState:   "Maharashtra",
			OriginPincode: "400001",
			CODEnabled:    true,
		}
		if err := r.db.Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if r.redis != nil {
		if data, marshalErr := json.Marshal(settings); marshalErr == nil {
			r.redis.Set(ctx, settingsCacheKey, data, SettingsCacheTTL)
		}
	}

	return &settings, nil
}

// Update replaces the settings row and its rate rules, preserving the
// declared rule order via Position
func (r *settingsRepository) Update(settings *models.StoreSettings) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("settings_id = ?", settings.ID).Delete(&models.WeightRateRule{}).Error; err != nil {
			return fmt.Errorf("failed to clear weight rules: %w", err)
		}
		if err := tx.Where("settings_id = ?", settings.ID).Delete(&models.VolumeRateRule{}).Error; err != nil {
			return fmt.Errorf("failed to clear volume rules: %w", err)
		}

		for i := range settings.WeightRules {
			settings.WeightRules[i].SettingsID = settings.ID
			settings.WeightRules[i].Position = i
		}
		for i := range settings.VolumeRules {
			settings.VolumeRules[i].SettingsID = settings.ID
			settings.VolumeRules[i].Position = i
		}

		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(settings).Error; err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Del(context.Background(), settingsCacheKey)
	}
	return nil
}
