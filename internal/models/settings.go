package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingRateMode selects which rule table prices an order's shipping
type ShippingRateMode string

const (
	ShippingRateModeWeight ShippingRateMode = "weight" // tiers over chargeable weight (kg)
	ShippingRateModeVolume ShippingRateMode = "volume" // tiers over total volume (cm^3)
	ShippingRateModeFlat   ShippingRateMode = "flat"   // no tiers, default cost only
)

// StoreSettings holds the single store-wide configuration row used by
// checkout: global GST rate, origin address for serviceability checks
// and the shipping rate tables.
type StoreSettings struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	// Global GST rate (percent) applied when a product carries no rates
	// of its own. Split in half for intra-state CGST/SGST.
	GlobalTaxRate float64 `json:"globalTaxRate" gorm:"type:decimal(5,2);default:18"`

	// Origin warehouse, the pickup end of carrier serviceability checks
	OriginState   string `json:"originState" gorm:"type:varchar(64);not null"`
	OriginPincode string `json:"originPincode" gorm:"type:varchar(10);not null"`

	// Flat cost used when no tier rule prices the order
	DefaultShippingCost float64 `json:"defaultShippingCost" gorm:"type:decimal(10,2);default:0"`

	// Orders at or above this subtotal ship free; zero disables
	FreeShippingThreshold float64 `json:"freeShippingThreshold" gorm:"type:decimal(10,2);default:0"`

	CODEnabled bool `json:"codEnabled" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	WeightRules []WeightRateRule `json:"weightRules" gorm:"foreignKey:SettingsID;constraint:OnDelete:CASCADE"`
	VolumeRules []VolumeRateRule `json:"volumeRules" gorm:"foreignKey:SettingsID;constraint:OnDelete:CASCADE"`
}

// ActiveRateMode reports which rule table currently prices shipping.
// Weight tiers take precedence over volume tiers when both exist.
func (s *StoreSettings) ActiveRateMode() ShippingRateMode {
	switch {
	case len(s.WeightRules) > 0:
		return ShippingRateModeWeight
	case len(s.VolumeRules) > 0:
		return ShippingRateModeVolume
	}
	return ShippingRateModeFlat
}

// WeightRateRule is one shipping tier over total chargeable weight in
// grams. Rules are scanned in Position order; the first rule whose
// [MinWeightG, MaxWeightG] range covers the order wins, and the last
// rule also prices anything heavier than every tier's ceiling.
type WeightRateRule struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SettingsID uuid.UUID `json:"settingsId" gorm:"type:uuid;not null;index"`
	Position   int       `json:"position" gorm:"not null"`
	MinWeightG float64   `json:"minWeightG" gorm:"type:decimal(12,2);not null"`
	MaxWeightG float64   `json:"maxWeightG" gorm:"type:decimal(12,2);not null"`
	Cost       float64   `json:"cost" gorm:"type:decimal(10,2);not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VolumeRateRule is one shipping tier over total volume in cubic
// centimeters, with the same first-match-else-last scan as weight rules.
type VolumeRateRule struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SettingsID   uuid.UUID `json:"settingsId" gorm:"type:uuid;not null;index"`
	Position     int       `json:"position" gorm:"not null"`
	MinVolumeCm3 float64   `json:"minVolumeCm3" gorm:"type:decimal(14,2);not null"`
	MaxVolumeCm3 float64   `json:"maxVolumeCm3" gorm:"type:decimal(14,2);not null"`
	Cost         float64   `json:"cost" gorm:"type:decimal(10,2);not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
