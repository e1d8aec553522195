package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// WeightUnit is the unit a product's physical weight is stored in
type WeightUnit string

const (
	WeightUnitGram      WeightUnit = "g"
	WeightUnitKilogram  WeightUnit = "kg"
	WeightUnitMilligram WeightUnit = "mg"
	WeightUnitPound     WeightUnit = "lb"
	WeightUnitOunce     WeightUnit = "oz"
)

// DimensionUnit is the unit a product's dimensions are stored in
type DimensionUnit string

const (
	DimensionUnitCentimeter DimensionUnit = "cm"
	DimensionUnitMillimeter DimensionUnit = "mm"
	DimensionUnitInch       DimensionUnit = "in"
	DimensionUnitMeter      DimensionUnit = "m"
)

// Product represents a sellable item with the physical and fiscal
// attributes the fulfillment pipeline needs. DiscountPrice, when set,
// is the effective unit price at checkout.
type Product struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name          string          `json:"name" gorm:"not null"`
	SKU           string          `json:"sku" gorm:"uniqueIndex:idx_products_sku"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         float64         `json:"price" gorm:"type:decimal(10,2);not null"`
	DiscountPrice *float64        `json:"discountPrice,omitempty" gorm:"type:decimal(10,2)"`
	Stock         int             `json:"stock" gorm:"not null;default:0"`
	Images        pq.StringArray  `json:"images" gorm:"type:text[]"`
	Tags          pq.StringArray  `json:"tags" gorm:"type:text[]"`
	IsActive      bool            `json:"isActive" gorm:"default:true"`

	// Physical attributes. Weight and dimensions are stored with their
	// source unit; normalization happens at calculation time.
	Weight        float64       `json:"weight" gorm:"type:decimal(10,3);default:0"`
	WeightUnit    WeightUnit    `json:"weightUnit" gorm:"type:varchar(5);default:'g'"`
	Length        float64       `json:"length" gorm:"type:decimal(10,2);default:0"`
	Width         float64       `json:"width" gorm:"type:decimal(10,2);default:0"`
	Height        float64       `json:"height" gorm:"type:decimal(10,2);default:0"`
	DimensionUnit DimensionUnit `json:"dimensionUnit" gorm:"type:varchar(5);default:'cm'"`

	// Per-product GST rates (percent). Nil means fall back to the
	// store-wide global rate.
	CGSTRate *float64 `json:"cgstRate,omitempty" gorm:"type:decimal(5,2)"`
	SGSTRate *float64 `json:"sgstRate,omitempty" gorm:"type:decimal(5,2)"`
	IGSTRate *float64 `json:"igstRate,omitempty" gorm:"type:decimal(5,2)"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// EffectivePrice returns the discount price when present, otherwise the list price
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 {
		return *p.DiscountPrice
	}
	return p.Price
}

// HasItemTaxRates reports whether the product carries its own GST rates
func (p *Product) HasItemTaxRates() bool {
	return p.CGSTRate != nil || p.SGSTRate != nil || p.IGSTRate != nil
}
