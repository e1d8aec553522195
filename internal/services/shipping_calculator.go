package services

import (
	"math"

	"fulfillment-service/internal/models"
)

// Couriers price on dimensional weight using a fixed divisor over the
// volume in cubic centimeters.
const volumetricDivisor = 5000

// Orders never bill below half a kilogram, applied at the order level
const minimumBillableWeightKg = 0.5

// PackageLine carries the physical attributes of one cart line for
// weight/volume aggregation
type PackageLine struct {
	WeightValue   float64
	WeightUnit    models.WeightUnit
	Length        float64
	Width         float64
	Height        float64
	DimensionUnit models.DimensionUnit
	Quantity      int
}

// PackageTotals is the aggregated physical profile of an order
type PackageTotals struct {
	TotalWeightGrams float64
	TotalVolumeCm3   float64
}

// ShippingCalculator resolves chargeable weights and tiered shipping
// costs from store settings
type ShippingCalculator struct{}

// NewShippingCalculator creates a new shipping calculator
func NewShippingCalculator() *ShippingCalculator {
	return &ShippingCalculator{}
}

// VolumetricWeightKg derives the dimensional weight of one unit. All
// three dimensions must be present; otherwise the volumetric weight is
// zero and actual weight decides.
func (c *ShippingCalculator) VolumetricWeightKg(line PackageLine) float64 {
	if line.Length <= 0 || line.Width <= 0 || line.Height <= 0 {
		return 0
	}
	l := ToCentimeters(line.Length, line.DimensionUnit)
	w := ToCentimeters(line.Width, line.DimensionUnit)
	h := ToCentimeters(line.Height, line.DimensionUnit)
	// The divisor yields grams here; the trailing division expresses the
	// result in kilograms to match the actual-weight basis.
	return (l * w * h) / volumetricDivisor / 1000
}

// ChargeableWeightKg returns the billable weight of one unit: the
// greater of actual and volumetric weight
func (c *ShippingCalculator) ChargeableWeightKg(line PackageLine) float64 {
	actual := ToKilograms(line.WeightValue, line.WeightUnit)
	volumetric := c.VolumetricWeightKg(line)
	return math.Max(actual, volumetric)
}

// Aggregate sums chargeable weight and volume across all lines. Lines
// without dimensions contribute zero volume but still count toward
// weight. An order that computes to zero weight is floored at the
// minimum billable weight.
func (c *ShippingCalculator) Aggregate(lines []PackageLine) PackageTotals {
	var totals PackageTotals
	for _, line := range lines {
		qty := float64(line.Quantity)
		totals.TotalWeightGrams += c.ChargeableWeightKg(line) * 1000 * qty
		if line.Length > 0 && line.Width > 0 && line.Height > 0 {
			l := ToCentimeters(line.Length, line.DimensionUnit)
			w := ToCentimeters(line.Width, line.DimensionUnit)
			h := ToCentimeters(line.Height, line.DimensionUnit)
			totals.TotalVolumeCm3 += l * w * h * qty
		}
	}
	if totals.TotalWeightGrams <= 0 {
		totals.TotalWeightGrams = minimumBillableWeightKg * 1000
	}
	return totals
}

// ResolveCost prices an order's shipping:
//  1. free shipping when the subtotal clears the threshold
//  2. weight tiers, scanned in declaration order, first matching range
//     wins; weights past every ceiling take the last tier's cost
//  3. volume tiers with the same scan when no weight tiers exist
//  4. flat default cost
//
// Tier declaration order is significant; ranges are not sorted or
// validated for gaps here.
func (c *ShippingCalculator) ResolveCost(subtotal float64, totals PackageTotals, settings *models.StoreSettings) float64 {
	if settings.FreeShippingThreshold > 0 && subtotal >= settings.FreeShippingThreshold {
		return 0
	}

	switch settings.ActiveRateMode() {
	case models.ShippingRateModeWeight:
		for _, rule := range settings.WeightRules {
			if totals.TotalWeightGrams >= rule.MinWeightG && totals.TotalWeightGrams <= rule.MaxWeightG {
				return rule.Cost
			}
		}
		return settings.WeightRules[len(settings.WeightRules)-1].Cost

	case models.ShippingRateModeVolume:
		for _, rule := range settings.VolumeRules {
			if totals.TotalVolumeCm3 >= rule.MinVolumeCm3 && totals.TotalVolumeCm3 <= rule.MaxVolumeCm3 {
				return rule.Cost
			}
		}
		return settings.VolumeRules[len(settings.VolumeRules)-1].Cost
	}

	return settings.DefaultShippingCost
}
