package services

import (
	"strings"

	"fulfillment-service/internal/models"
)

// Conversion factors to the canonical bases: grams for weight,
// centimeters for length.
var (
	weightToGrams = map[string]float64{
		"g":  1,
		"kg": 1000,
		"mg": 0.001,
		"oz": 28.3495,
		"lb": 453.592,
	}

	lengthToCentimeters = map[string]float64{
		"cm": 1,
		"mm": 0.1,
		"in": 2.54,
		"m":  100,
	}
)

// ToGrams converts a weight value to grams. Unknown units are treated
// as grams rather than rejected; catalog rows predate unit validation
// and downstream totals depend on this fallback.
func ToGrams(value float64, unit models.WeightUnit) float64 {
	factor, ok := weightToGrams[strings.ToLower(strings.TrimSpace(string(unit)))]
	if !ok {
		factor = 1
	}
	return value * factor
}

// ToKilograms converts a weight value to kilograms via the gram basis
func ToKilograms(value float64, unit models.WeightUnit) float64 {
	return ToGrams(value, unit) / 1000
}

// ToCentimeters converts a length value to centimeters. Unknown units
// fall back to centimeters, same policy as ToGrams.
func ToCentimeters(value float64, unit models.DimensionUnit) float64 {
	factor, ok := lengthToCentimeters[strings.ToLower(strings.TrimSpace(string(unit)))]
	if !ok {
		factor = 1
	}
	return value * factor
}
