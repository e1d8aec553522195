package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fulfillment-service/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestResolveRates_GlobalFallback(t *testing.T) {
	calc := NewTaxCalculator()

	rates := calc.ResolveRates(&models.Product{}, 18)

	assert.Equal(t, 9.0, rates.CGST)
	assert.Equal(t, 9.0, rates.SGST)
	assert.Equal(t, 18.0, rates.IGST)
}

func TestResolveRates_ItemOverrideUsedVerbatim(t *testing.T) {
	calc := NewTaxCalculator()

	product := &models.Product{
		CGSTRate: floatPtr(6),
		SGSTRate: floatPtr(6),
		IGSTRate: floatPtr(12),
	}

	rates := calc.ResolveRates(product, 18)

	assert.Equal(t, 6.0, rates.CGST)
	assert.Equal(t, 6.0, rates.SGST)
	assert.Equal(t, 12.0, rates.IGST)
}

func TestResolveRates_PartialOverrideMissingFieldsAreZero(t *testing.T) {
	calc := NewTaxCalculator()

	// A single declared rate switches the product off the global
	// fallback entirely; the absent components do not inherit it.
	product := &models.Product{IGSTRate: floatPtr(12)}

	rates := calc.ResolveRates(product, 18)

	assert.Equal(t, 0.0, rates.CGST)
	assert.Equal(t, 0.0, rates.SGST)
	assert.Equal(t, 12.0, rates.IGST)
}

func TestResolveRates_ExplicitZeroIsAnOverride(t *testing.T) {
	calc := NewTaxCalculator()

	product := &models.Product{
		CGSTRate: floatPtr(0),
		SGSTRate: floatPtr(0),
		IGSTRate: floatPtr(0),
	}

	rates := calc.ResolveRates(product, 18)

	assert.Equal(t, GSTRates{}, rates)
}

func TestLineTaxFor_GlobalFallbackBooksBothRegimes(t *testing.T) {
	calc := NewTaxCalculator()

	rates := calc.ResolveRates(&models.Product{}, 18)
	tax := calc.LineTaxFor(100, 2, rates)

	// ₹200 at the 18% fallback: CGST 9% + SGST 9% + IGST 18%, all
	// three summed. Issued invoices carry these numbers.
	assert.Equal(t, 18.0, tax.CGST)
	assert.Equal(t, 18.0, tax.SGST)
	assert.Equal(t, 36.0, tax.IGST)
	assert.Equal(t, 72.0, tax.Total)
}

func TestLineTaxFor_RoundsEachComponent(t *testing.T) {
	calc := NewTaxCalculator()

	rates := GSTRates{CGST: 9, SGST: 9, IGST: 18}
	tax := calc.LineTaxFor(33.33, 1, rates)

	// 33.33 * 9% = 2.9997 -> 3.00 per half, 5.9994 -> 6.00 for IGST
	assert.Equal(t, 3.0, tax.CGST)
	assert.Equal(t, 3.0, tax.SGST)
	assert.Equal(t, 6.0, tax.IGST)
	assert.Equal(t, 12.0, tax.Total)
}

func TestAggregate_SumsAndReroundsLineTaxes(t *testing.T) {
	calc := NewTaxCalculator()

	lines := []LineTax{
		{CGST: 3.33, SGST: 3.33, IGST: 6.67, Total: 13.33},
		{CGST: 1.11, SGST: 1.11, IGST: 2.22, Total: 4.44},
	}

	totals := calc.Aggregate(lines)

	assert.Equal(t, 4.44, totals.CGST)
	assert.Equal(t, 4.44, totals.SGST)
	assert.Equal(t, 8.89, totals.IGST)
	assert.Equal(t, 17.77, totals.Total)
}

func TestAggregate_Empty(t *testing.T) {
	calc := NewTaxCalculator()

	assert.Equal(t, TaxTotals{}, calc.Aggregate(nil))
}
