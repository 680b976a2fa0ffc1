package sales

import "github.com/shopspring/decimal"

// DefaultTaxRate applies to items that carry no tax rate of their own.
var DefaultTaxRate = decimal.RequireFromString("0.08")

// Totals are the derived money fields of a sale header.
type Totals struct {
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// CalculateLineTotals returns the line total and its tax at the given rate.
func CalculateLineTotals(quantity, unitPrice, taxRate decimal.Decimal) (lineTotal, taxAmount decimal.Decimal) {
	lineTotal = quantity.Mul(unitPrice)
	taxAmount = lineTotal.Mul(taxRate)
	return
}

// CalculateTotals accumulates subtotal and tax over items. Each item uses its
// own tax rate or, when absent, defaultRate.
func CalculateTotals(items []ItemInput, defaultRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		rate := defaultRate
		if item.TaxRate != nil {
			rate = *item.TaxRate
		}
		lineTotal, lineTax := CalculateLineTotals(item.Quantity, item.UnitPrice, rate)
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(lineTax)
	}
	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   tax,
		TotalAmount: subtotal.Add(tax),
	}
}

// StockDecrement is the whole-unit amount a sold quantity removes from stock.
// Fractional quantities round up so stock is never under-counted.
func StockDecrement(quantity decimal.Decimal) int64 {
	return quantity.Ceil().IntPart()
}
