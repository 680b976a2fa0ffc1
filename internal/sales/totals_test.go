package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCalculateTotalsPerItemRates(t *testing.T) {
	items := []ItemInput{
		{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("1.50"), TaxRate: decPtr("0.08")},
		{ProductID: 2, Quantity: dec("1"), UnitPrice: dec("8.50"), TaxRate: decPtr("0.25")},
	}
	totals := CalculateTotals(items, DefaultTaxRate)

	require.True(t, totals.Subtotal.Equal(dec("11.50")), totals.Subtotal.String())
	require.True(t, totals.TaxAmount.Equal(dec("2.365")), totals.TaxAmount.String())
	require.True(t, totals.TotalAmount.Equal(dec("13.865")), totals.TotalAmount.String())
}

func TestCalculateTotalsExactTax(t *testing.T) {
	items := []ItemInput{
		{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("1.50"), TaxRate: decPtr("0.08")},
		{ProductID: 2, Quantity: dec("1"), UnitPrice: dec("8.50"), TaxRate: decPtr("0.25")},
	}
	totals := CalculateTotals(items, DefaultTaxRate)

	require.Equal(t, "10", totals.Subtotal.String())
	require.Equal(t, "2.245", totals.TaxAmount.String())
	require.Equal(t, "12.245", totals.TotalAmount.String())
}

func TestCalculateTotalsDefaultRate(t *testing.T) {
	items := []ItemInput{{ProductID: 1, Quantity: dec("3"), UnitPrice: dec("2.00")}}

	totals := CalculateTotals(items, DefaultTaxRate)
	require.True(t, totals.TaxAmount.Equal(dec("0.48")))
	require.True(t, totals.TotalAmount.Equal(dec("6.48")))

	totals = CalculateTotals(items, dec("0"))
	require.True(t, totals.TaxAmount.IsZero())
	require.True(t, totals.TotalAmount.Equal(totals.Subtotal))
}

func TestCalculateTotalsZeroRateOverridesDefault(t *testing.T) {
	items := []ItemInput{{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("5"), TaxRate: decPtr("0")}}
	totals := CalculateTotals(items, DefaultTaxRate)
	require.True(t, totals.TaxAmount.IsZero())
}

func TestGenerateSaleNumberFormat(t *testing.T) {
	a := GenerateSaleNumber(fixedNow)
	b := GenerateSaleNumber(fixedNow)
	require.Regexp(t, `^SALE-\d+-[0-9A-F]{8}$`, a)
	require.NotEqual(t, a, b)
}
