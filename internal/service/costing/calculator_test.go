package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		required    string
		perPackage  string
		price       string
		packages    int64
		billed      string
		total       string
		perUnit     string
		normalizedA string
	}{
		{
			name:     "rounds partial package up",
			required: "60", perPackage: "25", price: "100000",
			packages: 3, billed: "75", total: "300000", perUnit: "5000", normalizedA: "25",
		},
		{
			name:     "exact multiple",
			required: "75", perPackage: "25", price: "100000",
			packages: 3, billed: "75", total: "300000", perUnit: "4000", normalizedA: "25",
		},
		{
			name:     "zero package amount bills per unit",
			required: "10", perPackage: "0", price: "5000",
			packages: 10, billed: "10", total: "50000", perUnit: "5000", normalizedA: "1",
		},
		{
			name:     "negative package amount bills per unit",
			required: "2.5", perPackage: "-4", price: "10",
			packages: 3, billed: "3", total: "30", perUnit: "12", normalizedA: "1",
		},
		{
			name:     "fractional package size",
			required: "1.1", perPackage: "0.5", price: "7.25",
			packages: 3, billed: "1.5", total: "21.75", perUnit: "19.7727", normalizedA: "0.5",
		},
		{
			name:     "nothing required",
			required: "0", perPackage: "25", price: "100000",
			packages: 0, billed: "0", total: "0", perUnit: "0", normalizedA: "25",
		},
		{
			name:     "negative requirement",
			required: "-5", perPackage: "25", price: "100000",
			packages: 0, billed: "0", total: "0", perUnit: "0", normalizedA: "25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Calculate(d(tt.required), d(tt.perPackage), d(tt.price))

			assert.Equal(t, tt.packages, b.PackagesNeeded)
			assertDecimal(t, tt.billed, b.BilledQuantity, "billed")
			assertDecimal(t, tt.total, b.TotalCost, "total")
			assertDecimal(t, tt.perUnit, b.CostPerUnitRequired, "per unit")
			assertDecimal(t, tt.normalizedA, b.AmountPerPackage, "amount per package")
		})
	}
}

func TestBreakdownPerHectare(t *testing.T) {
	b := Calculate(d("60"), d("25"), d("100000"))

	assertDecimal(t, "120000", b.PerHectare(d("2.5")), "per hectare")
	assertDecimal(t, "0", b.PerHectare(decimal.Zero), "zero area")
}

func TestAggregateRoundsPerLine(t *testing.T) {
	lines := []Line{
		{Reference: "plot-1", MaterialID: "npk", Quantity: d("10"), AmountPerPackage: d("25"), PricePerPackage: d("100")},
		{Reference: "plot-2", MaterialID: "npk", Quantity: d("10"), AmountPerPackage: d("25"), PricePerPackage: d("100")},
		{Reference: "plot-3", MaterialID: "npk", Quantity: d("10"), AmountPerPackage: d("25"), PricePerPackage: d("100")},
		{Reference: "plot-1", MaterialID: "herbicide", Quantity: d("3"), AmountPerPackage: d("0"), PricePerPackage: d("40")},
	}

	summary := Aggregate(lines)
	require.Len(t, summary.Lines, 4)
	require.Len(t, summary.Materials, 2)

	herbicide := summary.Materials[0]
	npk := summary.Materials[1]
	assert.Equal(t, "herbicide", herbicide.MaterialID)
	assert.Equal(t, "npk", npk.MaterialID)

	// One bag per plot, although the summed 30 units would fit in two bags.
	assert.Equal(t, int64(3), npk.PackagesNeeded)
	assertDecimal(t, "30", npk.RequiredQuantity, "npk required")
	assertDecimal(t, "75", npk.BilledQuantity, "npk billed")
	assertDecimal(t, "300", npk.TotalCost, "npk total")
	assert.Equal(t, int64(2), Calculate(d("30"), d("25"), d("100")).PackagesNeeded)

	assert.Equal(t, int64(3), herbicide.PackagesNeeded)
	assertDecimal(t, "120", herbicide.TotalCost, "herbicide total")

	assertDecimal(t, "420", summary.TotalCost, "grand total")
	assertDecimal(t, "84", summary.PerHectare(d("5")), "per hectare")
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil)

	assert.Empty(t, summary.Lines)
	assert.Empty(t, summary.Materials)
	assert.True(t, summary.TotalCost.IsZero())
}
