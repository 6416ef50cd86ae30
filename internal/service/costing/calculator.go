// Package costing converts required material quantities into purchasable packages and their cost.
package costing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

// costPrecision is the number of decimal places kept for derived unit costs.
const costPrecision = 4

// Breakdown is the cost of buying enough packages to cover a required quantity.
type Breakdown struct {
	RequiredQuantity    decimal.Decimal `json:"required_quantity"`
	AmountPerPackage    decimal.Decimal `json:"amount_per_package"`
	PricePerPackage     decimal.Decimal `json:"price_per_package"`
	PackagesNeeded      int64           `json:"packages_needed"`
	BilledQuantity      decimal.Decimal `json:"billed_quantity"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	CostPerUnitRequired decimal.Decimal `json:"cost_per_unit_required"`
}

// Calculate rounds the required quantity up to whole packages. A non-positive
// package amount is billed as one unit per package.
func Calculate(required, amountPerPackage, pricePerPackage decimal.Decimal) Breakdown {
	amount := models.NormalizePackageSize(amountPerPackage)

	b := Breakdown{
		RequiredQuantity:    required,
		AmountPerPackage:    amount,
		PricePerPackage:     pricePerPackage,
		BilledQuantity:      decimal.Zero,
		TotalCost:           decimal.Zero,
		CostPerUnitRequired: decimal.Zero,
	}
	if required.Sign() <= 0 {
		return b
	}

	packages, remainder := required.QuoRem(amount, 0)
	if remainder.Sign() > 0 {
		packages = packages.Add(decimal.NewFromInt(1))
	}

	b.PackagesNeeded = packages.IntPart()
	b.BilledQuantity = packages.Mul(amount)
	b.TotalCost = packages.Mul(pricePerPackage)
	b.CostPerUnitRequired = b.TotalCost.DivRound(required, costPrecision)
	return b
}

// PerHectare spreads the total cost over area hectares. It is zero for a non-positive area.
func (b Breakdown) PerHectare(area decimal.Decimal) decimal.Decimal {
	if area.Sign() <= 0 {
		return decimal.Zero
	}
	return b.TotalCost.DivRound(area, costPrecision)
}

// Line is one purchase unit: a material quantity for a single task or plot.
type Line struct {
	Reference        string          `json:"reference"`
	MaterialID       string          `json:"material_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	AmountPerPackage decimal.Decimal `json:"amount_per_package"`
	PricePerPackage  decimal.Decimal `json:"price_per_package"`
}

// LineCost is the breakdown of one line.
type LineCost struct {
	Reference  string    `json:"reference"`
	MaterialID string    `json:"material_id"`
	Breakdown  Breakdown `json:"breakdown"`
}

// MaterialTotal sums the line breakdowns of one material.
type MaterialTotal struct {
	MaterialID       string          `json:"material_id"`
	RequiredQuantity decimal.Decimal `json:"required_quantity"`
	PackagesNeeded   int64           `json:"packages_needed"`
	BilledQuantity   decimal.Decimal `json:"billed_quantity"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

// Summary aggregates line costs per material and overall.
type Summary struct {
	Lines     []LineCost      `json:"lines"`
	Materials []MaterialTotal `json:"materials"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// Aggregate costs every line on its own and sums the results. Packaging rounding
// happens per line because that is the granularity at which materials are bought.
func Aggregate(lines []Line) Summary {
	summary := Summary{
		Lines:     make([]LineCost, 0, len(lines)),
		TotalCost: decimal.Zero,
	}
	totals := make(map[string]*MaterialTotal)

	for _, line := range lines {
		b := Calculate(line.Quantity, line.AmountPerPackage, line.PricePerPackage)
		summary.Lines = append(summary.Lines, LineCost{Reference: line.Reference, MaterialID: line.MaterialID, Breakdown: b})

		t, ok := totals[line.MaterialID]
		if !ok {
			t = &MaterialTotal{
				MaterialID:       line.MaterialID,
				RequiredQuantity: decimal.Zero,
				BilledQuantity:   decimal.Zero,
				TotalCost:        decimal.Zero,
			}
			totals[line.MaterialID] = t
		}
		if b.RequiredQuantity.Sign() > 0 {
			t.RequiredQuantity = t.RequiredQuantity.Add(b.RequiredQuantity)
		}
		t.PackagesNeeded += b.PackagesNeeded
		t.BilledQuantity = t.BilledQuantity.Add(b.BilledQuantity)
		t.TotalCost = t.TotalCost.Add(b.TotalCost)
		summary.TotalCost = summary.TotalCost.Add(b.TotalCost)
	}

	summary.Materials = make([]MaterialTotal, 0, len(totals))
	for _, t := range totals {
		summary.Materials = append(summary.Materials, *t)
	}
	sort.Slice(summary.Materials, func(i, j int) bool {
		return summary.Materials[i].MaterialID < summary.Materials[j].MaterialID
	})
	return summary
}

// PerHectare spreads the summary total over area hectares.
func (s Summary) PerHectare(area decimal.Decimal) decimal.Decimal {
	if area.Sign() <= 0 {
		return decimal.Zero
	}
	return s.TotalCost.DivRound(area, costPrecision)
}
