package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material is a purchasable agricultural input such as a fertilizer or a pesticide.
type Material struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	AmountPerPackage decimal.Decimal `json:"amount_per_package"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PackageSize returns the quantity contained in one purchasable package.
// Catalog rows without a usable amount are billed unit by unit.
func (m Material) PackageSize() decimal.Decimal {
	return NormalizePackageSize(m.AmountPerPackage)
}

// NormalizePackageSize substitutes 1 for non-positive package amounts.
func NormalizePackageSize(amount decimal.Decimal) decimal.Decimal {
	if amount.Sign() <= 0 {
		return decimal.NewFromInt(1)
	}
	return amount
}

// PriceInterval is one segment of a material's price history.
// ValidFrom is inclusive, ValidTo is exclusive and nil while the price is current.
type PriceInterval struct {
	ID              string          `json:"id"`
	MaterialID      string          `json:"material_id"`
	PricePerPackage decimal.Decimal `json:"price_per_package"`
	ValidFrom       time.Time       `json:"valid_from"`
	ValidTo         *time.Time      `json:"valid_to,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsOpen reports whether the interval is the currently effective price.
func (p PriceInterval) IsOpen() bool {
	return p.ValidTo == nil
}

// Covers reports whether instant t falls within [ValidFrom, ValidTo).
func (p PriceInterval) Covers(t time.Time) bool {
	if t.Before(p.ValidFrom) {
		return false
	}
	return p.ValidTo == nil || t.Before(*p.ValidTo)
}
