package inventory

import (
	"github.com/esteh-pos/stock-console/internal/apperr"

	"github.com/shopspring/decimal"
)

// LocationKind tells outlet stock apart from warehouse stock.
type LocationKind string

const (
	LocationOutlet    LocationKind = "outlet"
	LocationWarehouse LocationKind = "warehouse"
)

// Material is a catalog entry for a raw ingredient (tea, sugar, cups).
type Material struct {
	ID                         int64           `json:"id"`
	Name                       string          `json:"name"`
	Unit                       string          `json:"unit"`
	LowStockThresholdWarehouse decimal.Decimal `json:"low_stock_threshold_warehouse"`
	LowStockThresholdOutlet    decimal.Decimal `json:"low_stock_threshold_outlet"`
}

// Threshold returns the configured low-stock threshold for the given kind of location.
func (m Material) Threshold(kind LocationKind) decimal.Decimal {
	if kind == LocationWarehouse {
		return m.LowStockThresholdWarehouse
	}
	return m.LowStockThresholdOutlet
}

// StockRow is the quantity of one material at one location.
type StockRow struct {
	LocationID   int64           `json:"location_id"`
	LocationKind LocationKind    `json:"location_kind"`
	MaterialID   int64           `json:"material_id"`
	Quantity     decimal.Decimal `json:"quantity"`

	// Material is filled when the remote answer embeds the catalog entry.
	Material *Material `json:"material,omitempty"`
}

// RecipeLine is one material a product consumes per unit sold.
type RecipeLine struct {
	MaterialID      int64           `json:"material_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// Product is a sellable menu item with its bill of materials.
// An empty Recipe means the product is always available.
type Product struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Recipe []RecipeLine    `json:"recipe"`
}

// Validate checks the product's recipe lines.
func (p Product) Validate() error {
	if p.Price.IsNegative() {
		return apperr.Validationf("product %d: price cannot be negative, got %s", p.ID, p.Price)
	}

	seen := make(map[int64]struct{}, len(p.Recipe))
	for _, line := range p.Recipe {
		if !line.QuantityPerUnit.IsPositive() {
			return apperr.Validationf("product %d: material %d quantity per unit must be positive, got %s",
				p.ID, line.MaterialID, line.QuantityPerUnit)
		}
		if _, dup := seen[line.MaterialID]; dup {
			return apperr.Validationf("product %d: material %d listed twice in recipe", p.ID, line.MaterialID)
		}
		seen[line.MaterialID] = struct{}{}
	}
	return nil
}
