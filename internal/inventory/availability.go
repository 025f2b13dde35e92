package inventory

import "github.com/shopspring/decimal"

// Unbounded is the MaxUnits value of a product with an empty recipe.
const Unbounded int64 = -1

// Availability is the derived, never-persisted sellability of one product.
type Availability struct {
	ProductID int64 `json:"product_id"`
	Sellable  bool  `json:"sellable"`

	// LimitingMaterialID is the first recipe line, in recipe order, whose
	// stock is below its per-unit quantity. Nil when Sellable.
	LimitingMaterialID *int64 `json:"limiting_material_id,omitempty"`

	// MaxUnits is how many units the snapshot could cover, or Unbounded.
	MaxUnits int64 `json:"max_units"`
}

// Resolve joins p's recipe against s. It reads nothing but its arguments,
// so repeated calls with the same inputs give the same answer.
func Resolve(p Product, s Snapshot) Availability {
	out := Availability{ProductID: p.ID, Sellable: true, MaxUnits: Unbounded}

	for _, line := range p.Recipe {
		onHand := s.Quantity(line.MaterialID)

		if !line.QuantityPerUnit.IsPositive() {
			// A malformed line can never be satisfied.
			out.markLimited(line.MaterialID)
			continue
		}

		units := onHand.Div(line.QuantityPerUnit).Floor().IntPart()
		if out.MaxUnits == Unbounded || units < out.MaxUnits {
			out.MaxUnits = units
		}
		if onHand.LessThan(line.QuantityPerUnit) {
			out.markLimited(line.MaterialID)
		}
	}
	return out
}

func (a *Availability) markLimited(materialID int64) {
	a.Sellable = false
	a.MaxUnits = 0
	if a.LimitingMaterialID == nil {
		id := materialID
		a.LimitingMaterialID = &id
	}
}

// ResolveAll resolves every product against the same snapshot, keeping the input order.
func ResolveAll(products []Product, s Snapshot) []Availability {
	out := make([]Availability, len(products))
	for i, p := range products {
		out[i] = Resolve(p, s)
	}
	return out
}

// Consumption returns the total material usage of selling qty units of p.
func Consumption(p Product, qty int) map[int64]decimal.Decimal {
	used := make(map[int64]decimal.Decimal, len(p.Recipe))
	n := decimal.NewFromInt(int64(qty))
	for _, line := range p.Recipe {
		used[line.MaterialID] = used[line.MaterialID].Add(line.QuantityPerUnit.Mul(n))
	}
	return used
}
