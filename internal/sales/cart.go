package sales

import (
	"github.com/esteh-pos/stock-console/internal/inventory"

	"github.com/shopspring/decimal"
)

// Line is one product in the cart. The price is captured when the product is first added.
type Line struct {
	Product  inventory.Product `json:"product"`
	Quantity int               `json:"quantity"`
}

// Subtotal is the product price times the line quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an insertion-ordered product_id → quantity map. It is not safe
// for concurrent use; Controller serializes access.
type Cart struct {
	lines []Line
	index map[int64]int
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{index: make(map[int64]int)}
}

// Lines returns a copy of the lines in display order.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// Len is the number of distinct products.
func (c *Cart) Len() int { return len(c.lines) }

// Quantity returns the quantity of productID, zero when absent.
func (c *Cart) Quantity(productID int64) int {
	if i, ok := c.index[productID]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) line(productID int64) (Line, bool) {
	if i, ok := c.index[productID]; ok {
		return c.lines[i], true
	}
	return Line{}, false
}

// Total is Σ unit_price × quantity.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Consumption is the material usage of the whole cart.
func (c *Cart) Consumption() map[int64]decimal.Decimal {
	used := make(map[int64]decimal.Decimal)
	for _, l := range c.lines {
		for id, qty := range inventory.Consumption(l.Product, l.Quantity) {
			used[id] = used[id].Add(qty)
		}
	}
	return used
}

// Items converts the cart into sale items.
func (c *Cart) Items() []SaleItem {
	items := make([]SaleItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, SaleItem{ProductID: l.Product.ID, Quantity: l.Quantity, UnitPrice: l.Product.Price})
	}
	return items
}

func (c *Cart) add(p inventory.Product) {
	if i, ok := c.index[p.ID]; ok {
		c.lines[i].Quantity++
		return
	}
	c.index[p.ID] = len(c.lines)
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// change adds delta to a line and drops it when the result is not positive.
// It reports false when the product is not in the cart.
func (c *Cart) change(productID int64, delta int) bool {
	i, ok := c.index[productID]
	if !ok {
		return false
	}
	c.lines[i].Quantity += delta
	if c.lines[i].Quantity <= 0 {
		c.remove(i)
	}
	return true
}

func (c *Cart) remove(i int) {
	delete(c.index, c.lines[i].Product.ID)
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].Product.ID] = j
	}
}

func (c *Cart) clear() {
	c.lines = nil
	c.index = make(map[int64]int)
}
