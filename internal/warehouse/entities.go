package warehouse

import (
	"strings"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"

	"github.com/shopspring/decimal"
)

// IncomingGoods is a delivery from a supplier into the warehouse.
type IncomingGoods struct {
	ID         int64           `json:"id,omitempty"`
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Supplier   string          `json:"supplier"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Validate checks the entry before it is sent.
func (g IncomingGoods) Validate() error {
	if g.MaterialID <= 0 {
		return apperr.Validationf("material id must be positive, got %d", g.MaterialID)
	}
	if !g.Quantity.IsPositive() {
		return apperr.Validationf("incoming quantity must be positive, got %s", g.Quantity)
	}
	if strings.TrimSpace(g.Supplier) == "" {
		return apperr.Validationf("supplier is required")
	}
	return nil
}

// Shipment is goods leaving the warehouse for an outlet to fill a request.
type Shipment struct {
	ID         int64           `json:"id"`
	RequestID  int64           `json:"request_id"`
	OutletID   int64           `json:"outlet_id"`
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}
