// Package sales owns the in-progress sale of one cashier session.
//
// The availability check in Controller.Add is advisory. Two cashiers can pass
// the check against the same snapshot and both submit; only an atomic
// compare-and-decrement in the remote ledger prevents overselling, and this
// package does not assume the ledger performs one.
package sales

import (
	"strings"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/proof"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "tunai"
	PaymentQRIS PaymentMethod = "qris"
)

// ParsePaymentMethod accepts the wire names, case-insensitively.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentCash:
		return PaymentCash, nil
	case PaymentQRIS:
		return PaymentQRIS, nil
	default:
		return "", apperr.Validationf("unknown payment method %q", raw)
	}
}

// RequiresProof reports whether a payment photo must accompany the sale.
func (m PaymentMethod) RequiresProof() bool {
	return m == PaymentQRIS
}

// SaleItem is one line of a recorded sale.
type SaleItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal is UnitPrice × Quantity.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SaleTransaction is a sale as recorded by the remote ledger.
type SaleTransaction struct {
	ID            int64           `json:"id"`
	OutletID      int64           `json:"outlet_id"`
	Items         []SaleItem      `json:"items"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Voided        bool            `json:"voided"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewSale is what Checkout submits to the ledger.
type NewSale struct {
	OutletID      int64
	Items         []SaleItem
	PaymentMethod PaymentMethod
	Total         decimal.Decimal
	Proof         *proof.File
}
