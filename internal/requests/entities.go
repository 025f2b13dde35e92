package requests

import (
	"strings"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a stock request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusReceived, StatusCancelled}

// Terminal reports whether no further action is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusReceived, StatusCancelled:
		return true
	default:
		return false
	}
}

var statusAliases = map[string]Status{
	"pending":    StatusPending,
	"diajukan":   StatusPending,
	"menunggu":   StatusPending,
	"approved":   StatusApproved,
	"disetujui":  StatusApproved,
	"dikirim":    StatusApproved,
	"rejected":   StatusRejected,
	"ditolak":    StatusRejected,
	"received":   StatusReceived,
	"diterima":   StatusReceived,
	"selesai":    StatusReceived,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"dibatalkan": StatusCancelled,
}

// ParseStatus maps a raw status string from the remote API onto a Status.
// It is the only place wire strings are interpreted.
func ParseStatus(raw string) (Status, error) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", apperr.Validationf("unknown request status %q", raw)
	}
	return s, nil
}

// StockRequest is an outlet's ask for more of one material from the warehouse.
type StockRequest struct {
	ID                int64           `json:"id"`
	OutletID          int64           `json:"outlet_id"`
	MaterialID        int64           `json:"material_id"`
	MaterialName      string          `json:"material_name,omitempty"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// LinkedShipmentID is set once the warehouse has recorded the outgoing shipment.
	LinkedShipmentID *int64 `json:"linked_shipment_id,omitempty"`
}

// Draft is the requester-editable part of a stock request.
type Draft struct {
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Validate checks the draft before anything is sent.
func (d Draft) Validate() error {
	if d.MaterialID <= 0 {
		return apperr.Validationf("material id must be positive, got %d", d.MaterialID)
	}
	if !d.Quantity.IsPositive() {
		return apperr.Validationf("requested quantity must be positive, got %s", d.Quantity)
	}
	return nil
}
