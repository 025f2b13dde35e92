package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/esteh-pos/stock-console/internal/inventory"
	"github.com/esteh-pos/stock-console/internal/requests"
	"github.com/esteh-pos/stock-console/internal/sales"
	"github.com/esteh-pos/stock-console/internal/views"
	"github.com/esteh-pos/stock-console/internal/warehouse"
)

var (
	_ inventory.SnapshotSource = (*Client)(nil)
	_ requests.Gateway         = (*Client)(nil)
	_ sales.Ledger             = (*Client)(nil)
	_ warehouse.Gateway        = (*Client)(nil)
	_ views.ProductSource      = (*Client)(nil)
	_ views.RequestSource      = (*Client)(nil)
	_ views.SalesSource        = (*Client)(nil)
)

// CreateIncoming books goods received from a supplier into the warehouse.
func (c *Client) CreateIncoming(ctx context.Context, g warehouse.IncomingGoods) (warehouse.IncomingGoods, error) {
	body, err := c.sendJSON(ctx, "create_incoming", http.MethodPost, "/gudang/barang-masuk", newIncomingBody(g))
	if err != nil {
		return warehouse.IncomingGoods{}, err
	}
	return decodeIncoming("create_incoming", body, g)
}

// UpdateIncoming corrects a booked receipt.
func (c *Client) UpdateIncoming(ctx context.Context, id int64, g warehouse.IncomingGoods) (warehouse.IncomingGoods, error) {
	body, err := c.sendJSON(ctx, "update_incoming", http.MethodPut, fmt.Sprintf("/gudang/barang-masuk/%d", id), newIncomingBody(g))
	if err != nil {
		return warehouse.IncomingGoods{}, err
	}
	g.ID = id
	return decodeIncoming("update_incoming", body, g)
}

// DeleteIncoming removes a booked receipt.
func (c *Client) DeleteIncoming(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete_incoming", http.MethodDelete, fmt.Sprintf("/gudang/barang-masuk/%d", id), nil)
	return err
}

// CreateShipment records stock leaving the warehouse for an approved request.
func (c *Client) CreateShipment(ctx context.Context, s warehouse.Shipment) (warehouse.Shipment, error) {
	body, err := c.sendJSON(ctx, "create_shipment", http.MethodPost, "/gudang/barang-keluar", shipmentBody{
		PermintaanID: s.RequestID,
		OutletID:     s.OutletID,
		BahanID:      s.MaterialID,
		Jumlah:       s.Quantity,
	})
	if err != nil {
		return warehouse.Shipment{}, err
	}

	dto, err := decodeItem[shipmentDTO]("create_shipment", body)
	if err != nil {
		return warehouse.Shipment{}, err
	}
	out := dto.toDomain()
	if out.RequestID == 0 {
		out.RequestID = s.RequestID
	}
	if out.OutletID == 0 {
		out.OutletID = s.OutletID
	}
	if out.MaterialID == 0 {
		out.MaterialID = s.MaterialID
	}
	if out.Quantity.IsZero() {
		out.Quantity = s.Quantity
	}
	return out, nil
}

func decodeIncoming(op string, body []byte, fallback warehouse.IncomingGoods) (warehouse.IncomingGoods, error) {
	dto, err := decodeItem[incomingDTO](op, body)
	if err != nil {
		return warehouse.IncomingGoods{}, err
	}
	if dto.ID == 0 {
		return fallback, nil
	}
	return dto.toDomain(), nil
}
