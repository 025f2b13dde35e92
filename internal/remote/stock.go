package remote

import (
	"context"

	"github.com/esteh-pos/stock-console/internal/inventory"
)

// OutletStock lists the stock rows of one outlet. The backend scopes
// /stok/outlet by token; rows tagged with another outlet are dropped.
func (c *Client) OutletStock(ctx context.Context, outletID int64) ([]inventory.StockRow, error) {
	dtos, err := c.stockRows(ctx, "outlet_stock", "/stok/outlet")
	if err != nil {
		return nil, err
	}

	rows := make([]inventory.StockRow, 0, len(dtos))
	for _, d := range dtos {
		row := d.toDomain(inventory.LocationOutlet)
		if row.LocationID != 0 && outletID != 0 && row.LocationID != outletID {
			continue
		}
		row.LocationID = outletID
		rows = append(rows, row)
	}
	return rows, nil
}

// WarehouseStock lists the central warehouse's stock rows.
func (c *Client) WarehouseStock(ctx context.Context) ([]inventory.StockRow, error) {
	dtos, err := c.stockRows(ctx, "warehouse_stock", "/gudang/stok")
	if err != nil {
		return nil, err
	}

	rows := make([]inventory.StockRow, 0, len(dtos))
	for _, d := range dtos {
		rows = append(rows, d.toDomain(inventory.LocationWarehouse))
	}
	return rows, nil
}

func (c *Client) stockRows(ctx context.Context, op, path string) ([]stockRowDTO, error) {
	body, err := c.get(ctx, op, path)
	if err != nil {
		return nil, err
	}
	return decodeList[stockRowDTO](op, body)
}
