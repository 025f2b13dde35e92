package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/esteh-pos/stock-console/internal/proof"
	"github.com/esteh-pos/stock-console/internal/requests"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

func requestsPath(forWarehouse bool) string {
	if forWarehouse {
		return "/gudang/permintaan-stok"
	}
	return "/permintaan-stok"
}

// StockRequests lists the requests visible to the outlet, or to the
// warehouse when forWarehouse is set. Rows with a status this client does
// not know are skipped rather than failing the whole board.
func (c *Client) StockRequests(ctx context.Context, forWarehouse bool) ([]requests.StockRequest, error) {
	body, err := c.get(ctx, "list_requests", requestsPath(forWarehouse))
	if err != nil {
		return nil, err
	}
	dtos, err := decodeList[requestDTO]("list_requests", body)
	if err != nil {
		return nil, err
	}

	out := make([]requests.StockRequest, 0, len(dtos))
	for _, d := range dtos {
		r, err := d.toDomain()
		if err != nil {
			c.logger.Warn("⚠️ skipping stock request with unknown status",
				zap.Int64("request_id", d.ID),
				zap.String("status", d.Status))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// CreateRequest submits a new pending request for the token's outlet.
func (c *Client) CreateRequest(ctx context.Context, d requests.Draft) (requests.StockRequest, error) {
	body, err := c.sendJSON(ctx, "create_request", http.MethodPost, "/permintaan-stok",
		requestBody{BahanID: d.MaterialID, Jumlah: d.Quantity})
	if err != nil {
		return requests.StockRequest{}, err
	}
	return c.decodeRequest("create_request", body, requests.StockRequest{
		MaterialID:        d.MaterialID,
		QuantityRequested: d.Quantity,
		Status:            requests.StatusPending,
	})
}

// UpdateRequest replaces the material and quantity of a pending request.
func (c *Client) UpdateRequest(ctx context.Context, id int64, d requests.Draft) (requests.StockRequest, error) {
	body, err := c.sendJSON(ctx, "update_request", http.MethodPut, fmt.Sprintf("/permintaan-stok/%d", id),
		requestBody{BahanID: d.MaterialID, Jumlah: d.Quantity})
	if err != nil {
		return requests.StockRequest{}, err
	}
	return c.decodeRequest("update_request", body, requests.StockRequest{
		ID:                id,
		MaterialID:        d.MaterialID,
		QuantityRequested: d.Quantity,
		Status:            requests.StatusPending,
	})
}

// UpdateRequestStatus moves a request to status.
func (c *Client) UpdateRequestStatus(ctx context.Context, id int64, status requests.Status, forWarehouse bool) error {
	path := fmt.Sprintf("%s/%d", requestsPath(forWarehouse), id)
	_, err := c.sendJSON(ctx, "update_request_status", http.MethodPut, path, statusBody{Status: string(status)})
	return err
}

// DeleteRequest withdraws a pending request.
func (c *Client) DeleteRequest(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete_request", http.MethodDelete, fmt.Sprintf("/permintaan-stok/%d", id), nil)
	return err
}

// ReceiveShipment confirms that a shipment arrived at the outlet. The proof
// photo goes up as multipart field bukti_foto; without one an empty JSON
// body is sent.
func (c *Client) ReceiveShipment(ctx context.Context, shipmentID int64, p *proof.File) error {
	path := fmt.Sprintf("/gudang/barang-keluar/%d/terima", shipmentID)
	if p == nil {
		_, err := c.sendJSON(ctx, "receive_shipment", http.MethodPost, path, map[string]any{})
		return err
	}

	_, err := c.do(ctx, "receive_shipment", http.MethodPost, path, func(r *resty.Request) {
		r.SetMultipartField("bukti_foto", p.FileName(), p.ContentType, bytes.NewReader(p.Data))
	})
	return err
}

// decodeRequest reads the echoed request. A backend that answers with only
// a message gets fallback, so callers still see what they asked for.
func (c *Client) decodeRequest(op string, body []byte, fallback requests.StockRequest) (requests.StockRequest, error) {
	dto, err := decodeItem[requestDTO](op, body)
	if err != nil {
		return requests.StockRequest{}, err
	}
	if dto.ID == 0 {
		return fallback, nil
	}
	if dto.Status == "" {
		dto.Status = string(fallback.Status)
	}
	return dto.toDomain()
}
