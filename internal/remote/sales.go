package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/esteh-pos/stock-console/internal/sales"

	"github.com/go-resty/resty/v2"
)

// CreateSale records a sale; the backend deducts every recipe material from
// the outlet's stock. A QRIS sale carries its proof as multipart field bukti_qris.
func (c *Client) CreateSale(ctx context.Context, sale sales.NewSale) (sales.SaleTransaction, error) {
	fields, err := saleFields(sale, time.Now())
	if err != nil {
		return sales.SaleTransaction{}, fmt.Errorf("encoding sale items: %w", err)
	}

	var body []byte
	if sale.Proof == nil {
		body, err = c.sendJSON(ctx, "create_sale", http.MethodPost, "/transaksi", fields)
	} else {
		p := sale.Proof
		body, err = c.do(ctx, "create_sale", http.MethodPost, "/transaksi", func(r *resty.Request) {
			r.SetMultipartFormData(fields).
				SetMultipartField("bukti_qris", p.FileName(), p.ContentType, bytes.NewReader(p.Data))
		})
	}
	if err != nil {
		return sales.SaleTransaction{}, err
	}

	dto, err := decodeItem[saleDTO]("create_sale", body)
	if err != nil {
		return sales.SaleTransaction{}, err
	}
	tx := dto.toDomain()
	if tx.OutletID == 0 {
		tx.OutletID = sale.OutletID
	}
	if tx.PaymentMethod == "" {
		tx.PaymentMethod = sale.PaymentMethod
	}
	if len(tx.Items) == 0 {
		tx.Items = sale.Items
	}
	if tx.Total.IsZero() {
		tx.Total = sale.Total
	}
	return tx, nil
}

// VoidSale deletes a recorded sale; the backend restores its materials.
func (c *Client) VoidSale(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "void_sale", http.MethodDelete, fmt.Sprintf("/transaksi/%d", id), nil)
	return err
}

// Sales lists the outlet's recorded sales.
func (c *Client) Sales(ctx context.Context) ([]sales.SaleTransaction, error) {
	body, err := c.get(ctx, "list_sales", "/transaksi")
	if err != nil {
		return nil, err
	}
	dtos, err := decodeList[saleDTO]("list_sales", body)
	if err != nil {
		return nil, err
	}

	out := make([]sales.SaleTransaction, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}
