package remote

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/esteh-pos/stock-console/internal/inventory"
	"github.com/esteh-pos/stock-console/internal/requests"
	"github.com/esteh-pos/stock-console/internal/sales"
	"github.com/esteh-pos/stock-console/internal/warehouse"

	"github.com/shopspring/decimal"
)

// wireTime accepts the timestamp layouts the backend emits.
type wireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var lastErr error
	for _, layout := range wireTimeLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

type refDTO struct {
	ID int64 `json:"id"`
}

type materialDTO struct {
	ID                int64               `json:"id"`
	Name              string              `json:"nama"`
	Unit              string              `json:"satuan"`
	MinStock          decimal.NullDecimal `json:"stok_minimum"`
	MinStockWarehouse decimal.NullDecimal `json:"stok_minimum_gudang"`
	MinStockOutlet    decimal.NullDecimal `json:"stok_minimum_outlet"`
}

func (m materialDTO) toDomain() inventory.Material {
	fallback := decimal.Zero
	if m.MinStock.Valid {
		fallback = m.MinStock.Decimal
	}
	out := inventory.Material{
		ID:                         m.ID,
		Name:                       m.Name,
		Unit:                       m.Unit,
		LowStockThresholdWarehouse: fallback,
		LowStockThresholdOutlet:    fallback,
	}
	if m.MinStockWarehouse.Valid {
		out.LowStockThresholdWarehouse = m.MinStockWarehouse.Decimal
	}
	if m.MinStockOutlet.Valid {
		out.LowStockThresholdOutlet = m.MinStockOutlet.Decimal
	}
	return out
}

// stockRowDTO covers both stock endpoints. Some answers embed the material,
// some flatten its name and unit into the row and key it by id.
type stockRowDTO struct {
	ID       int64           `json:"id"`
	BahanID  int64           `json:"bahan_id"`
	OutletID int64           `json:"outlet_id"`
	Stock    decimal.Decimal `json:"stok"`
	Name     string          `json:"nama"`
	Unit     string          `json:"satuan"`
	Material *materialDTO    `json:"bahan"`
}

func (r stockRowDTO) toDomain(kind inventory.LocationKind) inventory.StockRow {
	row := inventory.StockRow{
		LocationID:   r.OutletID,
		LocationKind: kind,
		Quantity:     r.Stock,
	}
	switch {
	case r.BahanID != 0:
		row.MaterialID = r.BahanID
	case r.Material != nil && r.Material.ID != 0:
		row.MaterialID = r.Material.ID
	default:
		row.MaterialID = r.ID
	}

	if r.Material != nil {
		m := r.Material.toDomain()
		m.ID = row.MaterialID
		row.Material = &m
	} else if r.Name != "" {
		row.Material = &inventory.Material{ID: row.MaterialID, Name: r.Name, Unit: r.Unit}
	}
	if kind == inventory.LocationWarehouse {
		row.LocationID = 0
	}
	return row
}

type compositionDTO struct {
	BahanID  int64               `json:"bahan_id"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Jumlah   decimal.NullDecimal `json:"jumlah"`
	Material *refDTO             `json:"bahan"`
}

type productDTO struct {
	ID          int64            `json:"id"`
	Name        string           `json:"nama"`
	Price       decimal.Decimal  `json:"harga"`
	Composition []compositionDTO `json:"komposisi"`
}

func (p productDTO) toDomain() inventory.Product {
	out := inventory.Product{ID: p.ID, Name: p.Name, Price: p.Price}
	for _, c := range p.Composition {
		line := inventory.RecipeLine{MaterialID: c.BahanID}
		if line.MaterialID == 0 && c.Material != nil {
			line.MaterialID = c.Material.ID
		}
		switch {
		case c.Quantity.Valid:
			line.QuantityPerUnit = c.Quantity.Decimal
		case c.Jumlah.Valid:
			line.QuantityPerUnit = c.Jumlah.Decimal
		}
		out.Recipe = append(out.Recipe, line)
	}
	return out
}

type requestDTO struct {
	ID         int64           `json:"id"`
	OutletID   int64           `json:"outlet_id"`
	BahanID    int64           `json:"bahan_id"`
	BahanName  string          `json:"bahan_nama"`
	Material   *materialDTO    `json:"bahan"`
	Quantity   decimal.Decimal `json:"jumlah"`
	Status     string          `json:"status"`
	CreatedAt  wireTime        `json:"created_at"`
	UpdatedAt  wireTime        `json:"updated_at"`
	ShipmentID *int64          `json:"barang_keluar_id"`
	Shipment   *refDTO         `json:"barang_keluar"`
	KirimanID  *int64          `json:"kiriman_id"`
}

func (r requestDTO) toDomain() (requests.StockRequest, error) {
	status, err := requests.ParseStatus(r.Status)
	if err != nil {
		return requests.StockRequest{}, err
	}
	out := requests.StockRequest{
		ID:                r.ID,
		OutletID:          r.OutletID,
		MaterialID:        r.BahanID,
		MaterialName:      r.BahanName,
		QuantityRequested: r.Quantity,
		Status:            status,
		CreatedAt:         r.CreatedAt.Time,
		UpdatedAt:         r.UpdatedAt.Time,
	}
	if r.Material != nil {
		if out.MaterialID == 0 {
			out.MaterialID = r.Material.ID
		}
		if out.MaterialName == "" {
			out.MaterialName = r.Material.Name
		}
	}

	switch {
	case r.ShipmentID != nil:
		out.LinkedShipmentID = r.ShipmentID
	case r.Shipment != nil && r.Shipment.ID != 0:
		id := r.Shipment.ID
		out.LinkedShipmentID = &id
	case r.KirimanID != nil:
		out.LinkedShipmentID = r.KirimanID
	}
	return out, nil
}

type requestBody struct {
	BahanID int64           `json:"bahan_id"`
	Jumlah  decimal.Decimal `json:"jumlah"`
}

type statusBody struct {
	Status string `json:"status"`
}

type saleItemDTO struct {
	ProductID int64               `json:"produk_id"`
	Quantity  int                 `json:"quantity"`
	Price     decimal.NullDecimal `json:"harga"`
	UnitPrice decimal.NullDecimal `json:"harga_satuan"`
}

type saleDTO struct {
	ID            int64               `json:"id"`
	OutletID      int64               `json:"outlet_id"`
	Total         decimal.NullDecimal `json:"total"`
	TotalPrice    decimal.NullDecimal `json:"total_harga"`
	PaymentMethod string              `json:"metode_bayar"`
	Status        string              `json:"status"`
	Items         json.RawMessage     `json:"items"`
	LineItems     []saleItemDTO       `json:"item_transaksi"`
	CreatedAt     wireTime            `json:"created_at"`
	Date          wireTime            `json:"tanggal"`
	DeletedAt     *wireTime           `json:"deleted_at"`
}

func (s saleDTO) toDomain() sales.SaleTransaction {
	out := sales.SaleTransaction{
		ID:            s.ID,
		OutletID:      s.OutletID,
		PaymentMethod: sales.PaymentMethod(strings.ToLower(s.PaymentMethod)),
		CreatedAt:     s.CreatedAt.Time,
		Voided:        s.DeletedAt != nil && !s.DeletedAt.IsZero(),
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = s.Date.Time
	}
	switch strings.ToLower(s.Status) {
	case "dibatalkan", "batal", "void", "voided", "cancelled":
		out.Voided = true
	}

	switch {
	case s.TotalPrice.Valid:
		out.Total = s.TotalPrice.Decimal
	case s.Total.Valid:
		out.Total = s.Total.Decimal
	}

	items := s.LineItems
	if len(items) == 0 {
		items = saleItems(s.Items)
	}
	for _, it := range items {
		price := it.UnitPrice
		if !price.Valid {
			price = it.Price
		}
		out.Items = append(out.Items, sales.SaleItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: price.Decimal})
	}
	return out
}

// saleItems decodes "items", which the backend echoes either as an array
// or as the JSON string it was sent. Anything unreadable yields no items.
func saleItems(raw json.RawMessage) []saleItemDTO {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		raw = []byte(inner)
	}
	var items []saleItemDTO
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

type saleLineBody struct {
	ProductID int64 `json:"produk_id"`
	Quantity  int   `json:"quantity"`
}

const saleDateLayout = "2006-01-02 15:04:05"

// saleFields builds the createTransaksi form; items is a JSON string, not an array.
func saleFields(sale sales.NewSale, at time.Time) (map[string]string, error) {
	lines := make([]saleLineBody, 0, len(sale.Items))
	for _, it := range sale.Items {
		lines = append(lines, saleLineBody{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	items, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"tanggal":      at.Format(saleDateLayout),
		"metode_bayar": string(sale.PaymentMethod),
		"total_harga":  sale.Total.String(),
		"items":        string(items),
	}, nil
}

type incomingDTO struct {
	ID       int64           `json:"id"`
	BahanID  int64           `json:"bahan_id"`
	Jumlah   decimal.Decimal `json:"jumlah"`
	Supplier string          `json:"supplier"`
	Tanggal  wireTime        `json:"tanggal"`
}

func (d incomingDTO) toDomain() warehouse.IncomingGoods {
	return warehouse.IncomingGoods{
		ID:         d.ID,
		MaterialID: d.BahanID,
		Quantity:   d.Jumlah,
		Supplier:   d.Supplier,
		ReceivedAt: d.Tanggal.Time,
	}
}

type incomingBody struct {
	BahanID  int64           `json:"bahan_id"`
	Jumlah   decimal.Decimal `json:"jumlah"`
	Supplier string          `json:"supplier"`
	Tanggal  string          `json:"tanggal,omitempty"`
}

func newIncomingBody(g warehouse.IncomingGoods) incomingBody {
	body := incomingBody{BahanID: g.MaterialID, Jumlah: g.Quantity, Supplier: g.Supplier}
	if !g.ReceivedAt.IsZero() {
		body.Tanggal = g.ReceivedAt.Format("2006-01-02")
	}
	return body
}

type shipmentDTO struct {
	ID           int64           `json:"id"`
	PermintaanID int64           `json:"permintaan_id"`
	OutletID     int64           `json:"outlet_id"`
	BahanID      int64           `json:"bahan_id"`
	Jumlah       decimal.Decimal `json:"jumlah"`
}

func (d shipmentDTO) toDomain() warehouse.Shipment {
	return warehouse.Shipment{
		ID:         d.ID,
		RequestID:  d.PermintaanID,
		OutletID:   d.OutletID,
		MaterialID: d.BahanID,
		Quantity:   d.Jumlah,
	}
}

type shipmentBody struct {
	PermintaanID int64           `json:"permintaan_id"`
	OutletID     int64           `json:"outlet_id"`
	BahanID      int64           `json:"bahan_id"`
	Jumlah       decimal.Decimal `json:"jumlah"`
}

type userDTO struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	OutletID *int64  `json:"outlet_id"`
	Outlet   *refDTO `json:"outlet"`
}

type loginDTO struct {
	Message     string  `json:"message"`
	Token       string  `json:"token"`
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	User        userDTO `json:"user"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
