package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/inventory"
	"github.com/esteh-pos/stock-console/internal/proof"
	"github.com/esteh-pos/stock-console/internal/requests"
	"github.com/esteh-pos/stock-console/internal/sales"
	"github.com/esteh-pos/stock-console/internal/warehouse"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setupClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/", Token: "secret", Timeout: 5 * time.Second}, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_SendsTokenAndRequestID(t *testing.T) {
	// Arrange
	var auth, requestID string
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, `[]`)
	})

	// Act
	_, err := client.Products(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.NotEmpty(t, requestID)
}

func TestClient_ProductsAcceptsBothListShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":10,"nama":"Es Teh","harga":"8000","komposisi":[{"bahan_id":1,"quantity":"100"},{"bahan":{"id":2},"jumlah":50}]}]`},
		{"data envelope", `{"data":[{"id":10,"nama":"Es Teh","harga":8000,"komposisi":[{"bahan_id":1,"quantity":100},{"bahan_id":2,"quantity":"50"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/produk", r.URL.Path)
				writeJSON(w, http.StatusOK, tt.body)
			})

			products, err := client.Products(context.Background())

			require.NoError(t, err)
			require.Len(t, products, 1)
			p := products[0]
			assert.Equal(t, "Es Teh", p.Name)
			assert.True(t, dec("8000").Equal(p.Price))
			require.Len(t, p.Recipe, 2)
			assert.Equal(t, int64(2), p.Recipe[1].MaterialID)
			assert.True(t, dec("50").Equal(p.Recipe[1].QuantityPerUnit))
		})
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json message", http.StatusUnprocessableEntity, `{"message":"Stok bahan tidak mencukupi"}`, "Stok bahan tidak mencukupi"},
		{"json error field", http.StatusBadRequest, `{"error":"bahan_id wajib diisi"}`, "bahan_id wajib diisi"},
		{"raw text", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"empty body", http.StatusInternalServerError, ``, "Error 500: Internal Server Error"},
		{"html page", http.StatusNotFound, `<html><body>404</body></html>`, "Error 404: Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.VoidSale(context.Background(), 5)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrRemoteCall)
			var remoteErr *apperr.RemoteError
			require.True(t, errors.As(err, &remoteErr))
			assert.Equal(t, tt.status, remoteErr.StatusCode)
			assert.Equal(t, tt.message, apperr.Message(err))
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := New(Options{BaseURL: url, Timeout: time.Second}, zap.NewNop())

	_, err := client.WarehouseStock(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRemoteCall)
	var remoteErr *apperr.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Zero(t, remoteErr.StatusCode)
	assert.NotEmpty(t, apperr.Message(err))
}

func TestClient_MaterialsFallsBackToWarehousePath(t *testing.T) {
	var paths []string
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/bahan-gudang" {
			writeJSON(w, http.StatusNotFound, `{"message":"Not Found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":[{"id":1,"nama":"Bubuk Teh","satuan":"gram","stok_minimum":"500","stok_minimum_outlet":"200"}]}`)
	})

	materials, err := client.Materials(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"/bahan-gudang", "/gudang/bahan"}, paths)
	require.Len(t, materials, 1)
	assert.True(t, dec("500").Equal(materials[0].LowStockThresholdWarehouse))
	assert.True(t, dec("200").Equal(materials[0].LowStockThresholdOutlet))
}

func TestClient_OutletStockDropsOtherOutlets(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stok/outlet", r.URL.Path)
		writeJSON(w, http.StatusOK, `[
			{"id":31,"bahan_id":1,"outlet_id":7,"stok":"80"},
			{"id":32,"bahan":{"id":2,"nama":"Gula","satuan":"gram"},"outlet_id":7,"stok":200},
			{"id":33,"bahan_id":1,"outlet_id":8,"stok":"999"}
		]`)
	})

	rows, err := client.OutletStock(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].MaterialID)
	assert.Equal(t, int64(2), rows[1].MaterialID)
	require.NotNil(t, rows[1].Material)
	assert.Equal(t, "Gula", rows[1].Material.Name)
	assert.Equal(t, inventory.LocationOutlet, rows[1].LocationKind)
}

func TestClient_StockRequestsSkipsUnknownStatus(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gudang/permintaan-stok", r.URL.Path)
		writeJSON(w, http.StatusOK, `[
			{"id":1,"outlet_id":7,"bahan_id":1,"jumlah":"500","status":"Disetujui","created_at":"2025-11-26 09:00:00","barang_keluar":{"id":88}},
			{"id":2,"outlet_id":7,"bahan_id":1,"jumlah":"100","status":"diarsipkan","created_at":"2025-11-26T10:00:00Z"}
		]`)
	})

	list, err := client.StockRequests(context.Background(), true)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, requests.StatusApproved, list[0].Status)
	require.NotNil(t, list[0].LinkedShipmentID)
	assert.Equal(t, int64(88), *list[0].LinkedShipmentID)
	assert.Equal(t, 2025, list[0].CreatedAt.Year())
}

func TestClient_UpdateRequestStatusPath(t *testing.T) {
	var method, path string
	var body statusBody
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, `{"message":"ok"}`)
	})

	err := client.UpdateRequestStatus(context.Background(), 12, requests.StatusRejected, true)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/gudang/permintaan-stok/12", path)
	assert.Equal(t, "rejected", body.Status)
}

func TestClient_CreateRequestFallsBackToDraft(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"message":"Permintaan stok berhasil dibuat"}`)
	})

	r, err := client.CreateRequest(context.Background(), requests.Draft{MaterialID: 3, Quantity: dec("25")})

	require.NoError(t, err)
	assert.Equal(t, requests.StatusPending, r.Status)
	assert.Equal(t, int64(3), r.MaterialID)
	assert.True(t, dec("25").Equal(r.QuantityRequested))
}

func TestClient_ReceiveShipmentUploadsProof(t *testing.T) {
	var fileName, fileBody string
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gudang/barang-keluar/88/terima", r.URL.Path)
		file, header, err := r.FormFile("bukti_foto")
		if assert.NoError(t, err) {
			defer file.Close()
			data, _ := io.ReadAll(file)
			fileName, fileBody = header.Filename, string(data)
		}
		writeJSON(w, http.StatusOK, `{"message":"Barang diterima"}`)
	})

	err := client.ReceiveShipment(context.Background(), 88, &proof.File{Name: "/tmp/foto.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")})

	require.NoError(t, err)
	assert.Equal(t, "foto.jpg", fileName)
	assert.Equal(t, "jpeg-bytes", fileBody)
}

func TestClient_CreateSaleEncodesItemsAsString(t *testing.T) {
	var fields map[string]string
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaksi", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&fields)
		writeJSON(w, http.StatusCreated, `{"data":{"id":501,"total_harga":"16000","metode_bayar":"tunai","items":"[{\"produk_id\":10,\"quantity\":2}]"}}`)
	})
	sale := sales.NewSale{
		OutletID:      7,
		Items:         []sales.SaleItem{{ProductID: 10, Quantity: 2, UnitPrice: dec("8000")}},
		PaymentMethod: sales.PaymentCash,
		Total:         dec("16000"),
	}

	tx, err := client.CreateSale(context.Background(), sale)

	require.NoError(t, err)
	assert.Equal(t, int64(501), tx.ID)
	assert.Equal(t, int64(7), tx.OutletID)
	assert.True(t, dec("16000").Equal(tx.Total))
	require.Len(t, tx.Items, 1)
	assert.Equal(t, 2, tx.Items[0].Quantity)

	assert.Equal(t, "tunai", fields["metode_bayar"])
	assert.Equal(t, "16000", fields["total_harga"])
	var items []saleLineBody
	require.NoError(t, json.Unmarshal([]byte(fields["items"]), &items))
	assert.Equal(t, []saleLineBody{{ProductID: 10, Quantity: 2}}, items)
}

func TestClient_SalesFlagsVoidedRows(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaksi", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"data":[
			{"id":501,"outlet_id":7,"total_harga":"16000","metode_bayar":"TUNAI","created_at":"2025-11-26 09:00:00","items":"[{\"produk_id\":10,\"quantity\":2}]","deleted_at":null},
			{"id":502,"outlet_id":7,"total_harga":"8000","metode_bayar":"qris","created_at":"2025-11-26 09:05:00","items":[{"produk_id":10,"quantity":1}],"deleted_at":"2025-11-26 09:10:00"}
		]}`)
	})

	list, err := client.Sales(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sales.PaymentCash, list[0].PaymentMethod)
	assert.False(t, list[0].Voided)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, 2, list[0].Items[0].Quantity)
	assert.True(t, list[1].Voided)
	assert.True(t, dec("8000").Equal(list[1].Total))
	assert.Equal(t, time.Date(2025, 11, 26, 9, 5, 0, 0, time.UTC), list[1].CreatedAt)
}

func TestClient_CreateSaleWithQRISProofIsMultipart(t *testing.T) {
	var method, gotFile string
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		method = r.FormValue("metode_bayar")
		_, header, err := r.FormFile("bukti_qris")
		if assert.NoError(t, err) {
			gotFile = header.Filename
		}
		writeJSON(w, http.StatusCreated, `{"id":502}`)
	})

	_, err := client.CreateSale(context.Background(), sales.NewSale{
		OutletID:      7,
		Items:         []sales.SaleItem{{ProductID: 10, Quantity: 1}},
		PaymentMethod: sales.PaymentQRIS,
		Total:         dec("8000"),
		Proof:         &proof.File{ContentType: "image/png", Data: []byte("png")},
	})

	require.NoError(t, err)
	assert.Equal(t, "qris", method)
	assert.Equal(t, "bukti.jpg", gotFile)
}

func TestClient_CreateShipmentEchoesRequest(t *testing.T) {
	var body shipmentBody
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gudang/barang-keluar", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, `{"data":{"id":88}}`)
	})

	s, err := client.CreateShipment(context.Background(), warehouse.Shipment{RequestID: 12, OutletID: 7, MaterialID: 1, Quantity: dec("500")})

	require.NoError(t, err)
	assert.Equal(t, int64(88), s.ID)
	assert.Equal(t, int64(12), s.RequestID)
	assert.Equal(t, int64(12), body.PermintaanID)
	assert.True(t, dec("500").Equal(body.Jumlah))
}

func TestClient_LoginStoresToken(t *testing.T) {
	var meAuth string
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			writeJSON(w, http.StatusOK, `{"access_token":"fresh","token_type":"Bearer","user":{"id":3,"username":"kasir1","role":"kasir","outlet_id":7}}`)
		case "/me":
			meAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, `{"id":3,"username":"kasir1","role":"kasir","outlet":{"id":7}}`)
		}
	})

	session, err := client.Login(context.Background(), "kasir1", "rahasia")
	require.NoError(t, err)
	me, err := client.Me(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "fresh", client.Token())
	assert.Equal(t, int64(7), session.User.OutletID)
	assert.Equal(t, "Bearer fresh", meAuth)
	assert.Equal(t, int64(7), me.OutletID)
}

func TestClient_LoginRequiresCredentials(t *testing.T) {
	client := New(Options{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())

	_, err := client.Login(context.Background(), "", "")

	assert.ErrorIs(t, err, apperr.ErrValidation)
}
