// Package console exposes the engine to the cashier and warehouse screens
// as a small JSON API.
package console

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/inventory"
	"github.com/esteh-pos/stock-console/internal/proof"
	"github.com/esteh-pos/stock-console/internal/requests"
	"github.com/esteh-pos/stock-console/internal/sales"
	"github.com/esteh-pos/stock-console/internal/views"
	"github.com/esteh-pos/stock-console/internal/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cart is the cashier's checkout controller.
type Cart interface {
	Add(ctx context.Context, p inventory.Product) error
	ChangeQuantity(ctx context.Context, productID int64, delta int) error
	Clear() error
	Lines() []sales.Line
	Total() decimal.Decimal
	InProgress() bool
	Checkout(ctx context.Context, method sales.PaymentMethod, p *proof.File) (*sales.SaleTransaction, error)
	VoidSale(ctx context.Context, id int64) error
}

// Requests runs stock request lifecycle actions.
type Requests interface {
	Create(ctx context.Context, d requests.Draft) (requests.StockRequest, error)
	Edit(ctx context.Context, r requests.StockRequest, d requests.Draft) (requests.StockRequest, error)
	Cancel(ctx context.Context, r requests.StockRequest) (requests.StockRequest, error)
	Approve(ctx context.Context, r requests.StockRequest) (requests.StockRequest, error)
	Reject(ctx context.Context, r requests.StockRequest) (requests.StockRequest, error)
	ConfirmReceipt(ctx context.Context, r requests.StockRequest, p *proof.File) (requests.StockRequest, error)
}

// Warehouse runs the warehouse staff's actions.
type Warehouse interface {
	RecordIncoming(ctx context.Context, g warehouse.IncomingGoods) (warehouse.IncomingGoods, error)
	UpdateIncoming(ctx context.Context, id int64, g warehouse.IncomingGoods) (warehouse.IncomingGoods, error)
	DeleteIncoming(ctx context.Context, id int64) error
	Dispatch(ctx context.Context, r requests.StockRequest, qty decimal.Decimal) (requests.StockRequest, error)
}

// Catalog is the outlet's product grid.
type Catalog interface {
	Current() (views.AvailabilityState, time.Time, error)
	Product(id int64) (inventory.Product, inventory.Availability, bool)
}

// StockBoard is a classified stock list.
type StockBoard interface {
	Current() (views.StockState, time.Time, error)
}

// RequestBoard is a bucketed request list.
type RequestBoard interface {
	Current() (requests.Buckets, time.Time, error)
	Find(id int64) (requests.StockRequest, bool)
}

// SalesBoard is the outlet's sales history, newest first.
type SalesBoard interface {
	Current() ([]sales.SaleTransaction, time.Time, error)
}

// Deps groups everything the handlers read from or act on.
type Deps struct {
	Cart      Cart
	Requests  Requests
	Warehouse Warehouse

	Catalog           Catalog
	OutletStock       StockBoard
	WarehouseStock    StockBoard
	OutletRequests    RequestBoard
	WarehouseRequests RequestBoard
	SalesHistory      SalesBoard
}

// Handler holds the HTTP handlers.
type Handler struct {
	deps   Deps
	logger *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	return &Handler{deps: deps, logger: logger.Named("console")}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Availability returns the product grid with per-product sellability.
func (h *Handler) Availability(c *gin.Context) {
	state, at, err := h.deps.Catalog.Current()
	if errors.Is(err, views.ErrNotLoaded) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":     state.Products,
		"availability": state.Availability,
		"loaded_at":    at,
		"stale":        err != nil,
	})
}

// Stock returns one location's classified stock. ?location=warehouse
// selects the warehouse; the outlet is the default.
func (h *Handler) Stock(c *gin.Context) {
	board := h.deps.OutletStock
	if c.Query("location") == string(inventory.LocationWarehouse) {
		board = h.deps.WarehouseStock
	}
	state, at, err := board.Current()
	if errors.Is(err, views.ErrNotLoaded) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": state, "loaded_at": at, "stale": err != nil})
}

// RequestBoard returns the pengajuan/proses/riwayat buckets. ?scope=warehouse
// selects every outlet's requests.
func (h *Handler) RequestBoard(c *gin.Context) {
	board := h.deps.OutletRequests
	if c.Query("scope") == "warehouse" {
		board = h.deps.WarehouseRequests
	}
	b, at, err := board.Current()
	if errors.Is(err, views.ErrNotLoaded) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pengajuan": b.Pengajuan,
		"proses":    b.Proses,
		"riwayat":   b.Riwayat,
		"loaded_at": at,
		"stale":     err != nil,
	})
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

// AddToCart puts one unit of a product in the cart.
func (h *Handler) AddToCart(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, _, ok := h.deps.Catalog.Product(req.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err := h.deps.Cart.Add(c.Request.Context(), product); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.cartBody())
}

type changeQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ChangeQuantity moves a cart line up or down; reaching zero removes it.
func (h *Handler) ChangeQuantity(c *gin.Context) {
	productID, ok := idParam(c, "productID")
	if !ok {
		return
	}
	var req changeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.deps.Cart.ChangeQuantity(c.Request.Context(), productID, req.Delta); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartBody())
}

// GetCart returns the cart lines and total.
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartBody())
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.deps.Cart.Clear(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartBody())
}

// Checkout submits the cart. The payment method comes from a JSON body or,
// when a QRIS proof is attached, from the multipart form.
func (h *Handler) Checkout(c *gin.Context) {
	var (
		method string
		p      *proof.File
	)
	if isMultipart(c) {
		method = c.PostForm("payment_method")
		var err error
		if p, err = formProof(c, "proof"); err != nil {
			h.fail(c, err)
			return
		}
	} else {
		var req struct {
			PaymentMethod string `json:"payment_method" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		method = req.PaymentMethod
	}

	sale, err := h.deps.Cart.Checkout(c.Request.Context(), sales.PaymentMethod(method), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sale": sale})
}

// VoidSale cancels a recorded sale.
func (h *Handler) VoidSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Cart.VoidSale(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// SalesHistory lists recorded sales, voided ones included.
func (h *Handler) SalesHistory(c *gin.Context) {
	list, at, err := h.deps.SalesHistory.Current()
	if errors.Is(err, views.ErrNotLoaded) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": list, "loaded_at": at, "stale": err != nil})
}

// CreateRequest submits a new stock request for the outlet.
func (h *Handler) CreateRequest(c *gin.Context) {
	var d requests.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.deps.Requests.Create(c.Request.Context(), d)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": created})
}

// EditRequest changes a pending request.
func (h *Handler) EditRequest(c *gin.Context) {
	r, ok := h.findRequest(c, h.deps.OutletRequests)
	if !ok {
		return
	}
	var d requests.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.deps.Requests.Edit(c.Request.Context(), r, d)
	h.respondRequest(c, updated, err)
}

// CancelRequest withdraws a pending request.
func (h *Handler) CancelRequest(c *gin.Context) {
	r, ok := h.findRequest(c, h.deps.OutletRequests)
	if !ok {
		return
	}
	updated, err := h.deps.Requests.Cancel(c.Request.Context(), r)
	h.respondRequest(c, updated, err)
}

// ApproveRequest is the warehouse accepting a pending request.
func (h *Handler) ApproveRequest(c *gin.Context) {
	r, ok := h.findRequest(c, h.deps.WarehouseRequests)
	if !ok {
		return
	}
	updated, err := h.deps.Requests.Approve(c.Request.Context(), r)
	h.respondRequest(c, updated, err)
}

// RejectRequest is the warehouse declining a pending request.
func (h *Handler) RejectRequest(c *gin.Context) {
	r, ok := h.findRequest(c, h.deps.WarehouseRequests)
	if !ok {
		return
	}
	updated, err := h.deps.Requests.Reject(c.Request.Context(), r)
	h.respondRequest(c, updated, err)
}

// ReceiveRequest confirms that the shipment for an approved request
// arrived. A photo may be attached as multipart field "proof".
func (h *Handler) ReceiveRequest(c *gin.Context) {
	r, ok := h.findRequest(c, h.deps.OutletRequests)
	if !ok {
		return
	}
	var p *proof.File
	if isMultipart(c) {
		var err error
		if p, err = formProof(c, "proof"); err != nil {
			h.fail(c, err)
			return
		}
	}
	updated, err := h.deps.Requests.ConfirmReceipt(c.Request.Context(), r, p)
	h.respondRequest(c, updated, err)
}

type dispatchRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// DispatchRequest records the shipment for an approved request. An empty
// body ships the requested quantity.
func (h *Handler) DispatchRequest(c *gin.Context) {
	r, ok := h.findRequest(c, h.deps.WarehouseRequests)
	if !ok {
		return
	}
	var req dispatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	linked, err := h.deps.Warehouse.Dispatch(c.Request.Context(), r, req.Quantity)
	h.respondRequest(c, linked, err)
}

// RecordIncoming books a supplier delivery into the warehouse.
func (h *Handler) RecordIncoming(c *gin.Context) {
	var g warehouse.IncomingGoods
	if err := c.ShouldBindJSON(&g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recorded, err := h.deps.Warehouse.RecordIncoming(c.Request.Context(), g)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"incoming": recorded})
}

// UpdateIncoming corrects a booked supplier delivery.
func (h *Handler) UpdateIncoming(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var g warehouse.IncomingGoods
	if err := c.ShouldBindJSON(&g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.deps.Warehouse.UpdateIncoming(c.Request.Context(), id, g)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incoming": updated})
}

// DeleteIncoming removes a booked supplier delivery.
func (h *Handler) DeleteIncoming(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Warehouse.DeleteIncoming(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

func (h *Handler) cartBody() gin.H {
	return gin.H{
		"lines":       h.deps.Cart.Lines(),
		"total":       h.deps.Cart.Total(),
		"in_progress": h.deps.Cart.InProgress(),
	}
}

func (h *Handler) findRequest(c *gin.Context, board RequestBoard) (requests.StockRequest, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return requests.StockRequest{}, false
	}
	r, found := board.Find(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "stock request not found"})
		return requests.StockRequest{}, false
	}
	return r, true
}

func (h *Handler) respondRequest(c *gin.Context, r requests.StockRequest, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": r})
}

// fail renders err with the status its kind maps to.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if errors.Is(err, views.ErrNotLoaded) {
		status = http.StatusServiceUnavailable
	}
	if sales.IsUnavailable(err) {
		status = http.StatusConflict
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("❌ request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Info("ℹ️ request refused", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formProof reads an optional image from the form. Absent means nil.
func formProof(c *gin.Context, field string) (*proof.File, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validationf("reading %s: %v", field, err)
	}
	if header.Size > proof.MaxSize {
		return nil, apperr.Validationf("proof image is %d bytes, limit is %d", header.Size, proof.MaxSize)
	}

	f, err := header.Open()
	if err != nil {
		return nil, apperr.Validationf("opening %s: %v", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.Validationf("reading %s: %v", field, err)
	}
	return &proof.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
