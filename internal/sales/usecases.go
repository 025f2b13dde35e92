package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/inventory"
	"github.com/esteh-pos/stock-console/internal/observability"
	"github.com/esteh-pos/stock-console/internal/proof"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrUnavailable is returned by Add and ChangeQuantity when the stock cannot
// cover the extra units.
var ErrUnavailable = fmt.Errorf("%w: product unavailable", apperr.ErrValidation)

// Ledger is the slice of the remote API that records sales.
type Ledger interface {
	CreateSale(ctx context.Context, sale NewSale) (SaleTransaction, error)
	VoidSale(ctx context.Context, id int64) error
}

// AvailabilityReader hands out the active outlet's latest snapshot.
type AvailabilityReader interface {
	OutletSnapshot(ctx context.Context) (inventory.Snapshot, error)
}

// Publisher announces that derived data may be stale.
type Publisher interface {
	Publish(ctx context.Context, topic eventbus.Topic, payload any)
}

// StockChanged is the payload published after a sale or a void.
type StockChanged struct {
	OutletID int64  `json:"outlet_id"`
	SaleID   int64  `json:"sale_id"`
	Reason   string `json:"reason"`
}

// Controller owns the cart of one cashier session.
type Controller struct {
	ledger       Ledger
	availability AvailabilityReader
	bus          Publisher
	logger       *zap.Logger
	outletID     int64

	mu         sync.Mutex
	cart       *Cart
	inProgress bool
	voided     map[int64]struct{}

	checkouts metric.Int64Counter
	voids     metric.Int64Counter
}

// NewController creates a Controller for the given outlet.
func NewController(
	ledger Ledger,
	availability AvailabilityReader,
	bus Publisher,
	outletID int64,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		ledger:       ledger,
		availability: availability,
		bus:          bus,
		logger:       logger.Named("sales"),
		outletID:     outletID,
		cart:         NewCart(),
		voided:       make(map[int64]struct{}),
		checkouts:    observability.Counter("sales.checkouts", "Checkout attempts by outcome"),
		voids:        observability.Counter("sales.voids", "Sales voided through this console"),
	}
}

// Add puts one unit of p in the cart after checking it against the active
// outlet snapshot. An unavailable product leaves the cart unchanged.
func (c *Controller) Add(ctx context.Context, p inventory.Product) (err error) {
	ctx, span := observability.StartSpan(ctx, "sales", "add", attribute.Int64("product.id", p.ID))
	defer func() { observability.EndSpan(span, err) }()

	if err := p.Validate(); err != nil {
		return err
	}
	if c.InProgress() {
		return apperr.ErrCheckoutInProgress
	}

	snap, err := c.availability.OutletSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading outlet stock: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The snapshot read may have overlapped a checkout start.
	if c.inProgress {
		return apperr.ErrCheckoutInProgress
	}

	if a := inventory.Resolve(p, snap); !a.Sellable {
		c.logger.Info("⛔ product unavailable",
			zap.Int64("product_id", p.ID),
			zap.Int64p("limiting_material_id", a.LimitingMaterialID))
		return fmt.Errorf("%w: %s, material %d is short", ErrUnavailable, p.Name, *a.LimitingMaterialID)
	}

	if short, ok := c.shortfall(p, 1, snap); ok {
		c.logger.Info("⛔ cart already uses the remaining stock",
			zap.Int64("product_id", p.ID),
			zap.Int64("limiting_material_id", short))
		return fmt.Errorf("%w: %s, material %d is fully taken by the cart", ErrUnavailable, p.Name, short)
	}

	c.cart.add(p)
	return nil
}

// shortfall reports the first material of p's recipe that the snapshot can
// no longer cover once the cart and units more of p are counted.
func (c *Controller) shortfall(p inventory.Product, units int, snap inventory.Snapshot) (int64, bool) {
	used := c.cart.Consumption()
	extra := inventory.Consumption(p, units)
	for _, line := range p.Recipe {
		need := used[line.MaterialID].Add(extra[line.MaterialID])
		if need.GreaterThan(snap.Quantity(line.MaterialID)) {
			return line.MaterialID, true
		}
	}
	return 0, false
}

// ChangeQuantity adds delta to a cart line, removing it when the result is ≤ 0.
// A positive delta passes the same stock gate as Add.
func (c *Controller) ChangeQuantity(ctx context.Context, productID int64, delta int) error {
	if c.InProgress() {
		return apperr.ErrCheckoutInProgress
	}

	var snap inventory.Snapshot
	if delta > 0 {
		var err error
		if snap, err = c.availability.OutletSnapshot(ctx); err != nil {
			return fmt.Errorf("reading outlet stock: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inProgress {
		return apperr.ErrCheckoutInProgress
	}
	line, ok := c.cart.line(productID)
	if !ok {
		return apperr.Validationf("product %d is not in the cart", productID)
	}
	if delta > 0 {
		if short, ok := c.shortfall(line.Product, delta, snap); ok {
			c.logger.Info("⛔ cart would exceed the remaining stock",
				zap.Int64("product_id", productID),
				zap.Int("delta", delta),
				zap.Int64("limiting_material_id", short))
			return fmt.Errorf("%w: %s, material %d cannot cover %d more", ErrUnavailable, line.Product.Name, short, delta)
		}
	}
	c.cart.change(productID, delta)
	return nil
}

// Clear empties the cart.
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inProgress {
		return apperr.ErrCheckoutInProgress
	}
	c.cart.clear()
	return nil
}

// Lines returns the cart lines in display order.
func (c *Controller) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Lines()
}

// Total returns the cart total.
func (c *Controller) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Total()
}

// InProgress reports whether a checkout is waiting on the ledger.
func (c *Controller) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}

// Checkout submits the cart. On success the cart is cleared and
// stock.changed is published once; on failure the cart is left exactly as it was.
func (c *Controller) Checkout(ctx context.Context, method PaymentMethod, p *proof.File) (sale *SaleTransaction, err error) {
	ctx, span := observability.StartSpan(ctx, "sales", "checkout", attribute.String("payment.method", string(method)))
	defer func() { observability.EndSpan(span, err) }()

	submission, err := c.begin(method, p)
	if err != nil {
		return nil, err
	}

	c.logger.Info("🛒 checkout started",
		zap.Int("lines", len(submission.Items)),
		zap.String("total", submission.Total.String()),
		zap.String("method", string(method)))

	recorded, err := c.ledger.CreateSale(ctx, submission)

	c.mu.Lock()
	c.inProgress = false
	if err == nil {
		c.cart.clear()
	}
	c.mu.Unlock()

	if err != nil {
		c.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		c.logger.Warn("❌ checkout failed, cart kept", zap.Error(err))
		return nil, fmt.Errorf("submitting sale: %w", err)
	}

	if recorded.Total.IsZero() {
		recorded.Total = submission.Total
	}
	if len(recorded.Items) == 0 {
		recorded.Items = submission.Items
	}
	if recorded.PaymentMethod == "" {
		recorded.PaymentMethod = method
	}

	c.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "accepted")))
	c.logger.Info("✅ checkout accepted", zap.Int64("sale_id", recorded.ID))
	c.bus.Publish(ctx, eventbus.TopicStockChanged, StockChanged{OutletID: c.outletID, SaleID: recorded.ID, Reason: "sale"})
	return &recorded, nil
}

// begin validates the checkout and raises the in-progress flag.
func (c *Controller) begin(method PaymentMethod, p *proof.File) (NewSale, error) {
	method, err := ParsePaymentMethod(string(method))
	if err != nil {
		return NewSale{}, err
	}
	if method.RequiresProof() {
		if p == nil {
			return NewSale{}, apperr.Validationf("qris payment needs a proof image")
		}
		if err := p.Validate(); err != nil {
			return NewSale{}, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inProgress {
		return NewSale{}, apperr.ErrCheckoutInProgress
	}
	if c.cart.Len() == 0 {
		return NewSale{}, apperr.Validationf("cart is empty")
	}

	c.inProgress = true
	return NewSale{
		OutletID:      c.outletID,
		Items:         c.cart.Items(),
		PaymentMethod: method,
		Total:         c.cart.Total(),
		Proof:         p,
	}, nil
}

// VoidSale cancels a recorded sale. The ledger restocks server-side; this
// side only announces the change. A sale is voided at most once per session.
func (c *Controller) VoidSale(ctx context.Context, id int64) (err error) {
	ctx, span := observability.StartSpan(ctx, "sales", "void", attribute.Int64("sale.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if id <= 0 {
		return apperr.Validationf("sale id must be positive, got %d", id)
	}

	c.mu.Lock()
	if _, done := c.voided[id]; done {
		c.mu.Unlock()
		return fmt.Errorf("%w: sale %d is already voided", apperr.ErrInvalidTransition, id)
	}
	// Reserve the id so a concurrent void cannot reach the ledger twice.
	c.voided[id] = struct{}{}
	c.mu.Unlock()

	if err := c.ledger.VoidSale(ctx, id); err != nil {
		c.mu.Lock()
		delete(c.voided, id)
		c.mu.Unlock()

		c.logger.Warn("❌ void failed", zap.Int64("sale_id", id), zap.Error(err))
		return fmt.Errorf("voiding sale %d: %w", id, err)
	}

	c.voids.Add(ctx, 1)
	c.logger.Info("↩️ sale voided", zap.Int64("sale_id", id))
	c.bus.Publish(ctx, eventbus.TopicStockChanged, StockChanged{OutletID: c.outletID, SaleID: id, Reason: "void"})
	return nil
}

// IsUnavailable reports whether err came from the availability gate.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
