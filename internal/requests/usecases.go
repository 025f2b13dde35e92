package requests

import (
	"context"
	"fmt"

	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/observability"
	"github.com/esteh-pos/stock-console/internal/proof"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Gateway is the slice of the remote API that mutates stock requests.
type Gateway interface {
	CreateRequest(ctx context.Context, d Draft) (StockRequest, error)
	UpdateRequest(ctx context.Context, id int64, d Draft) (StockRequest, error)
	UpdateRequestStatus(ctx context.Context, id int64, status Status, forWarehouse bool) error
	DeleteRequest(ctx context.Context, id int64) error
	ReceiveShipment(ctx context.Context, shipmentID int64, p *proof.File) error
}

// Publisher announces that derived data may be stale.
type Publisher interface {
	Publish(ctx context.Context, topic eventbus.Topic, payload any)
}

// Changed is the payload published on request.changed.
type Changed struct {
	RequestID int64  `json:"request_id"`
	Action    Action `json:"action"`
	Status    Status `json:"status"`
}

// Tracker runs the request lifecycle use cases. Every action is checked
// locally first; an illegal action never reaches the remote API.
type Tracker struct {
	gateway     Gateway
	bus         Publisher
	logger      *zap.Logger
	transitions metric.Int64Counter
}

// NewTracker creates a Tracker.
func NewTracker(gateway Gateway, bus Publisher, logger *zap.Logger) *Tracker {
	return &Tracker{
		gateway:     gateway,
		bus:         bus,
		logger:      logger.Named("requests"),
		transitions: observability.Counter("requests.transitions", "Stock request actions accepted by the remote API"),
	}
}

// Create submits a new request; it always starts pending.
func (t *Tracker) Create(ctx context.Context, d Draft) (created StockRequest, err error) {
	ctx, span := observability.StartSpan(ctx, "requests", "create", attribute.Int64("material.id", d.MaterialID))
	defer func() { observability.EndSpan(span, err) }()

	if err := d.Validate(); err != nil {
		return StockRequest{}, err
	}

	created, err = t.gateway.CreateRequest(ctx, d)
	if err != nil {
		t.logger.Warn("❌ request creation failed", zap.Int64("material_id", d.MaterialID), zap.Error(err))
		return StockRequest{}, fmt.Errorf("creating stock request: %w", err)
	}
	created.Status = StatusPending
	if created.MaterialID == 0 {
		created.MaterialID = d.MaterialID
		created.QuantityRequested = d.Quantity
	}

	t.logger.Info("📝 stock request created",
		zap.Int64("request_id", created.ID),
		zap.Int64("material_id", d.MaterialID),
		zap.String("quantity", d.Quantity.String()))
	t.announce(ctx, created, ActionCreate)
	return created, nil
}

// Edit changes material or quantity of a pending request.
func (t *Tracker) Edit(ctx context.Context, r StockRequest, d Draft) (updated StockRequest, err error) {
	ctx, span := observability.StartSpan(ctx, "requests", "edit", attribute.Int64("request.id", r.ID))
	defer func() { observability.EndSpan(span, err) }()

	next, err := Transition(r, ActionEdit)
	if err != nil {
		return r, err
	}
	if err := d.Validate(); err != nil {
		return r, err
	}

	updated, err = t.gateway.UpdateRequest(ctx, r.ID, d)
	if err != nil {
		t.logger.Warn("❌ request edit failed", zap.Int64("request_id", r.ID), zap.Error(err))
		return r, fmt.Errorf("editing stock request %d: %w", r.ID, err)
	}
	if updated.ID == 0 {
		updated = r
		updated.MaterialID = d.MaterialID
		updated.QuantityRequested = d.Quantity
	}
	updated.Status = next

	t.logger.Info("✏️ stock request edited", zap.Int64("request_id", r.ID))
	t.announce(ctx, updated, ActionEdit)
	return updated, nil
}

// Cancel withdraws a pending request.
func (t *Tracker) Cancel(ctx context.Context, r StockRequest) (StockRequest, error) {
	return t.apply(ctx, r, ActionCancel, func(ctx context.Context) error {
		return t.gateway.DeleteRequest(ctx, r.ID)
	})
}

// Approve is the warehouse accepting a pending request.
func (t *Tracker) Approve(ctx context.Context, r StockRequest) (StockRequest, error) {
	return t.apply(ctx, r, ActionApprove, func(ctx context.Context) error {
		return t.gateway.UpdateRequestStatus(ctx, r.ID, StatusApproved, true)
	})
}

// Reject is the warehouse turning a pending request down.
func (t *Tracker) Reject(ctx context.Context, r StockRequest) (StockRequest, error) {
	return t.apply(ctx, r, ActionReject, func(ctx context.Context) error {
		return t.gateway.UpdateRequestStatus(ctx, r.ID, StatusRejected, true)
	})
}

// ConfirmReceipt is the outlet acknowledging the goods of an approved
// request. Receipt raises outlet stock, so stock.changed follows request.changed.
func (t *Tracker) ConfirmReceipt(ctx context.Context, r StockRequest, p *proof.File) (StockRequest, error) {
	if p != nil {
		if err := p.Validate(); err != nil {
			return r, err
		}
	}

	updated, err := t.apply(ctx, r, ActionConfirmReceipt, func(ctx context.Context) error {
		return t.gateway.ReceiveShipment(ctx, *r.LinkedShipmentID, p)
	})
	if err != nil {
		return r, err
	}

	t.bus.Publish(ctx, eventbus.TopicStockChanged, Changed{RequestID: r.ID, Action: ActionConfirmReceipt, Status: updated.Status})
	return updated, nil
}

// apply checks a against the state machine, then runs call. The
// request comes back unchanged on any failure.
func (t *Tracker) apply(ctx context.Context, r StockRequest, a Action, call func(context.Context) error) (updated StockRequest, err error) {
	ctx, span := observability.StartSpan(ctx, "requests", string(a),
		attribute.Int64("request.id", r.ID),
		attribute.String("request.status", string(r.Status)))
	defer func() { observability.EndSpan(span, err) }()

	next, err := Transition(r, a)
	if err != nil {
		t.logger.Info("⛔ request action refused",
			zap.Int64("request_id", r.ID),
			zap.String("action", string(a)),
			zap.String("status", string(r.Status)))
		return r, err
	}

	if err := call(ctx); err != nil {
		t.logger.Warn("❌ request action failed",
			zap.Int64("request_id", r.ID),
			zap.String("action", string(a)),
			zap.Error(err))
		return r, fmt.Errorf("%s stock request %d: %w", a, r.ID, err)
	}

	updated = r
	updated.Status = next
	t.logger.Info("✅ request moved",
		zap.Int64("request_id", r.ID),
		zap.String("from", string(r.Status)),
		zap.String("to", string(next)))
	t.announce(ctx, updated, a)
	return updated, nil
}

func (t *Tracker) announce(ctx context.Context, r StockRequest, a Action) {
	t.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(a))))
	t.bus.Publish(ctx, eventbus.TopicRequestChanged, Changed{RequestID: r.ID, Action: a, Status: r.Status})
}
