package warehouse

import (
	"context"
	"fmt"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/observability"
	"github.com/esteh-pos/stock-console/internal/requests"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Gateway is the slice of the remote API that records warehouse movements.
type Gateway interface {
	CreateIncoming(ctx context.Context, g IncomingGoods) (IncomingGoods, error)
	UpdateIncoming(ctx context.Context, id int64, g IncomingGoods) (IncomingGoods, error)
	DeleteIncoming(ctx context.Context, id int64) error
	CreateShipment(ctx context.Context, s Shipment) (Shipment, error)
}

// Publisher announces that derived data may be stale.
type Publisher interface {
	Publish(ctx context.Context, topic eventbus.Topic, payload any)
}

// Service runs the warehouse staff's stock-moving actions.
type Service struct {
	gateway Gateway
	bus     Publisher
	logger  *zap.Logger
}

// NewService creates a Service.
func NewService(gateway Gateway, bus Publisher, logger *zap.Logger) *Service {
	return &Service{
		gateway: gateway,
		bus:     bus,
		logger:  logger.Named("warehouse"),
	}
}

// RecordIncoming books goods received from a supplier.
func (s *Service) RecordIncoming(ctx context.Context, g IncomingGoods) (recorded IncomingGoods, err error) {
	ctx, span := observability.StartSpan(ctx, "warehouse", "record_incoming", attribute.Int64("material.id", g.MaterialID))
	defer func() { observability.EndSpan(span, err) }()

	if err := g.Validate(); err != nil {
		return IncomingGoods{}, err
	}

	recorded, err = s.gateway.CreateIncoming(ctx, g)
	if err != nil {
		s.logger.Warn("❌ incoming goods not recorded", zap.Int64("material_id", g.MaterialID), zap.Error(err))
		return IncomingGoods{}, fmt.Errorf("recording incoming goods: %w", err)
	}

	s.logger.Info("📦 incoming goods recorded",
		zap.Int64("id", recorded.ID),
		zap.Int64("material_id", g.MaterialID),
		zap.String("quantity", g.Quantity.String()))
	s.bus.Publish(ctx, eventbus.TopicStockChanged, recorded)
	return recorded, nil
}

// UpdateIncoming corrects a booked delivery.
func (s *Service) UpdateIncoming(ctx context.Context, id int64, g IncomingGoods) (updated IncomingGoods, err error) {
	ctx, span := observability.StartSpan(ctx, "warehouse", "update_incoming", attribute.Int64("incoming.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if id <= 0 {
		return IncomingGoods{}, apperr.Validationf("incoming goods id must be positive, got %d", id)
	}
	if err := g.Validate(); err != nil {
		return IncomingGoods{}, err
	}

	updated, err = s.gateway.UpdateIncoming(ctx, id, g)
	if err != nil {
		s.logger.Warn("❌ incoming goods not updated", zap.Int64("id", id), zap.Error(err))
		return IncomingGoods{}, fmt.Errorf("updating incoming goods %d: %w", id, err)
	}
	if updated.ID == 0 {
		updated = g
		updated.ID = id
	}

	s.logger.Info("✏️ incoming goods updated", zap.Int64("id", id))
	s.bus.Publish(ctx, eventbus.TopicStockChanged, updated)
	return updated, nil
}

// DeleteIncoming removes a booked delivery.
func (s *Service) DeleteIncoming(ctx context.Context, id int64) (err error) {
	ctx, span := observability.StartSpan(ctx, "warehouse", "delete_incoming", attribute.Int64("incoming.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if id <= 0 {
		return apperr.Validationf("incoming goods id must be positive, got %d", id)
	}
	if err := s.gateway.DeleteIncoming(ctx, id); err != nil {
		s.logger.Warn("❌ incoming goods not deleted", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("deleting incoming goods %d: %w", id, err)
	}

	s.logger.Info("🗑️ incoming goods deleted", zap.Int64("id", id))
	s.bus.Publish(ctx, eventbus.TopicStockChanged, IncomingGoods{ID: id})
	return nil
}

// Dispatch sends goods for an approved request. The returned request
// carries the new shipment as its LinkedShipmentID. A zero qty ships the requested amount.
func (s *Service) Dispatch(ctx context.Context, r requests.StockRequest, qty decimal.Decimal) (linked requests.StockRequest, err error) {
	ctx, span := observability.StartSpan(ctx, "warehouse", "dispatch", attribute.Int64("request.id", r.ID))
	defer func() { observability.EndSpan(span, err) }()

	if r.Status != requests.StatusApproved {
		return r, fmt.Errorf("%w: request %d is %s, only approved requests can be dispatched",
			apperr.ErrInvalidTransition, r.ID, r.Status)
	}
	if r.LinkedShipmentID != nil {
		return r, fmt.Errorf("%w: request %d already has shipment %d",
			apperr.ErrInvalidTransition, r.ID, *r.LinkedShipmentID)
	}
	if qty.IsZero() {
		qty = r.QuantityRequested
	}
	if !qty.IsPositive() {
		return r, apperr.Validationf("shipment quantity must be positive, got %s", qty)
	}
	if r.MaterialID <= 0 {
		return r, apperr.Validationf("material id must be positive, got %d", r.MaterialID)
	}

	shipment, err := s.gateway.CreateShipment(ctx, Shipment{
		RequestID:  r.ID,
		OutletID:   r.OutletID,
		MaterialID: r.MaterialID,
		Quantity:   qty,
	})
	if err != nil {
		s.logger.Warn("❌ shipment not created", zap.Int64("request_id", r.ID), zap.Error(err))
		return r, fmt.Errorf("dispatching request %d: %w", r.ID, err)
	}
	if shipment.ID <= 0 {
		return r, fmt.Errorf("%w: shipment for request %d came back without an id", apperr.ErrMissingDependency, r.ID)
	}

	linked = r
	id := shipment.ID
	linked.LinkedShipmentID = &id

	s.logger.Info("🚚 shipment dispatched",
		zap.Int64("request_id", r.ID),
		zap.Int64("shipment_id", id),
		zap.String("quantity", qty.String()))
	s.bus.Publish(ctx, eventbus.TopicStockChanged, shipment)
	s.bus.Publish(ctx, eventbus.TopicRequestChanged, requests.Changed{RequestID: r.ID, Action: requests.ActionDispatch, Status: linked.Status})
	return linked, nil
}
