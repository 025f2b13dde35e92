package views

import (
	"context"

	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/inventory"

	"go.uber.org/zap"
)

// StockState is a classified stock list.
type StockState struct {
	Kind       inventory.LocationKind       `json:"kind"`
	LocationID int64                        `json:"location_id"`
	Statuses   []inventory.StockStatus      `json:"statuses"`
	Counts     map[inventory.StockLevel]int `json:"counts"`
}

// NewStockView lists one location's stock with Habis/Kritis/Aman levels.
// Both topics invalidate it: receipts and dispatches move stock too.
func NewStockView(
	source inventory.SnapshotSource,
	kind inventory.LocationKind,
	locationID int64,
	bus Subscriber,
	logger *zap.Logger,
) *View[StockState] {
	loader := inventory.NewLoader(source, logger)

	fetch := func(ctx context.Context) (StockState, error) {
		snap, err := loader.Load(ctx, kind, locationID)
		if err != nil {
			return StockState{}, err
		}
		catalog, err := loader.Catalog(ctx)
		if err != nil {
			return StockState{}, err
		}
		statuses := inventory.ClassifySnapshot(snap, catalog)
		return StockState{
			Kind:       kind,
			LocationID: snap.LocationID(),
			Statuses:   statuses,
			Counts:     inventory.CountByLevel(statuses),
		}, nil
	}

	name := "stock." + string(kind)
	return New(name, fetch, bus, []eventbus.Topic{eventbus.TopicStockChanged, eventbus.TopicRequestChanged}, logger)
}
