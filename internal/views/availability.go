package views

import (
	"context"
	"fmt"

	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/inventory"

	"go.uber.org/zap"
)

// ProductSource lists the menu with recipes.
type ProductSource interface {
	Products(ctx context.Context) ([]inventory.Product, error)
}

// AvailabilityState is the cashier's product grid.
type AvailabilityState struct {
	Snapshot     inventory.Snapshot       `json:"-"`
	Products     []inventory.Product      `json:"products"`
	Availability []inventory.Availability `json:"availability"`
}

// AvailabilityView recomputes product sellability for one outlet.
type AvailabilityView struct {
	*View[AvailabilityState]
}

// NewAvailabilityView creates the view. It refreshes on stock.changed.
func NewAvailabilityView(
	stock inventory.SnapshotSource,
	products ProductSource,
	outletID int64,
	bus Subscriber,
	logger *zap.Logger,
) *AvailabilityView {
	loader := inventory.NewLoader(stock, logger)

	fetch := func(ctx context.Context) (AvailabilityState, error) {
		snap, err := loader.LoadOutlet(ctx, outletID)
		if err != nil {
			return AvailabilityState{}, err
		}
		menu, err := products.Products(ctx)
		if err != nil {
			return AvailabilityState{}, fmt.Errorf("loading products: %w", err)
		}
		return AvailabilityState{
			Snapshot:     snap,
			Products:     menu,
			Availability: inventory.ResolveAll(menu, snap),
		}, nil
	}

	return &AvailabilityView{
		View: New("availability", fetch, bus, []eventbus.Topic{eventbus.TopicStockChanged}, logger),
	}
}

// OutletSnapshot returns the snapshot behind the latest grid.
func (v *AvailabilityView) OutletSnapshot(context.Context) (inventory.Snapshot, error) {
	state, _, err := v.Current()
	if !v.Loaded() {
		return inventory.Snapshot{}, err
	}
	return state.Snapshot, nil
}

// Product looks a product up in the latest grid.
func (v *AvailabilityView) Product(id int64) (inventory.Product, inventory.Availability, bool) {
	state, _, _ := v.Current()
	for i, p := range state.Products {
		if p.ID == id {
			return p, state.Availability[i], true
		}
	}
	return inventory.Product{}, inventory.Availability{}, false
}
