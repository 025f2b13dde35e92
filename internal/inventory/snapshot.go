package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Snapshot is a read-only, point-in-time view of one location's material ledger.
// It is never mutated after construction; a refresh builds a new one.
type Snapshot struct {
	locationID int64
	kind       LocationKind
	takenAt    time.Time
	rows       map[int64]StockRow
	oversold   []int64
}

// NewSnapshot builds a snapshot from the rows returned for one location.
// Rows for the same material are summed. Concurrent sales can drive a
// ledger below zero; such a material is kept at zero and listed by Oversold.
func NewSnapshot(locationID int64, kind LocationKind, rows []StockRow, takenAt time.Time) (Snapshot, error) {
	byMaterial := make(map[int64]StockRow, len(rows))
	for _, row := range rows {
		if row.LocationKind != "" && row.LocationKind != kind {
			return Snapshot{}, apperr.Validationf("row for material %d belongs to a %s, not a %s",
				row.MaterialID, row.LocationKind, kind)
		}
		if row.LocationID != 0 && locationID != 0 && row.LocationID != locationID {
			return Snapshot{}, apperr.Validationf("row for material %d belongs to location %d, not %d",
				row.MaterialID, row.LocationID, locationID)
		}

		row.LocationID = locationID
		row.LocationKind = kind
		if existing, ok := byMaterial[row.MaterialID]; ok {
			row.Quantity = row.Quantity.Add(existing.Quantity)
			if row.Material == nil {
				row.Material = existing.Material
			}
		}
		byMaterial[row.MaterialID] = row
	}

	var oversold []int64
	for id, row := range byMaterial {
		if row.Quantity.IsNegative() {
			row.Quantity = decimal.Zero
			byMaterial[id] = row
			oversold = append(oversold, id)
		}
	}
	sort.Slice(oversold, func(i, j int) bool { return oversold[i] < oversold[j] })

	return Snapshot{
		locationID: locationID,
		kind:       kind,
		takenAt:    takenAt,
		rows:       byMaterial,
		oversold:   oversold,
	}, nil
}

// Oversold lists, by id, the materials the remote ledger reported below zero.
func (s Snapshot) Oversold() []int64 {
	return append([]int64(nil), s.oversold...)
}

func (s Snapshot) LocationID() int64  { return s.locationID }
func (s Snapshot) Kind() LocationKind { return s.kind }
func (s Snapshot) TakenAt() time.Time { return s.takenAt }
func (s Snapshot) IsZero() bool       { return s.rows == nil }
func (s Snapshot) Len() int           { return len(s.rows) }

// Quantity returns the quantity on hand for a material; absent materials count as zero.
func (s Snapshot) Quantity(materialID int64) decimal.Decimal {
	if row, ok := s.rows[materialID]; ok {
		return row.Quantity
	}
	return decimal.Zero
}

// Row returns the stock row for a material.
func (s Snapshot) Row(materialID int64) (StockRow, bool) {
	row, ok := s.rows[materialID]
	return row, ok
}

// Rows returns every row ordered by material id.
func (s Snapshot) Rows() []StockRow {
	out := make([]StockRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })
	return out
}

// SnapshotSource is the slice of the remote collaborator that reads stock.
type SnapshotSource interface {
	OutletStock(ctx context.Context, outletID int64) ([]StockRow, error)
	WarehouseStock(ctx context.Context) ([]StockRow, error)
	Materials(ctx context.Context) ([]Material, error)
}

// Loader fetches location-scoped rows and turns them into snapshots.
type Loader struct {
	source SnapshotSource
	logger *zap.Logger
	now    func() time.Time
}

// NewLoader creates a Loader over source.
func NewLoader(source SnapshotSource, logger *zap.Logger) *Loader {
	return &Loader{
		source: source,
		logger: logger.Named("inventory"),
		now:    time.Now,
	}
}

// LoadOutlet fetches the current stock of one outlet.
func (l *Loader) LoadOutlet(ctx context.Context, outletID int64) (snap Snapshot, err error) {
	ctx, span := observability.StartSpan(ctx, "inventory", "load_outlet", attribute.Int64("outlet.id", outletID))
	defer func() { observability.EndSpan(span, err) }()

	rows, err := l.source.OutletStock(ctx, outletID)
	if err != nil {
		l.logger.Warn("❌ outlet stock fetch failed", zap.Int64("outlet_id", outletID), zap.Error(err))
		return Snapshot{}, fmt.Errorf("loading outlet %d stock: %w", outletID, err)
	}
	return l.build(outletID, LocationOutlet, rows)
}

// LoadWarehouse fetches the current warehouse stock.
func (l *Loader) LoadWarehouse(ctx context.Context) (snap Snapshot, err error) {
	ctx, span := observability.StartSpan(ctx, "inventory", "load_warehouse")
	defer func() { observability.EndSpan(span, err) }()

	rows, err := l.source.WarehouseStock(ctx)
	if err != nil {
		l.logger.Warn("❌ warehouse stock fetch failed", zap.Error(err))
		return Snapshot{}, fmt.Errorf("loading warehouse stock: %w", err)
	}
	return l.build(0, LocationWarehouse, rows)
}

func (l *Loader) build(locationID int64, kind LocationKind, rows []StockRow) (Snapshot, error) {
	snap, err := NewSnapshot(locationID, kind, rows, l.now())
	if err != nil {
		return Snapshot{}, err
	}
	if oversold := snap.Oversold(); len(oversold) > 0 {
		l.logger.Warn("⚠️ remote ledger is below zero, counting it as empty",
			zap.String("kind", string(kind)),
			zap.Int64("location_id", locationID),
			zap.Int64s("material_ids", oversold))
	}
	return snap, nil
}

// Load dispatches on kind.
func (l *Loader) Load(ctx context.Context, kind LocationKind, locationID int64) (Snapshot, error) {
	switch kind {
	case LocationOutlet:
		return l.LoadOutlet(ctx, locationID)
	case LocationWarehouse:
		return l.LoadWarehouse(ctx)
	default:
		return Snapshot{}, apperr.Validationf("unknown location kind %q", kind)
	}
}

// Catalog fetches the material catalog keyed by id.
func (l *Loader) Catalog(ctx context.Context) (map[int64]Material, error) {
	materials, err := l.source.Materials(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading material catalog: %w", err)
	}
	catalog := make(map[int64]Material, len(materials))
	for _, m := range materials {
		catalog[m.ID] = m
	}
	return catalog, nil
}
