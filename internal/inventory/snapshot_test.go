package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSnapshotSource struct {
	mock.Mock
}

func (m *MockSnapshotSource) OutletStock(ctx context.Context, outletID int64) ([]StockRow, error) {
	args := m.Called(ctx, outletID)
	rows, _ := args.Get(0).([]StockRow)
	return rows, args.Error(1)
}

func (m *MockSnapshotSource) WarehouseStock(ctx context.Context) ([]StockRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]StockRow)
	return rows, args.Error(1)
}

func (m *MockSnapshotSource) Materials(ctx context.Context) ([]Material, error) {
	args := m.Called(ctx)
	materials, _ := args.Get(0).([]Material)
	return materials, args.Error(1)
}

func TestNewSnapshot_SumsDuplicateRows(t *testing.T) {
	rows := []StockRow{
		{MaterialID: matTea, Quantity: dec("40")},
		{MaterialID: matTea, Quantity: dec("60.5")},
	}

	snap, err := NewSnapshot(1, LocationOutlet, rows, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	assert.True(t, dec("100.5").Equal(snap.Quantity(matTea)))
	assert.True(t, snap.Quantity(matCup).IsZero())
}

func TestNewSnapshot_Rejects(t *testing.T) {
	tests := []struct {
		name string
		row  StockRow
	}{
		{"other location kind", StockRow{MaterialID: matTea, Quantity: dec("1"), LocationKind: LocationWarehouse}},
		{"other outlet", StockRow{MaterialID: matTea, Quantity: dec("1"), LocationID: 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(1, LocationOutlet, []StockRow{tt.row}, time.Now())

			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestNewSnapshot_OversoldRowCountsAsEmpty(t *testing.T) {
	// Arrange
	rows := []StockRow{
		{MaterialID: matTea, Quantity: dec("500")},
		{MaterialID: matSugar, Quantity: dec("-5")},
		{MaterialID: matCup, Quantity: dec("-2")},
		{MaterialID: matCup, Quantity: dec("10")},
	}

	// Act
	snap, err := NewSnapshot(7, LocationOutlet, rows, time.Now())

	// Assert
	require.NoError(t, err)
	assert.True(t, snap.Quantity(matSugar).IsZero())
	assert.True(t, dec("8").Equal(snap.Quantity(matCup)))
	assert.Equal(t, []int64{matSugar}, snap.Oversold())
}

func TestLoader_OversoldMaterialOnlyBlocksItsProducts(t *testing.T) {
	// Arrange
	source := new(MockSnapshotSource)
	source.On("OutletStock", mock.Anything, int64(7)).Return([]StockRow{
		{MaterialID: matTea, Quantity: dec("500")},
		{MaterialID: matSugar, Quantity: dec("-5")},
		{MaterialID: matCup, Quantity: dec("40")},
	}, nil)
	loader := NewLoader(source, zap.NewNop())
	tawar := Product{ID: 11, Name: "Teh Tawar", Price: dec("5000"), Recipe: []RecipeLine{
		{MaterialID: matTea, QuantityPerUnit: dec("100")},
		{MaterialID: matCup, QuantityPerUnit: dec("1")},
	}}
	catalog := map[int64]Material{
		matTea:   {ID: matTea, Name: "Bubuk Teh", LowStockThresholdOutlet: dec("100")},
		matSugar: {ID: matSugar, Name: "Gula", LowStockThresholdOutlet: dec("100")},
		matCup:   {ID: matCup, Name: "Cup", LowStockThresholdOutlet: dec("10")},
	}

	// Act
	snap, err := loader.LoadOutlet(context.Background(), 7)

	// Assert
	require.NoError(t, err)
	sweet := Resolve(esTeh(), snap)
	plain := Resolve(tawar, snap)
	assert.False(t, sweet.Sellable)
	require.NotNil(t, sweet.LimitingMaterialID)
	assert.Equal(t, matSugar, *sweet.LimitingMaterialID)
	assert.Equal(t, int64(0), sweet.MaxUnits)
	assert.True(t, plain.Sellable)

	statuses := ClassifySnapshot(snap, catalog)
	require.NotEmpty(t, statuses)
	assert.Equal(t, matSugar, statuses[0].Row.MaterialID)
	assert.Equal(t, LevelHabis, statuses[0].Level)
}

func TestSnapshot_RowsAreSortedAndStamped(t *testing.T) {
	snap, err := NewSnapshot(4, LocationOutlet, []StockRow{
		{MaterialID: matCup, Quantity: dec("5")},
		{MaterialID: matTea, Quantity: dec("1")},
	}, time.Now())
	require.NoError(t, err)

	rows := snap.Rows()

	require.Len(t, rows, 2)
	assert.Equal(t, matTea, rows[0].MaterialID)
	assert.Equal(t, int64(4), rows[0].LocationID)
	assert.Equal(t, LocationOutlet, rows[1].LocationKind)
	assert.False(t, snap.IsZero())
	assert.True(t, Snapshot{}.IsZero())
}

func TestLoader_LoadOutlet(t *testing.T) {
	// Arrange
	source := new(MockSnapshotSource)
	ctx := context.Background()
	source.On("OutletStock", mock.Anything, int64(3)).Return([]StockRow{
		{MaterialID: matTea, Quantity: dec("80")},
	}, nil)
	loader := NewLoader(source, zap.NewNop())

	// Act
	snap, err := loader.Load(ctx, LocationOutlet, 3)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.LocationID())
	assert.Equal(t, LocationOutlet, snap.Kind())
	assert.True(t, dec("80").Equal(snap.Quantity(matTea)))
	source.AssertExpectations(t)
}

func TestLoader_PropagatesRemoteFailure(t *testing.T) {
	source := new(MockSnapshotSource)
	remoteErr := apperr.NewStatusError("getStokGudang", 500, "")
	source.On("WarehouseStock", mock.Anything).Return(nil, remoteErr)
	loader := NewLoader(source, zap.NewNop())

	_, err := loader.LoadWarehouse(context.Background())

	assert.ErrorIs(t, err, apperr.ErrRemoteCall)
}

func TestLoader_UnknownKind(t *testing.T) {
	loader := NewLoader(new(MockSnapshotSource), zap.NewNop())

	_, err := loader.Load(context.Background(), LocationKind("kiosk"), 1)

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoader_Catalog(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Materials", mock.Anything).Return([]Material{{ID: matTea, Name: "Bubuk Teh"}}, nil).Once()
	source.On("Materials", mock.Anything).Return(nil, errors.New("offline")).Once()
	loader := NewLoader(source, zap.NewNop())

	catalog, err := loader.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bubuk Teh", catalog[matTea].Name)

	_, err = loader.Catalog(context.Background())
	assert.Error(t, err)
}
