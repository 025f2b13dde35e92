package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyQuantity_Cup22oz(t *testing.T) {
	threshold := dec("50")

	assert.Equal(t, LevelHabis, ClassifyQuantity(dec("0"), threshold))
	assert.Equal(t, LevelKritis, ClassifyQuantity(dec("20"), threshold))
	assert.Equal(t, LevelAman, ClassifyQuantity(dec("80"), threshold))
}

func TestClassifyQuantity_Boundaries(t *testing.T) {
	threshold := dec("10")

	tests := []struct {
		qty  string
		want StockLevel
	}{
		{"0", LevelHabis},
		{"0.000", LevelHabis},
		{"0.01", LevelKritis},
		{"9.99", LevelKritis},
		{"10", LevelAman},
		{"10.5", LevelAman},
	}
	for _, tt := range tests {
		t.Run(tt.qty, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyQuantity(dec(tt.qty), threshold))
		})
	}
}

func TestClassifyQuantity_ZeroThreshold(t *testing.T) {
	assert.Equal(t, LevelHabis, ClassifyQuantity(dec("0"), dec("0")))
	assert.Equal(t, LevelAman, ClassifyQuantity(dec("1"), dec("0")))
}

func TestClassify_UsesThresholdOfLocationKind(t *testing.T) {
	cup := Material{ID: matCup, Name: "Cup 22oz", LowStockThresholdOutlet: dec("50"), LowStockThresholdWarehouse: dec("500")}

	outletRow := StockRow{MaterialID: matCup, LocationKind: LocationOutlet, Quantity: dec("80")}
	warehouseRow := StockRow{MaterialID: matCup, LocationKind: LocationWarehouse, Quantity: dec("80")}

	assert.Equal(t, LevelAman, Classify(outletRow, cup))
	assert.Equal(t, LevelKritis, Classify(warehouseRow, cup))
}

func TestClassifySnapshot_OrdersBySeverityThenName(t *testing.T) {
	// Arrange
	snap, err := NewSnapshot(1, LocationOutlet, []StockRow{
		{MaterialID: matTea, Quantity: dec("500")},
		{MaterialID: matSugar, Quantity: dec("20")},
		{MaterialID: matCup, Quantity: dec("0")},
		{MaterialID: 4, Quantity: dec("3"), Material: &Material{ID: 4, Name: "Boba", LowStockThresholdOutlet: dec("5")}},
	}, time.Now())
	require.NoError(t, err)
	catalog := map[int64]Material{
		matTea:   {ID: matTea, Name: "Bubuk Teh", LowStockThresholdOutlet: dec("100")},
		matSugar: {ID: matSugar, Name: "Gula Cair", LowStockThresholdOutlet: dec("50")},
		matCup:   {ID: matCup, Name: "Cup 22oz", LowStockThresholdOutlet: dec("50")},
	}

	// Act
	got := ClassifySnapshot(snap, catalog)

	// Assert
	require.Len(t, got, 4)
	assert.Equal(t, "Cup 22oz", got[0].Material.Name)
	assert.Equal(t, LevelHabis, got[0].Level)
	assert.Equal(t, "Boba", got[1].Material.Name)
	assert.Equal(t, LevelKritis, got[1].Level)
	assert.Equal(t, "Gula Cair", got[2].Material.Name)
	assert.Equal(t, LevelKritis, got[2].Level)
	assert.Equal(t, LevelAman, got[3].Level)

	counts := CountByLevel(got)
	assert.Equal(t, 1, counts[LevelHabis])
	assert.Equal(t, 2, counts[LevelKritis])
	assert.Equal(t, 1, counts[LevelAman])
}
