package inventory

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// StockLevel is the three-step display status of a stock row.
type StockLevel string

const (
	LevelHabis  StockLevel = "Habis"
	LevelKritis StockLevel = "Kritis"
	LevelAman   StockLevel = "Aman"
)

func (l StockLevel) severity() int {
	switch l {
	case LevelHabis:
		return 0
	case LevelKritis:
		return 1
	default:
		return 2
	}
}

// ClassifyQuantity returns Habis when qty is zero, Aman when qty reaches
// threshold and Kritis in between.
func ClassifyQuantity(qty, threshold decimal.Decimal) StockLevel {
	switch {
	case qty.Sign() <= 0:
		return LevelHabis
	case qty.GreaterThanOrEqual(threshold):
		return LevelAman
	default:
		return LevelKritis
	}
}

// Classify uses the material's own threshold for the row's location kind.
func Classify(row StockRow, m Material) StockLevel {
	return ClassifyQuantity(row.Quantity, m.Threshold(row.LocationKind))
}

// StockStatus is one line of a stock list view.
type StockStatus struct {
	Row      StockRow   `json:"row"`
	Material Material   `json:"material"`
	Level    StockLevel `json:"level"`
}

// ClassifySnapshot classifies every row of s. The material comes from catalog,
// then from the row's embedded copy; a row with neither keeps a bare Material
// carrying only its id and a zero threshold. Output is ordered Habis first,
// then Kritis, then Aman, and by material name within a level.
func ClassifySnapshot(s Snapshot, catalog map[int64]Material) []StockStatus {
	rows := s.Rows()
	out := make([]StockStatus, 0, len(rows))
	for _, row := range rows {
		m, ok := catalog[row.MaterialID]
		if !ok {
			if row.Material != nil {
				m = *row.Material
			} else {
				m = Material{ID: row.MaterialID}
			}
		}
		out = append(out, StockStatus{Row: row, Material: m, Level: Classify(row, m)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Level.severity(), out[j].Level.severity()
		if si != sj {
			return si < sj
		}
		return strings.ToLower(out[i].Material.Name) < strings.ToLower(out[j].Material.Name)
	})
	return out
}

// CountByLevel tallies a classified list, e.g. for the dashboard's critical-stock counter.
func CountByLevel(statuses []StockStatus) map[StockLevel]int {
	counts := map[StockLevel]int{LevelHabis: 0, LevelKritis: 0, LevelAman: 0}
	for _, st := range statuses {
		counts[st.Level]++
	}
	return counts
}
