package views

import (
	"context"
	"fmt"
	"sort"

	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/sales"

	"go.uber.org/zap"
)

// SalesSource lists the outlet's recorded sales.
type SalesSource interface {
	Sales(ctx context.Context) ([]sales.SaleTransaction, error)
}

// NewSalesHistoryView lists recorded sales, newest first. Voided sales stay
// in the list flagged as such. Checkouts and voids both publish
// stock.changed, which is the only topic that can change the ledger.
func NewSalesHistoryView(source SalesSource, bus Subscriber, logger *zap.Logger) *View[[]sales.SaleTransaction] {
	fetch := func(ctx context.Context) ([]sales.SaleTransaction, error) {
		list, err := source.Sales(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading sales history: %w", err)
		}
		sort.SliceStable(list, func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.After(list[j].CreatedAt)
			}
			return list[i].ID > list[j].ID
		})
		return list, nil
	}
	return New("sales.history", fetch, bus, []eventbus.Topic{eventbus.TopicStockChanged}, logger)
}
