package views

import (
	"context"
	"fmt"

	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/requests"

	"go.uber.org/zap"
)

// RequestSource lists stock requests. forWarehouse selects the warehouse's
// list of every outlet's requests instead of the caller's own.
type RequestSource interface {
	StockRequests(ctx context.Context, forWarehouse bool) ([]requests.StockRequest, error)
}

// RequestQueueView is the pengajuan/proses/riwayat board.
type RequestQueueView struct {
	*View[requests.Buckets]
}

// NewRequestQueueView creates the board.
func NewRequestQueueView(source RequestSource, forWarehouse bool, bus Subscriber, logger *zap.Logger) *RequestQueueView {
	fetch := func(ctx context.Context) (requests.Buckets, error) {
		list, err := source.StockRequests(ctx, forWarehouse)
		if err != nil {
			return requests.Buckets{}, fmt.Errorf("loading stock requests: %w", err)
		}
		return requests.Partition(list), nil
	}

	name := "requests.outlet"
	if forWarehouse {
		name = "requests.warehouse"
	}
	return &RequestQueueView{
		View: New(name, fetch, bus, []eventbus.Topic{eventbus.TopicRequestChanged, eventbus.TopicStockChanged}, logger),
	}
}

// Find looks a request up across all buckets.
func (v *RequestQueueView) Find(id int64) (requests.StockRequest, bool) {
	b, _, _ := v.Current()
	for _, name := range []requests.Bucket{requests.BucketPengajuan, requests.BucketProses, requests.BucketRiwayat} {
		for _, r := range b.Get(name) {
			if r.ID == id {
				return r, true
			}
		}
	}
	return requests.StockRequest{}, false
}
