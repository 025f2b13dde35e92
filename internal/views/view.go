// Package views keeps derived state (availability grid, stock list, request
// queues) close to the remote source of truth. A view fetches on mount,
// subscribes to the topics that can invalidate it, and on every event
// re-fetches and recomputes from scratch. Nothing is patched in place.
package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrNotLoaded is returned by readers before the first successful fetch.
var ErrNotLoaded = errors.New("view has not loaded yet")

// Subscriber is the subscribe half of the event bus.
type Subscriber interface {
	Subscribe(topic eventbus.Topic, handler eventbus.Handler) (unsubscribe func())
}

// Fetcher re-reads the remote source and recomputes a view's whole state.
type Fetcher[T any] func(ctx context.Context) (T, error)

// View holds the latest state produced by a Fetcher.
type View[T any] struct {
	name   string
	fetch  Fetcher[T]
	bus    Subscriber
	topics []eventbus.Topic
	logger *zap.Logger

	mu        sync.Mutex
	state     T
	loaded    bool
	updatedAt time.Time
	lastErr   error
	started   uint64
	applied   uint64
	failed    uint64
	mounted   bool
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	unsubs    []func()

	inflight  sync.WaitGroup
	refreshes metric.Int64Counter
}

// New creates an unmounted view.
func New[T any](name string, fetch Fetcher[T], bus Subscriber, topics []eventbus.Topic, logger *zap.Logger) *View[T] {
	return &View[T]{
		name:      name,
		fetch:     fetch,
		bus:       bus,
		topics:    topics,
		logger:    logger.Named("views").With(zap.String("view", name)),
		refreshes: observability.Counter("views.refreshes", "View refreshes by outcome"),
	}
}

// Mount subscribes the view and runs the initial fetch. The view stays
// mounted when that fetch fails, so the next event can still fill it.
func (v *View[T]) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return nil
	}
	v.mounted = true
	v.closed = false
	v.ctx, v.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, topic := range v.topics {
		v.unsubs = append(v.unsubs, v.bus.Subscribe(topic, v.onEvent))
	}
	v.mu.Unlock()

	v.logger.Info("👀 view mounted", zap.Int("topics", len(v.topics)))
	return v.Refresh(ctx)
}

// Unmount unsubscribes, cancels in-flight fetches and waits for them.
// A fetch finishing after Unmount never touches the state.
func (v *View[T]) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.closed = true
	for _, unsubscribe := range v.unsubs {
		unsubscribe()
	}
	v.unsubs = nil
	v.cancel()
	v.mu.Unlock()

	v.inflight.Wait()
	v.logger.Info("👋 view unmounted")
}

// onEvent never blocks the bus: the refresh runs in its own goroutine.
func (v *View[T]) onEvent(_ context.Context, ev eventbus.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return nil
	}

	v.inflight.Add(1)
	ctx := v.ctx
	go func() {
		defer v.inflight.Done()
		if err := v.Refresh(ctx); err != nil {
			v.logger.Warn("❌ refresh after event failed", zap.String("topic", string(ev.Topic)), zap.Error(err))
		}
	}()
	return nil
}

// Refresh re-fetches and replaces the state wholesale. When two refreshes
// overlap, the result of the one started last wins.
func (v *View[T]) Refresh(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, "views", "refresh", attribute.String("view", v.name))
	defer func() { observability.EndSpan(span, err) }()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.started++
	gen := v.started
	v.mu.Unlock()

	next, err := v.fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case v.closed:
		v.count(ctx, "discarded")
		return nil
	case gen < v.applied:
		v.count(ctx, "stale")
		return nil
	}

	if err != nil {
		if gen > v.applied && gen > v.failed {
			v.lastErr = err
			v.failed = gen
		}
		v.count(ctx, "failed")
		return err
	}

	// A success older than the newest failure still refreshes the data but
	// must not hide that failure.
	v.state = next
	v.loaded = true
	if gen > v.failed {
		v.lastErr = nil
	}
	v.applied = gen
	v.updatedAt = time.Now()
	v.count(ctx, "applied")
	return nil
}

func (v *View[T]) count(ctx context.Context, outcome string) {
	v.refreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("view", v.name),
		attribute.String("outcome", outcome),
	))
}

// Current returns the latest state, when it was computed and the error of
// the most recent failed refresh, if any came after it.
func (v *View[T]) Current() (T, time.Time, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.loaded && v.lastErr == nil {
		return v.state, v.updatedAt, ErrNotLoaded
	}
	return v.state, v.updatedAt, v.lastErr
}

// Loaded reports whether at least one fetch has succeeded.
func (v *View[T]) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Mounted reports whether the view is subscribed.
func (v *View[T]) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Wait blocks until every event-driven refresh started so far has finished.
func (v *View[T]) Wait() {
	v.inflight.Wait()
}

// Name is the view's label in logs and metrics.
func (v *View[T]) Name() string { return v.name }
