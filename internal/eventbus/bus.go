// Package eventbus is the in-process publish/invalidate channel that tells
// independent views their derived data may be stale.
//
// Delivery is synchronous and FIFO per topic: every handler of one publish
// runs to completion before the next event on the same topic is delivered.
// A publish issued from inside a handler is queued behind the current event
// and delivered by the goroutine that is already draining the topic. Nothing
// is persisted; a restart is a full reset.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/esteh-pos/stock-console/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Topic names one class of invalidation.
type Topic string

const (
	// TopicStockChanged fires after any remote call that moved material quantities.
	TopicStockChanged Topic = "stock.changed"
	// TopicRequestChanged fires after any remote call that created or transitioned a stock request.
	TopicRequestChanged Topic = "request.changed"
)

// Topics lists every topic the bus accepts.
var Topics = []Topic{TopicStockChanged, TopicRequestChanged}

// Valid reports whether t is one of the enumerated topics.
func (t Topic) Valid() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// Event is what a handler receives.
type Event struct {
	Topic       Topic
	Payload     any
	PublishedAt time.Time
}

// Handler reacts to an event. Handlers must not block: long work belongs in a goroutine.
type Handler func(ctx context.Context, ev Event) error

type subscription struct {
	id      uuid.UUID
	handler Handler
}

type delivery struct {
	ctx context.Context
	ev  Event
}

type topicQueue struct {
	mu       sync.Mutex
	subs     []subscription
	pending  []delivery
	draining bool
}

// Bus is safe for concurrent use.
type Bus struct {
	topics map[Topic]*topicQueue
	logger *zap.Logger

	publishedCounter metric.Int64Counter
	failureCounter   metric.Int64Counter
}

// New creates a bus serving every topic in Topics.
func New(logger *zap.Logger) *Bus {
	topics := make(map[Topic]*topicQueue, len(Topics))
	for _, t := range Topics {
		topics[t] = &topicQueue{}
	}

	return &Bus{
		topics:           topics,
		logger:           logger.Named("eventbus"),
		publishedCounter: observability.Counter("eventbus.published", "events published on the bus"),
		failureCounter:   observability.Counter("eventbus.handler_failures", "handlers that returned an error or panicked"),
	}
}

// Subscribe registers handler for topic and returns its unsubscribe function.
// Calling unsubscribe more than once is harmless.
func (b *Bus) Subscribe(topic Topic, handler Handler) (unsubscribe func()) {
	q, ok := b.topics[topic]
	if !ok || handler == nil {
		b.logger.Warn("⚠️ subscribe ignored", zap.String("topic", string(topic)), zap.Bool("nil_handler", handler == nil))
		return func() {}
	}

	sub := subscription{id: uuid.New(), handler: handler}

	q.mu.Lock()
	q.subs = append(q.subs, sub)
	q.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			for i, s := range q.subs {
				if s.id == sub.id {
					q.subs = append(q.subs[:i:i], q.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of handlers currently registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	q, ok := b.topics[topic]
	if !ok {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

// Publish delivers payload to every subscriber of topic. It returns once the
// event has been delivered, or immediately if another call is already
// draining the topic, in which case that call delivers it in order.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	q, ok := b.topics[topic]
	if !ok {
		b.logger.Warn("⚠️ publish on unknown topic ignored", zap.String("topic", string(topic)))
		return
	}

	ev := Event{Topic: topic, Payload: payload, PublishedAt: time.Now()}
	b.publishedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", string(topic))))

	q.mu.Lock()
	q.pending = append(q.pending, delivery{ctx: ctx, ev: ev})
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true

	for {
		next := q.pending[0]
		q.pending[0] = delivery{}
		q.pending = q.pending[1:]
		subs := make([]subscription, len(q.subs))
		copy(subs, q.subs)
		q.mu.Unlock()

		for _, s := range subs {
			b.deliver(next.ctx, s, next.ev)
		}

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
	}
}

// deliver runs one handler, isolating its error or panic from the rest.
func (b *Bus) deliver(ctx context.Context, s subscription, ev Event) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		err = s.handler(ctx, ev)
	}()

	if err != nil {
		b.failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", string(ev.Topic))))
		b.logger.Error("❌ event handler failed",
			zap.String("topic", string(ev.Topic)),
			zap.String("subscription", s.id.String()),
			zap.Error(err),
		)
	}
}
