// Package eventbus provides the in-process EventBus implementation the
// stores publish their state changes on.
package eventbus

import (
	"log/slog"
	"sync"
	"time"

	"go.uber.org/fx"

	"bazaar/internal/domain/service"
)

// subscriberBuffer bounds how many undelivered events a subscriber may lag
// behind before new events are dropped for it.
const subscriberBuffer = 16

type memoryBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan service.Event
}

// Params holds dependencies for the bus, injected by Fx.
type Params struct {
	fx.In

	Logger *slog.Logger
}

// New constructs the in-process event bus.
func New(params Params) service.EventBus {
	return &memoryBus{
		logger: params.Logger,
		subs:   make(map[string]map[int]chan service.Event),
	}
}

// Publish delivers to current subscribers without blocking: a subscriber
// that has fallen subscriberBuffer events behind misses this one. Payloads
// carry full state, so a missed event is recovered by the next delivery.
func (b *memoryBus) Publish(topic string, payload any) {
	event := service.Event{
		Topic:   topic,
		At:      time.Now(),
		Payload: payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
			b.logger.Debug("Dropping event for slow subscriber",
				slog.String("topic", topic), slog.Int("subscriber", id))
		}
	}
}

// Subscribe registers for a topic. The cancel function is idempotent and
// closes the channel.
func (b *memoryBus) Subscribe(topic string) (<-chan service.Event, func()) {
	ch := make(chan service.Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan service.Event)
	}
	b.subs[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}
