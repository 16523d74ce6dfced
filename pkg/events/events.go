// Package events implements the client's event bus: a per-instance,
// synchronous publish/subscribe registry with named topics.
package events

import "sync"

type Topic string

const (
	TopicInitialized Topic = "initialized"
	TopicReady       Topic = "ready"
	TopicUpdate      Topic = "update"
	TopicError       Topic = "error"
	TopicImpression  Topic = "impression"
)

// Handler receives the payload published on a topic. Handlers run
// synchronously on the publishing goroutine and must not block.
type Handler func(payload interface{})

// Bus fans a published payload out to every subscription on its topic.
// Each client owns its own Bus; there is no ambient global emitter.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]Handler
}

func NewBus() *Bus {
	return &Bus{subs: map[Topic][]Handler{}}
}

// Subscribe registers a handler. Subscriptions cannot be removed; the bus
// lives exactly as long as its client.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], handler)
	b.mu.Unlock()
}

// Emit delivers payload to every handler subscribed to topic, in
// subscription order.
func (b *Bus) Emit(topic Topic, payload interface{}) {
	b.mu.RLock()
	handlers := b.subs[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
