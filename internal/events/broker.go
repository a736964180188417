// Package events fans out delivery and network events to live subscribers.
package events

import (
	"sync"
)

// Topics.
const (
	TopicDeliveries = "deliveries"
	TopicNetwork    = "network"
)

// Event types.
const (
	DeliveryScheduled = "delivery.scheduled"
	DeliveryFailed    = "delivery.failed"
	DeliverySkipped   = "delivery.skipped"
	CongestionAdapted = "congestion.adapted"
	NetworkChanged    = "network.changed"
)

type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Broker delivers published events to every subscriber of a topic. Slow
// subscribers drop events rather than block publishers.
type Broker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(topic string, evt Event)
}

// MemoryBroker is an in-process Broker.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *MemoryBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *MemoryBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[topic]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}

func (b *MemoryBroker) Publish(topic string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}

// Subscribers counts live subscriptions on topic.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
