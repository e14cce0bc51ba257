package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DefaultBufferSize is the event buffer size of a subscription when none
// is given
const DefaultBufferSize = 256

// EventBus fans published events out to its subscriptions. Publishing
// never blocks: a subscription whose buffer is full misses the event.
type EventBus struct {
	sync.RWMutex
	nextID        uint64
	subscriptions map[uint64]*Subscription
	closed        bool
}

// New creates a new EventBus
func New() *EventBus {
	return &EventBus{
		subscriptions: make(map[uint64]*Subscription),
	}
}

// Subscription is a buffered feed of events from an EventBus
type Subscription struct {
	id         uint64
	bus        *EventBus
	events     chan *externalapi.Event
	eventTypes map[externalapi.EventType]struct{}
	dropped    uint64
}

// Subscribe registers a new subscription with the given buffer size. When
// eventTypes are given, only events of these types are delivered.
func (bus *EventBus) Subscribe(bufferSize int, eventTypes ...externalapi.EventType) *Subscription {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	bus.Lock()
	defer bus.Unlock()

	subscription := &Subscription{
		id:     bus.nextID,
		bus:    bus,
		events: make(chan *externalapi.Event, bufferSize),
	}
	bus.nextID++
	if len(eventTypes) > 0 {
		subscription.eventTypes = make(map[externalapi.EventType]struct{}, len(eventTypes))
		for _, eventType := range eventTypes {
			subscription.eventTypes[eventType] = struct{}{}
		}
	}

	if bus.closed {
		close(subscription.events)
		return subscription
	}
	bus.subscriptions[subscription.id] = subscription
	log.Debugf("Added subscription %d", subscription.id)
	return subscription
}

// Publish delivers event to every subscription that accepts it
func (bus *EventBus) Publish(event *externalapi.Event) {
	bus.RLock()
	defer bus.RUnlock()

	for _, subscription := range bus.subscriptions {
		if !subscription.accepts(event.Type) {
			continue
		}
		select {
		case subscription.events <- event:
		default:
			atomic.AddUint64(&subscription.dropped, 1)
			log.Tracef("Subscription %d is full. Dropped %s", subscription.id, event)
		}
	}
}

// SubscriptionCount returns the number of open subscriptions
func (bus *EventBus) SubscriptionCount() int {
	bus.RLock()
	defer bus.RUnlock()

	return len(bus.subscriptions)
}

// Close closes all subscriptions. Events published after Close are dropped.
func (bus *EventBus) Close() {
	bus.Lock()
	defer bus.Unlock()

	if bus.closed {
		return
	}
	bus.closed = true
	for id, subscription := range bus.subscriptions {
		close(subscription.events)
		delete(bus.subscriptions, id)
	}
}

func (bus *EventBus) unsubscribe(subscription *Subscription) {
	bus.Lock()
	defer bus.Unlock()

	if _, ok := bus.subscriptions[subscription.id]; !ok {
		return
	}
	delete(bus.subscriptions, subscription.id)
	close(subscription.events)
	log.Debugf("Removed subscription %d", subscription.id)
}

func (subscription *Subscription) accepts(eventType externalapi.EventType) bool {
	if subscription.eventTypes == nil {
		return true
	}
	_, ok := subscription.eventTypes[eventType]
	return ok
}

// Events returns the channel events are delivered on. It is closed when
// the subscription or its bus is closed.
func (subscription *Subscription) Events() <-chan *externalapi.Event {
	return subscription.events
}

// Dropped returns the number of events this subscription missed because
// its buffer was full
func (subscription *Subscription) Dropped() uint64 {
	return atomic.LoadUint64(&subscription.dropped)
}

// Close removes the subscription from its bus
func (subscription *Subscription) Close() {
	subscription.bus.unsubscribe(subscription)
}
