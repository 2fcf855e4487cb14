// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"serial-monitor/internal/model"
)

// EventBus fans session events out to subscribers. It implements
// service.EventSink: Publish never blocks the caller.
type EventBus struct {
	subscribers []*subscription
	events      chan model.Event
	closed      bool
	mutex       sync.RWMutex
	logger      *zap.Logger
}

type subscription struct {
	types map[model.EventType]bool
	ch    chan model.Event
}

func (s *subscription) wants(eventType model.EventType) bool {
	return len(s.types) == 0 || s.types[eventType]
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan model.Event, 1000),
		logger: logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}

	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	for _, sub := range eb.subscribers {
		close(sub.ch)
	}
	eb.subscribers = nil
}

// Stop stops accepting events; subscriber channels close once drained
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.events)
}

// Publish publishes an event
func (eb *EventBus) Publish(event model.Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}

// Subscribe returns a channel receiving events of the given types, or
// every event when none are given
func (eb *EventBus) Subscribe(types ...model.EventType) <-chan model.Event {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	sub := &subscription{
		types: make(map[model.EventType]bool, len(types)),
		ch:    make(chan model.Event, 256),
	}
	for _, t := range types {
		sub.types[t] = true
	}

	if eb.closed {
		close(sub.ch)
		return sub.ch
	}

	eb.subscribers = append(eb.subscribers, sub)
	return sub.ch
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event model.Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, sub := range eb.subscribers {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
