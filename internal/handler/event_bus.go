// internal/handler/event_bus.go
package handler

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"label-service/internal/model"
)

// Topic groups event types for subscription
const (
	TopicPrinter   = "printer"
	TopicJob       = "job"
	TopicTransfer  = "transfer"
	TopicDiscovery = "discovery"
	TopicAll       = "*"
)

// EventBus fans model events out to topic subscribers. Publish never
// blocks; a full bus drops the event.
type EventBus struct {
	subscribers map[string][]chan model.Event
	events      chan model.Event
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan model.Event),
		events:      make(chan model.Event, 1000),
		logger:      logger.With(zap.String("component", "event-bus")),
	}
}

// Start pumps events to subscribers until Close
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}
}

// Close stops the pump. Publish must not be called after Close.
func (eb *EventBus) Close() {
	close(eb.events)
}

// Publish enqueues an event for distribution
func (eb *EventBus) Publish(event model.Event) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe subscribes to one topic, or every event with TopicAll
func (eb *EventBus) Subscribe(topic string) <-chan model.Event {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.Event, 100)
	eb.subscribers[topic] = append(eb.subscribers[topic], subscriber)
	return subscriber
}

// distributeEvent delivers an event to its topic's subscribers and to the
// wildcard subscribers. A slow subscriber is skipped, not waited on.
func (eb *EventBus) distributeEvent(event model.Event) {
	topic := TopicFor(event.EventType)

	eb.mutex.RLock()
	subscribers := append([]chan model.Event{}, eb.subscribers[topic]...)
	subscribers = append(subscribers, eb.subscribers[TopicAll]...)
	eb.mutex.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}

// TopicFor maps an event type to its topic
func TopicFor(eventType model.EventType) string {
	name := string(eventType)
	switch {
	case strings.HasPrefix(name, "PRINTER_"):
		return TopicPrinter
	case strings.HasPrefix(name, "JOB_"):
		return TopicJob
	case strings.HasPrefix(name, "TRANSFER_"):
		return TopicTransfer
	case strings.HasPrefix(name, "DISCOVERY_"):
		return TopicDiscovery
	default:
		return TopicAll
	}
}
