// Package events provides in-process pub/sub for booking lifecycle events.
package events

import (
	"sync"

	"gymbook/internal/models"
)

// Topics published by the booking session.
const (
	TopicBookingCreated = "booking.created"
)

// Handler reacts to a booking event.
type Handler func(topic string, booking models.Booking)

// Bus is a minimal in-process event bus.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], handler)
}

// Publish notifies subscribers of the topic.
func (b *Bus) Publish(topic string, booking models.Booking) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(topic, booking)
	}
}
