// Package events re-exports the platform event bus and defines the domain
// events exchanged between modules.
package events

import (
	platformevents "funilzap_backend/platform/events"
	"funilzap_backend/platform/logger"
)

// Bus is the interface modules depend on.
type Bus = platformevents.Bus

// Event is the base event interface.
type Event = platformevents.Event

// Handler processes events.
type Handler = platformevents.Handler

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc = platformevents.HandlerFunc

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
