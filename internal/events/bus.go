package events

import (
	platformevents "practice_portal_backend/platform/events"
	"practice_portal_backend/platform/logger"
)

// InMemoryBus aliases the platform bus so modules only import this
// package for both the bus and the event catalog.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus builds the in-process bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
