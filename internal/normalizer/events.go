package normalizer

import (
	"sync"

	"github.com/lineview/odds-aggregator/internal/models"
)

// EventRegistry is the shared set of canonical events. An event is created on
// first sighting from any source and never deleted; its start time is filled
// at most once.
type EventRegistry struct {
	mu     sync.RWMutex
	events map[string]models.Event
}

// NewEventRegistry creates an empty registry.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{events: make(map[string]models.Event)}
}

// Upsert records a sighting of an event and returns the canonical entry.
// An existing event keeps its start time; a zero start time is filled by the
// first sighting that knows one.
func (r *EventRegistry) Upsert(ev models.Event) models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.events[ev.EventID]
	if !ok {
		r.events[ev.EventID] = ev
		return ev
	}

	if existing.StartTime.IsZero() && !ev.StartTime.IsZero() {
		existing.StartTime = ev.StartTime
		r.events[ev.EventID] = existing
	}
	return existing
}

// Get returns the event for an id.
func (r *EventRegistry) Get(eventID string) (models.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.events[eventID]
	return ev, ok
}

// All returns every known event.
func (r *EventRegistry) All() []models.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Event, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev)
	}
	return out
}
