package telemetry

import (
	"encoding/json"
	"sync"
	"time"
)

// Repository is the sink the tracker records engine events into and
// the stats endpoint reads from.
type Repository interface {
	RecordEvent(eventType EventType, metadata EventMetadata) error
	GetEvents(since time.Time, eventTypes []EventType) ([]Event, error)
	Clear() error
}

// MemoryRepository keeps events in process memory. Good enough for a
// single server; events are observability, not progression, so losing
// them on restart is acceptable.
type MemoryRepository struct {
	mu     sync.RWMutex
	events []Event
	nextID int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) RecordEvent(eventType EventType, metadata EventMetadata) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		ID:        r.nextID,
		Type:      eventType,
		Timestamp: time.Now(),
		Metadata:  string(payload),
	})
	r.nextID++
	return nil
}

// GetEvents returns events at or after since. An empty eventTypes
// slice means no type filter.
func (r *MemoryRepository) GetEvents(since time.Time, eventTypes []EventType) ([]Event, error) {
	wanted := make(map[EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		wanted[t] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, 0)
	for _, event := range r.events {
		if event.Timestamp.Before(since) {
			continue
		}
		if len(wanted) > 0 && !wanted[event.Type] {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (r *MemoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.nextID = 1
	return nil
}
