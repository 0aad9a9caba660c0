// Package telemetry records domain events for the stats read model.
package telemetry

import (
	"sync"
	"time"

	"github.com/Dark2017/magic-shop-mini-game/internal/events"
)

type Record struct {
	ID    int          `json:"id"`
	Event events.Event `json:"event"`
}

// Repository stores gameplay event records.
type Repository interface {
	Record(e events.Event) error
	Events(since time.Time, types []events.Type) ([]Record, error)
	Clear() error
}

// MemoryRepository keeps records in memory. The log is session-scoped;
// durable aggregates live in the save's Stats block.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []Record
	nextID  int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) Record(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, Record{ID: r.nextID, Event: e})
	r.nextID++
	return nil
}

func (r *MemoryRepository) Events(since time.Time, types []events.Type) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter := make(map[events.Type]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}

	out := make([]Record, 0)
	for _, rec := range r.records {
		if rec.Event.At.Before(since) {
			continue
		}
		if len(types) > 0 && !filter[rec.Event.Type] {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *MemoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.nextID = 1
	return nil
}
