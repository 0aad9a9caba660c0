package events

import "time"

// Handler consumes one event. Handlers run on the game loop goroutine
// and must not block.
type Handler func(Event)

// Bus is a queued single-goroutine event bus. Publish only enqueues;
// Drain delivers. Keeping delivery out of Publish means a mutator can
// fire events mid-update without re-entering other systems.
type Bus struct {
	queue    []Event
	handlers []Handler

	// Stamp fills Event.At on publish when the publisher left it zero.
	Stamp func() time.Time
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Publish enqueues an event for the next Drain.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() && b.Stamp != nil {
		e.At = b.Stamp()
	}
	b.queue = append(b.queue, e)
}

// Drain delivers queued events in publish order until the queue is
// empty, including events published by handlers during delivery, so a
// cascade settles within one tick. Returns the number delivered.
func (b *Bus) Drain() int {
	delivered := 0
	for len(b.queue) > 0 {
		batch := b.queue
		b.queue = nil
		for _, e := range batch {
			for _, h := range b.handlers {
				h(e)
			}
			delivered++
		}
	}
	return delivered
}

// Pending reports the queued, undelivered count.
func (b *Bus) Pending() int { return len(b.queue) }
