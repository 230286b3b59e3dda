package store

import "sync"

// Broker fans committed changes out to per-table listeners.
type Broker struct {
	mu        sync.RWMutex
	next      int
	listeners map[string]map[int]Listener
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{listeners: make(map[string]map[int]Listener)}
}

// Subscribe registers l for table. The returned cancel is idempotent.
func (b *Broker) Subscribe(table string, l Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	if b.listeners[table] == nil {
		b.listeners[table] = make(map[int]Listener)
	}
	b.listeners[table][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners[table], id)
			if len(b.listeners[table]) == 0 {
				delete(b.listeners, table)
			}
		})
	}
}

// Publish delivers events to the listeners of their tables. Listeners run on
// the caller's goroutine, outside the broker lock, so they may subscribe or
// cancel while handling an event.
func (b *Broker) Publish(events ...Event) {
	for _, ev := range events {
		b.mu.RLock()
		targets := make([]Listener, 0, len(b.listeners[ev.Table]))
		for _, l := range b.listeners[ev.Table] {
			targets = append(targets, l)
		}
		b.mu.RUnlock()

		for _, l := range targets {
			l(ev)
		}
	}
}

// Listeners reports how many listeners are registered for table.
func (b *Broker) Listeners(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[table])
}
