// Package collections holds the client-side mirrors of the store tables.
// Every mutation is refused while offline and reaches the mirror only after
// the store confirmed it.
package collections

import (
	"context"
	"sync"

	"github.com/marcosbarbosa-dev/appfinance/internal/connectivity"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// Keyed is implemented by pointers to mirrored rows.
type Keyed[E any] interface {
	*E
	PrimaryKey() string
}

// Backend performs the remote side of a mirror's operations.
type Backend[E any] interface {
	List(ctx context.Context) ([]E, error)
	Save(ctx context.Context, row *E) (*E, error)
	SaveBatch(ctx context.Context, rows []E) ([]E, error)
	Delete(ctx context.Context, id string) error
}

// Collection mirrors one table for the signed-in user.
type Collection[E any, P Keyed[E]] struct {
	table  string
	online connectivity.Checker

	mu       sync.RWMutex
	backend  Backend[E]
	items    []E
	index    map[string]int
	unwatch  func()
	visible  func(P) bool
	revision uint64
}

// New creates an empty, unbound mirror of table.
func New[E any, P Keyed[E]](table string, online connectivity.Checker) *Collection[E, P] {
	if online == nil {
		online = &connectivity.Toggle{}
	}
	return &Collection[E, P]{table: table, online: online, index: make(map[string]int)}
}

// Table returns the mirrored table name.
func (c *Collection[E, P]) Table() string { return c.table }

// Load binds the mirror to b and replaces its rows with b's. On a read
// failure the current rows are kept.
func (c *Collection[E, P]) Load(ctx context.Context, b Backend[E]) error {
	c.mu.Lock()
	c.backend = b
	rev := c.revision
	c.mu.Unlock()

	rows, err := b.List(ctx)
	if err != nil {
		logger.Get().Warnw("collection load failed", "table", c.table, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revision != rev {
		return nil
	}
	c.clearLocked()
	for _, row := range rows {
		c.putLocked(row)
	}
	return nil
}

// Reset empties and unbinds the mirror and stops watching the store.
func (c *Collection[E, P]) Reset() {
	c.mu.Lock()
	unwatch := c.unwatch
	c.backend = nil
	c.clearLocked()
	c.unwatch = nil
	c.visible = nil
	c.revision++
	c.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
}

// Save upserts row remotely, then mirrors the stored row unless the mirror
// was reset in the meantime.
func (c *Collection[E, P]) Save(ctx context.Context, row *E) (*E, error) {
	b, rev, err := c.writable(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := b.Save(ctx, row)
	if err != nil {
		return nil, err
	}
	c.put(rev, *saved)
	out := *saved
	return &out, nil
}

// SaveBatch inserts rows remotely, then mirrors them.
func (c *Collection[E, P]) SaveBatch(ctx context.Context, rows []E) ([]E, error) {
	b, rev, err := c.writable(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := b.SaveBatch(ctx, rows)
	if err != nil {
		return nil, err
	}
	c.put(rev, saved...)
	return append([]E(nil), saved...), nil
}

// Delete removes the row remotely, then from the mirror.
func (c *Collection[E, P]) Delete(ctx context.Context, id string) error {
	b, rev, err := c.writable(ctx)
	if err != nil {
		return err
	}
	if err := b.Delete(ctx, id); err != nil {
		return err
	}
	c.remove(rev, id)
	return nil
}

// Get returns a copy of the row with the given key.
func (c *Collection[E, P]) Get(id string) (E, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		var zero E
		return zero, false
	}
	return c.items[i], true
}

// All returns a copy of every mirrored row in load order.
func (c *Collection[E, P]) All() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]E{}, c.items...)
}

// Len returns the number of mirrored rows.
func (c *Collection[E, P]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Watch applies committed store changes of rows accepted by visible until
// the mirror is reset. A previous watch is replaced.
func (c *Collection[E, P]) Watch(st store.Store, visible func(P) bool) {
	cancel := st.Subscribe(c.table, c.apply)

	c.mu.Lock()
	prev := c.unwatch
	c.unwatch = cancel
	c.visible = visible
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

func (c *Collection[E, P]) apply(ev store.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend == nil {
		return
	}

	switch ev.Type {
	case store.EventInsert, store.EventUpdate:
		row, ok := ev.New.(P)
		if !ok || row == nil {
			return
		}
		if c.visible != nil && !c.visible(row) {
			c.removeLocked(row.PrimaryKey())
			return
		}
		c.putLocked(*row)
	case store.EventDelete:
		if row, ok := ev.Old.(P); ok && row != nil {
			c.removeLocked(row.PrimaryKey())
		}
	}
}

// writable returns the bound backend and the mirror revision after the
// connectivity gate. Results of the write are applied only while the
// revision is unchanged.
func (c *Collection[E, P]) writable(ctx context.Context) (Backend[E], uint64, error) {
	c.mu.RLock()
	b, rev := c.backend, c.revision
	c.mu.RUnlock()
	if b == nil {
		return nil, 0, apperrors.ErrUnauthorized
	}
	if !c.online.Online(ctx) {
		return nil, 0, apperrors.ErrOfflineBlocked
	}
	return b, rev, nil
}

// current reports whether the mirror is still at rev. Callers hold c.mu.
func (c *Collection[E, P]) current(rev uint64) bool {
	if c.revision == rev {
		return true
	}
	logger.Get().Debugw("mirror reset during write, result dropped", "table", c.table)
	return false
}

func (c *Collection[E, P]) put(rev uint64, rows ...E) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(rev) {
		return
	}
	for _, row := range rows {
		c.putLocked(row)
	}
}

func (c *Collection[E, P]) remove(rev uint64, ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(rev) {
		return
	}
	for _, id := range ids {
		c.removeLocked(id)
	}
}

func (c *Collection[E, P]) putLocked(row E) {
	id := P(&row).PrimaryKey()
	if i, ok := c.index[id]; ok {
		c.items[i] = row
		return
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, row)
}

func (c *Collection[E, P]) removeLocked(id string) {
	i, ok := c.index[id]
	if !ok {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[P(&c.items[j]).PrimaryKey()] = j
	}
}

func (c *Collection[E, P]) clearLocked() {
	c.items = nil
	c.index = make(map[string]int)
}
