package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/journal"
)

// table is a keyed store whose mutations are journaled, so that they are
// reverted if the unit of work of the given context rolls back.
type table[V any] struct {
	lock sync.RWMutex
	rows map[string]V
}

func newTable[V any]() *table[V] {
	return &table[V]{rows: make(map[string]V)}
}

func (t *table[V]) get(key string) (V, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	v, ok := t.rows[key]
	return v, ok
}

// insert adds the row only if the key is not already in use.
func (t *table[V]) insert(ctx context.Context, key string, v V) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.rows[key]; ok {
		return false
	}
	t.rows[key] = v
	journal.Record(ctx, func() { t.restore(key, v, false) })
	return true
}

func (t *table[V]) upsert(ctx context.Context, key string, v V) {
	t.lock.Lock()
	defer t.lock.Unlock()

	prev, existed := t.rows[key]
	t.rows[key] = v
	journal.Record(ctx, func() { t.restore(key, prev, existed) })
}

func (t *table[V]) delete(ctx context.Context, key string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	prev, existed := t.rows[key]
	if !existed {
		return
	}
	delete(t.rows, key)
	journal.Record(ctx, func() { t.restore(key, prev, true) })
}

func (t *table[V]) restore(key string, prev V, existed bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if existed {
		t.rows[key] = prev
		return
	}
	delete(t.rows, key)
}

// all returns the rows sorted by key.
func (t *table[V]) all() []V {
	t.lock.RLock()
	defer t.lock.RUnlock()

	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]V, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, t.rows[k])
	}
	return rows
}
