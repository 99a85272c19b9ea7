// Package journal provides a uow participant for in-memory state. Changes made
// within a unit of work record an undo function that is invoked, in reverse
// order, if the unit of work rolls back.
package journal

import (
	"context"
	"sync"

	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

type contextKey struct{}

// Journal is embedded by in-memory components. Every Journal shares the same
// context key, so a unit of work begins a single journal transaction for all
// of them.
type Journal struct{}

func (Journal) Begin() (uow.Tx, error) {
	return &tx{}, nil
}

func (Journal) ContextKey() interface{} {
	return contextKey{}
}

type tx struct {
	lock sync.Mutex
	undo []func()
}

func (t *tx) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.undo = nil
	return nil
}

func (t *tx) Rollback() error {
	t.lock.Lock()
	undo := t.undo
	t.undo = nil
	t.lock.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	return nil
}

// Record registers undo with the journal transaction of ctx. It's a no-op if
// ctx doesn't belong to a unit of work, meaning the change is immediately
// final.
func Record(ctx context.Context, undo func()) {
	t, ok := ctx.Value(contextKey{}).(*tx)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	t.undo = append(t.undo, undo)
}
