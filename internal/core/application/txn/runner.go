// Package txn makes every engine operation indivisible with respect to the
// other operations on the same asset key.
package txn

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

type stateKey struct{}

// state is shared by an outermost Run and all the nested ones.
type state struct {
	keys   map[domain.AssetKey]struct{}
	events []domain.Event
}

// Runner serializes operations per asset key and runs them within a unit of
// work spanning the repositories and the given in-memory participants.
// Events emitted during a run are persisted before commit and published to
// the EventPublisher only after commit.
type Runner struct {
	unit      *uow.UnitOfWork
	locks     *keyLocks
	events    domain.EventRepository
	publisher ports.EventPublisher
}

// NewRunner returns a Runner whose units of work span the repositories of
// repoManager and the given participants. Transactions are committed in
// order: the db one goes first, being the only one whose commit can fail,
// then the participants in the given order. Once a transaction is committed
// it can't be reverted by a failing one that follows.
func NewRunner(
	repoManager ports.RepoManager, publisher ports.EventPublisher,
	participants ...uow.Transactional,
) (*Runner, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if publisher == nil {
		return nil, fmt.Errorf("missing event publisher")
	}

	all := append([]uow.Transactional{repoManager.Transactional()}, participants...)
	return &Runner{
		unit:      uow.NewUnitOfWork(all...),
		locks:     newKeyLocks(),
		events:    repoManager.EventRepository(),
		publisher: publisher,
	}, nil
}

// Run executes fn while holding the lock of key. A Run invoked with a context
// derived by another Run joins it: fn's changes and events are committed or
// discarded together with the outer ones.
func (r *Runner) Run(
	ctx context.Context, key domain.AssetKey, fn func(ctx context.Context) error,
) error {
	if st, ok := ctx.Value(stateKey{}).(*state); ok {
		if _, ok := st.keys[key]; !ok {
			unlock := r.locks.lock(key)
			defer unlock()
			st.keys[key] = struct{}{}
			defer delete(st.keys, key)
		}
		return fn(ctx)
	}

	unlock := r.locks.lock(key)
	defer unlock()

	st := &state{keys: map[domain.AssetKey]struct{}{key: {}}}
	runCtx := context.WithValue(ctx, stateKey{}, st)

	if err := r.unit.Run(runCtx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		if len(st.events) <= 0 {
			return nil
		}
		return r.events.AddEvents(ctx, st.events...)
	}); err != nil {
		log.WithError(err).WithField("key", key.String()).Debug("operation aborted")
		return err
	}

	if len(st.events) > 0 {
		r.publisher.PublishEvents(ctx, st.events...)
	}
	return nil
}

// IsRunning returns whether ctx has been derived by a Run.
func IsRunning(ctx context.Context) bool {
	_, ok := ctx.Value(stateKey{}).(*state)
	return ok
}

// Emit adds events to the ones that will be published if the Run of ctx
// commits. It panics if ctx is not derived by a Run, since emitting an event
// outside of it means a transition bypassed the runner.
func Emit(ctx context.Context, events ...domain.Event) {
	st, ok := ctx.Value(stateKey{}).(*state)
	if !ok {
		panic("txn: event emitted outside of a run")
	}
	st.events = append(st.events, events...)
}
