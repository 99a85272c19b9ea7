package uow

import (
	"context"
	"fmt"
)

// Transactional begins a transaction
type Transactional interface {
	Begin() (Tx, error)
}

// Tx represents an all-or-nothing transaction, by committing or rolling back
// a set of read/write operations
type Tx interface {
	Commit() error
	Rollback() error
}

// ContextProvider returns a context key. Participants returning the same key
// share the same transaction.
type ContextProvider interface {
	ContextKey() interface{}
}

type runningKey struct{}

// UnitOfWork allows to run multiple transactions as one
type UnitOfWork struct {
	participants []Transactional
}

// NewUnitOfWork returns a new UnitOfWork with the given Transaction
// interfaces. Transactions are committed in the given order, so that
// participants whose commit can actually fail should come first.
func NewUnitOfWork(participants ...Transactional) *UnitOfWork {
	return &UnitOfWork{participants}
}

// IsRunning returns whether ctx has been derived by a running UnitOfWork.
func IsRunning(ctx context.Context) bool {
	running, _ := ctx.Value(runningKey{}).(bool)
	return running
}

// TxFromContext returns the transaction begun for the given participant key,
// if any.
func TxFromContext(ctx context.Context, key interface{}) (Tx, bool) {
	tx, ok := ctx.Value(key).(Tx)
	return tx, ok
}

// Run executes the given function within a context carrying one transaction
// per distinct participant. Run makes sure that all the transactions within
// the given function are either all committed to the relative storage or
// rolled back if any error occur. Calling Run with a context already derived
// by a running UnitOfWork joins it.
func (u *UnitOfWork) Run(
	ctx context.Context, fn func(ctx context.Context) error,
) (err error) {
	if IsRunning(ctx) {
		return fn(ctx)
	}

	txs := make([]Tx, 0, len(u.participants))
	begun := make(map[interface{}]struct{})

	defer func() {
		// panicking returns an error that causes txs rollback
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recovered: %v", rec)
		}

		if err != nil {
			rollback(txs)
			return
		}

		for i, tx := range txs {
			if err = tx.Commit(); err != nil {
				// already committed transactions can't be reverted.
				rollback(txs[i:])
				return
			}
		}
	}()

	for _, p := range u.participants {
		var key interface{} = p
		if cp, ok := p.(ContextProvider); ok {
			key = cp.ContextKey()
		}
		if _, ok := begun[key]; ok {
			continue
		}

		tx, err := p.Begin()
		if err != nil {
			return err
		}
		begun[key] = struct{}{}
		txs = append(txs, tx)
		ctx = context.WithValue(ctx, key, tx)
	}

	return fn(context.WithValue(ctx, runningKey{}, true))
}

// rollback reverts the given transactions in reverse order.
func rollback(txs []Tx) {
	for i := len(txs) - 1; i >= 0; i-- {
		//nolint
		txs[i].Rollback()
	}
}
