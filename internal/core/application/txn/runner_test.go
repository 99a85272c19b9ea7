package txn_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/inmemory"
)

var (
	ctx  = context.Background()
	keyA = domain.NewAssetKey("collection", "1")
	keyB = domain.NewAssetKey("collection", "2")
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvents(ctx context.Context, events ...domain.Event) {
	m.Called(ctx, events)
}

func listing(t *testing.T, key domain.AssetKey) *domain.Listing {
	l, err := domain.NewListing(key, "seller", domain.NativeAsset(), 10, 0)
	require.NoError(t, err)
	return l
}

func TestRunCommit(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	publisher := &mockPublisher{}
	publisher.On("PublishEvents", mock.Anything, mock.MatchedBy(
		func(events []domain.Event) bool {
			return len(events) == 2 &&
				events[0].Type == domain.EventSalePlaced &&
				events[1].Type == domain.EventSaleCancelled
		},
	)).Return().Once()

	runner, err := txn.NewRunner(repoManager, publisher)
	require.NoError(t, err)

	err = runner.Run(ctx, keyA, func(ctx context.Context) error {
		require.True(t, txn.IsRunning(ctx))

		l := listing(t, keyA)
		if err := repoManager.ListingRepository().AddListing(ctx, l); err != nil {
			return err
		}
		txn.Emit(ctx, domain.NewSalePlacedEvent(l, 0))

		// Nested runs join the outer one, even for other keys.
		return runner.Run(ctx, keyB, func(ctx context.Context) error {
			txn.Emit(ctx, domain.NewSaleCancelledEvent(l, "seller", 0))
			return nil
		})
	})
	require.NoError(t, err)
	publisher.AssertExpectations(t)

	events, err := repoManager.EventRepository().GetAllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, uint64(1), events[0].Seq)
	require.Equal(t, uint64(2), events[1].Seq)
}

func TestRunRollback(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{
			name: "error",
			fn: func(ctx context.Context) error {
				return fmt.Errorf("abort")
			},
		},
		{
			name: "nested error",
			fn: func(ctx context.Context) error {
				return runnerFromContext(ctx).Run(ctx, keyB, func(ctx context.Context) error {
					return fmt.Errorf("abort")
				})
			},
		},
		{
			name: "panic",
			fn: func(ctx context.Context) error {
				panic("abort")
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repoManager := inmemory.NewRepoManager()
			publisher := &mockPublisher{}
			runner, err := txn.NewRunner(repoManager, publisher)
			require.NoError(t, err)

			err = runner.Run(ctx, keyA, func(ctx context.Context) error {
				l := listing(t, keyA)
				if err := repoManager.ListingRepository().AddListing(ctx, l); err != nil {
					return err
				}
				txn.Emit(ctx, domain.NewSalePlacedEvent(l, 0))
				return tt.fn(withRunner(ctx, runner))
			})
			require.Error(t, err)

			_, err = repoManager.ListingRepository().GetListing(ctx, keyA)
			require.ErrorIs(t, err, domain.ErrListingNotFound)
			events, err := repoManager.EventRepository().GetAllEvents(ctx)
			require.NoError(t, err)
			require.Empty(t, events)
			publisher.AssertNotCalled(t, "PublishEvents", mock.Anything, mock.Anything)
		})
	}
}

func TestRunRollbackAcrossKeys(t *testing.T) {
	engine := domain.Address("engine")
	account := domain.Address("account")
	native := domain.NativeAsset()

	payments := ledger.NewLedger(engine)
	require.NoError(t, payments.Mint(ctx, native, engine, 200))

	runner, err := txn.NewRunner(inmemory.NewRepoManager(), &mockPublisher{}, payments)
	require.NoError(t, err)

	err = runner.Run(ctx, keyA, func(ctx context.Context) error {
		if err := payments.TransferActive(ctx, native, engine, account, 100); err != nil {
			return err
		}

		// A concurrent run on another key can't spend the uncommitted credit.
		done := make(chan error)
		go func() {
			done <- runner.Run(context.Background(), keyB, func(ctx context.Context) error {
				return payments.TransferActive(ctx, native, account, engine, 100)
			})
		}()
		require.ErrorIs(t, <-done, ledger.ErrInsufficientFunds)

		return fmt.Errorf("late failure")
	})
	require.EqualError(t, err, "late failure")

	balance, err := payments.BalanceOf(ctx, native, account)
	require.NoError(t, err)
	require.Zero(t, balance)
	balance, err = payments.BalanceOf(ctx, native, engine)
	require.NoError(t, err)
	require.Equal(t, uint64(200), balance)
}

func TestRunSerializesSameKey(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	publisher := &mockPublisher{}
	runner, err := txn.NewRunner(repoManager, publisher)
	require.NoError(t, err)

	var (
		lock    sync.Mutex
		running int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.Run(ctx, keyA, func(ctx context.Context) error {
				lock.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				lock.Unlock()

				lock.Lock()
				running--
				lock.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestEmitOutsideRun(t *testing.T) {
	require.Panics(t, func() {
		txn.Emit(ctx, domain.NewSalePlacedEvent(listing(t, keyA), 0))
	})
}

type runnerKey struct{}

func withRunner(ctx context.Context, r *txn.Runner) context.Context {
	return context.WithValue(ctx, runnerKey{}, r)
}

func runnerFromContext(ctx context.Context) *txn.Runner {
	return ctx.Value(runnerKey{}).(*txn.Runner)
}
