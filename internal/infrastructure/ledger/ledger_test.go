package ledger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

var (
	ctx    = context.Background()
	engine = domain.Address("engine")
	alice  = domain.Address("alice")
	bob    = domain.Address("bob")
	token  = domain.Address("usdt")
	native = domain.NativeAsset()
	usdt   = domain.TokenAsset(token)
)

func TestTransferActive(t *testing.T) {
	l := ledger.NewLedger(engine, token)
	require.NoError(t, l.Mint(ctx, native, alice, 100))
	require.NoError(t, l.Mint(ctx, usdt, alice, 100))

	tests := []struct {
		name        string
		asset       domain.PaymentAsset
		from        domain.Address
		amount      uint64
		expectedErr error
	}{
		{
			name:        "insufficient funds",
			asset:       native,
			from:        alice,
			amount:      101,
			expectedErr: ledger.ErrInsufficientFunds,
		},
		{
			name:        "token not approved",
			asset:       usdt,
			from:        alice,
			amount:      10,
			expectedErr: ledger.ErrInsufficientAllowance,
		},
		{
			name:        "unsupported token",
			asset:       domain.TokenAsset("dai"),
			from:        alice,
			amount:      10,
			expectedErr: domain.ErrUnsupportedPaymentAsset,
		},
		{
			name:   "native",
			asset:  native,
			from:   alice,
			amount: 40,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := l.TransferActive(ctx, tt.asset, tt.from, engine, tt.amount)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.Equal(t, domain.KindValue, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}

	balance, err := l.BalanceOf(ctx, native, engine)
	require.NoError(t, err)
	require.Equal(t, uint64(40), balance)
}

func TestTokenAllowance(t *testing.T) {
	l := ledger.NewLedger(engine, token)
	require.NoError(t, l.Mint(ctx, usdt, alice, 100))
	require.NoError(t, l.Approve(ctx, token, alice, engine, 60))

	require.NoError(t, l.TransferActive(ctx, usdt, alice, bob, 50))
	require.Equal(t, uint64(10), l.Allowance(token, alice, engine))

	err := l.TransferActive(ctx, usdt, alice, bob, 20)
	require.ErrorIs(t, err, ledger.ErrInsufficientAllowance)

	// The engine spends its own funds without allowance.
	require.NoError(t, l.TransferActive(ctx, usdt, bob, engine, 50))
	require.NoError(t, l.TransferActive(ctx, usdt, engine, alice, 50))

	balance, err := l.BalanceOf(ctx, usdt, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)
}

type receiverMock struct {
	err      error
	received uint64
}

func (r *receiverMock) OnTransferReceived(
	_ context.Context, _ domain.PaymentAsset, _ domain.Address,
	amount uint64, _ []byte,
) error {
	if r.err != nil {
		return r.err
	}
	r.received += amount
	return nil
}

func TestTransferAndCall(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		l := ledger.NewLedger(engine, token)
		r := &receiverMock{}
		l.SetReceiver(engine, r)
		require.NoError(t, l.Mint(ctx, usdt, alice, 100))

		require.NoError(t, l.TransferAndCall(ctx, usdt, alice, engine, 70, nil))
		require.Equal(t, uint64(70), r.received)

		balance, err := l.BalanceOf(ctx, usdt, engine)
		require.NoError(t, err)
		require.Equal(t, uint64(70), balance)
	})

	t.Run("rejected", func(t *testing.T) {
		l := ledger.NewLedger(engine, token)
		l.SetReceiver(engine, &receiverMock{err: fmt.Errorf("rejected")})
		require.NoError(t, l.Mint(ctx, usdt, alice, 100))

		err := l.TransferAndCall(ctx, usdt, alice, engine, 70, nil)
		require.EqualError(t, err, "rejected")

		balance, err := l.BalanceOf(ctx, usdt, alice)
		require.NoError(t, err)
		require.Equal(t, uint64(100), balance)
	})
}

func TestLedgerRollback(t *testing.T) {
	l := ledger.NewLedger(engine, token)
	require.NoError(t, l.Mint(ctx, usdt, alice, 100))
	require.NoError(t, l.Approve(ctx, token, alice, engine, 100))

	unit := uow.NewUnitOfWork(l)
	err := unit.Run(ctx, func(ctx context.Context) error {
		if err := l.TransferActive(ctx, usdt, alice, bob, 30); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.EqualError(t, err, "abort")

	balance, err := l.BalanceOf(ctx, usdt, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)
	require.Equal(t, uint64(100), l.Allowance(token, alice, engine))
}

func TestUncommittedCreditsAreIsolated(t *testing.T) {
	l := ledger.NewLedger(engine, token)
	require.NoError(t, l.Mint(ctx, native, engine, 200))
	unit := uow.NewUnitOfWork(l)

	err := unit.Run(ctx, func(txCtx context.Context) error {
		if err := l.TransferActive(txCtx, native, engine, alice, 100); err != nil {
			return err
		}

		// The transaction sees its own credit, the others don't.
		balance, err := l.BalanceOf(txCtx, native, alice)
		require.NoError(t, err)
		require.Equal(t, uint64(100), balance)
		balance, err = l.BalanceOf(ctx, native, alice)
		require.NoError(t, err)
		require.Zero(t, balance)

		// Reserved funds can't be spent by the others.
		balance, err = l.BalanceOf(ctx, native, engine)
		require.NoError(t, err)
		require.Equal(t, uint64(100), balance)

		err = uow.NewUnitOfWork(l).Run(ctx, func(ctx context.Context) error {
			return l.TransferActive(ctx, native, alice, engine, 100)
		})
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		err = l.TransferActive(ctx, native, engine, bob, 150)
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		// Own credits are spent before the committed balance.
		return l.TransferActive(txCtx, native, alice, bob, 30)
	})
	require.NoError(t, err)

	tests := []struct {
		owner    domain.Address
		expected uint64
	}{
		{engine, 100},
		{alice, 70},
		{bob, 30},
	}
	for _, tt := range tests {
		balance, err := l.BalanceOf(ctx, native, tt.owner)
		require.NoError(t, err)
		require.Equal(t, tt.expected, balance, tt.owner)
	}
}

func TestRollbackReleasesReservations(t *testing.T) {
	l := ledger.NewLedger(engine, token)
	require.NoError(t, l.Mint(ctx, usdt, alice, 100))
	require.NoError(t, l.Approve(ctx, token, alice, engine, 100))

	err := uow.NewUnitOfWork(l).Run(ctx, func(ctx context.Context) error {
		if err := l.TransferActive(ctx, usdt, alice, engine, 60); err != nil {
			return err
		}
		if err := l.TransferActive(ctx, usdt, engine, bob, 60); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.EqualError(t, err, "abort")

	// A transfer committed after the rollback is not affected by it.
	require.NoError(t, l.TransferActive(ctx, usdt, alice, engine, 100))

	balance, err := l.BalanceOf(ctx, usdt, alice)
	require.NoError(t, err)
	require.Zero(t, balance)
	balance, err = l.BalanceOf(ctx, usdt, engine)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)
	balance, err = l.BalanceOf(ctx, usdt, bob)
	require.NoError(t, err)
	require.Zero(t, balance)
	require.Zero(t, l.Allowance(token, alice, engine))
}

func TestPersistentLedger(t *testing.T) {
	dir := t.TempDir()

	store, err := ledger.OpenStore(dir)
	require.NoError(t, err)
	l, err := ledger.NewPersistentLedger(store, engine, token)
	require.NoError(t, err)

	require.NoError(t, l.Mint(ctx, native, alice, 100))
	require.NoError(t, l.Mint(ctx, usdt, alice, 50))
	require.NoError(t, l.Approve(ctx, token, alice, engine, 40))

	err = uow.NewUnitOfWork(l).Run(ctx, func(ctx context.Context) error {
		if err := l.TransferActive(ctx, native, alice, engine, 100); err != nil {
			return err
		}
		return l.TransferActive(ctx, usdt, alice, engine, 10)
	})
	require.NoError(t, err)

	err = uow.NewUnitOfWork(l).Run(ctx, func(ctx context.Context) error {
		if err := l.TransferActive(ctx, usdt, alice, bob, 10); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)
	require.NoError(t, store.Close())

	store, err = ledger.OpenStore(dir)
	require.NoError(t, err)
	defer store.Close()
	l, err = ledger.NewPersistentLedger(store, engine, token)
	require.NoError(t, err)

	tests := []struct {
		asset    domain.PaymentAsset
		owner    domain.Address
		expected uint64
	}{
		{native, alice, 0},
		{native, engine, 100},
		{usdt, alice, 40},
		{usdt, engine, 10},
		{usdt, bob, 0},
	}
	for _, tt := range tests {
		balance, err := l.BalanceOf(ctx, tt.asset, tt.owner)
		require.NoError(t, err)
		require.Equal(t, tt.expected, balance, "%s %s", tt.asset, tt.owner)
	}
	require.Equal(t, uint64(30), l.Allowance(token, alice, engine))
}
