package registry_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/registry"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

var (
	ctx      = context.Background()
	key      = domain.NewAssetKey("collection", "1")
	creator  = domain.Address("creator")
	buyer    = domain.Address("buyer")
	exchange = domain.Address("exchange")
)

func TestMint(t *testing.T) {
	r := registry.NewRegistry()

	require.NoError(t, r.Mint(ctx, key, creator))
	require.ErrorIs(t, r.Mint(ctx, key, creator), registry.ErrUnitExists)

	owner, err := r.OwnerOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, creator, owner)

	c, err := r.CreatorOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, creator, c)

	_, err = r.OwnerOf(ctx, domain.NewAssetKey("collection", "2"))
	require.ErrorIs(t, err, registry.ErrUnitNotFound)
	require.Equal(t, domain.KindState, domain.KindOf(err))
}

func TestApproveAndTransfer(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Mint(ctx, key, creator))

	ok, err := r.IsApprovedOrOwner(ctx, exchange, key)
	require.NoError(t, err)
	require.False(t, ok)

	err = r.Transfer(ctx, exchange, key, creator, buyer)
	require.ErrorIs(t, err, registry.ErrTransferNotAuthorized)

	require.NoError(t, r.Approve(ctx, creator, key, exchange))
	ok, err = r.IsApprovedOrOwner(ctx, exchange, key)
	require.NoError(t, err)
	require.True(t, ok)

	err = r.Transfer(ctx, exchange, key, buyer, exchange)
	require.ErrorIs(t, err, registry.ErrTransferFromNotOwner)

	require.NoError(t, r.Transfer(ctx, exchange, key, creator, buyer))

	owner, err := r.OwnerOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, buyer, owner)

	// Transfer clears the single unit approval.
	approved, err := r.GetApproved(ctx, key)
	require.NoError(t, err)
	require.True(t, approved.IsZero())

	// Creator doesn't change with ownership.
	c, err := r.CreatorOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, creator, c)
}

func TestApprovalForAll(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Mint(ctx, key, creator))

	require.NoError(t, r.SetApprovalForAll(ctx, key.Collection, creator, exchange, true))
	require.True(t, r.IsApprovedForAll(key.Collection, creator, exchange))

	ok, err := r.IsApprovedOrOwner(ctx, exchange, key)
	require.NoError(t, err)
	require.True(t, ok)

	// An operator can approve single units on behalf of the owner.
	require.NoError(t, r.Approve(ctx, exchange, key, buyer))

	require.NoError(t, r.SetApprovalForAll(ctx, key.Collection, creator, exchange, false))
	ok, err = r.IsApprovedOrOwner(ctx, exchange, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegistryRollback(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Mint(ctx, key, creator))
	require.NoError(t, r.Approve(ctx, creator, key, exchange))

	unit := uow.NewUnitOfWork(r)
	err := unit.Run(ctx, func(ctx context.Context) error {
		if err := r.Transfer(ctx, exchange, key, creator, buyer); err != nil {
			return err
		}
		if err := r.Mint(ctx, domain.NewAssetKey("collection", "2"), buyer); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	owner, err := r.OwnerOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, creator, owner)

	approved, err := r.GetApproved(ctx, key)
	require.NoError(t, err)
	require.Equal(t, exchange, approved)

	_, err = r.OwnerOf(ctx, domain.NewAssetKey("collection", "2"))
	require.ErrorIs(t, err, registry.ErrUnitNotFound)
}

func TestStagedChanges(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Mint(ctx, key, creator))
	require.NoError(t, r.Approve(ctx, creator, key, exchange))

	err := uow.NewUnitOfWork(r).Run(ctx, func(txCtx context.Context) error {
		if err := r.Transfer(txCtx, exchange, key, creator, buyer); err != nil {
			return err
		}

		owner, err := r.OwnerOf(txCtx, key)
		require.NoError(t, err)
		require.Equal(t, buyer, owner)

		// Not visible outside of the transaction until committed.
		owner, err = r.OwnerOf(ctx, key)
		require.NoError(t, err)
		require.Equal(t, creator, owner)
		approved, err := r.GetApproved(ctx, key)
		require.NoError(t, err)
		require.Equal(t, exchange, approved)
		return nil
	})
	require.NoError(t, err)

	owner, err := r.OwnerOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, buyer, owner)
}

func TestPersistentRegistry(t *testing.T) {
	dir := t.TempDir()
	other := domain.NewAssetKey("collection", "2")

	store, err := registry.OpenStore(dir)
	require.NoError(t, err)
	r, err := registry.NewPersistentRegistry(store)
	require.NoError(t, err)

	require.NoError(t, r.Mint(ctx, key, creator))
	require.NoError(t, r.SetApprovalForAll(ctx, key.Collection, creator, exchange, true))
	require.NoError(t, r.SetApprovalForAll(ctx, key.Collection, creator, buyer, true))
	require.NoError(t, r.SetApprovalForAll(ctx, key.Collection, creator, buyer, false))

	err = uow.NewUnitOfWork(r).Run(ctx, func(ctx context.Context) error {
		return r.Transfer(ctx, exchange, key, creator, buyer)
	})
	require.NoError(t, err)

	err = uow.NewUnitOfWork(r).Run(ctx, func(ctx context.Context) error {
		if err := r.Mint(ctx, other, buyer); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)
	require.NoError(t, store.Close())

	store, err = registry.OpenStore(dir)
	require.NoError(t, err)
	defer store.Close()
	r, err = registry.NewPersistentRegistry(store)
	require.NoError(t, err)

	owner, err := r.OwnerOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, buyer, owner)
	c, err := r.CreatorOf(ctx, key)
	require.NoError(t, err)
	require.Equal(t, creator, c)

	require.True(t, r.IsApprovedForAll(key.Collection, creator, exchange))
	require.False(t, r.IsApprovedForAll(key.Collection, creator, buyer))

	_, err = r.OwnerOf(ctx, other)
	require.ErrorIs(t, err, registry.ErrUnitNotFound)
}
