package dbbadger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	dbbadger "github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

var (
	ctx      = context.Background()
	key      = domain.NewAssetKey("collection", "1")
	otherKey = domain.NewAssetKey("collection", "2")
)

func newTestRepoManager(t *testing.T) ports.RepoManager {
	repoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}

func TestListingRepository(t *testing.T) {
	repo := newTestRepoManager(t).ListingRepository()

	listing, err := domain.NewListing(key, "seller", domain.TokenAsset("token"), 100, 1)
	require.NoError(t, err)

	require.NoError(t, repo.AddListing(ctx, listing))
	require.ErrorIs(t, repo.AddListing(ctx, listing), domain.ErrAlreadyListed)

	got, err := repo.GetListing(ctx, key)
	require.NoError(t, err)
	require.Equal(t, *listing, *got)

	_, err = repo.GetListing(ctx, otherKey)
	require.ErrorIs(t, err, domain.ErrListingNotFound)

	require.NoError(t, repo.DeleteListing(ctx, key))
	require.NoError(t, repo.DeleteListing(ctx, key))

	listings, err := repo.GetAllListings(ctx)
	require.NoError(t, err)
	require.Empty(t, listings)
}

func TestAuctionRepository(t *testing.T) {
	repo := newTestRepoManager(t).AuctionRepository()

	auction, err := domain.NewAuction(key, "seller", domain.NativeAsset(), 10, 1, 100)
	require.NoError(t, err)
	require.NoError(t, repo.AddAuction(ctx, auction))
	require.ErrorIs(t, repo.AddAuction(ctx, auction), domain.ErrAlreadyListed)

	err = repo.UpdateAuction(ctx, key, func(a *domain.Auction) (*domain.Auction, error) {
		if _, _, err := a.Bid("bidder", domain.NativeAsset(), 20, 2); err != nil {
			return nil, err
		}
		return a, nil
	})
	require.NoError(t, err)

	got, err := repo.GetAuction(ctx, key)
	require.NoError(t, err)
	require.Equal(t, domain.Address("bidder"), got.Bidder)
	require.Equal(t, uint64(20), got.BidPrice)

	auctions, err := repo.GetAllAuctions(ctx)
	require.NoError(t, err)
	require.Len(t, auctions, 1)

	require.NoError(t, repo.DeleteAuction(ctx, key))
	_, err = repo.GetAuction(ctx, key)
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func TestEscrowAndSettlementRepositories(t *testing.T) {
	repoManager := newTestRepoManager(t)

	split, err := domain.Distribute(
		1000000, []domain.Address{"fee-1", "fee-2"}, []uint64{1000, 25000},
	)
	require.NoError(t, err)
	payout := domain.NewPayout(key, "seller", "buyer", domain.NativeAsset(), 1000000, split)

	escrow, err := domain.NewEscrow(payout, 100, 1)
	require.NoError(t, err)
	require.NoError(t, repoManager.EscrowRepository().AddEscrow(ctx, escrow))
	require.ErrorIs(
		t, repoManager.EscrowRepository().AddEscrow(ctx, escrow), domain.ErrEscrowExists,
	)

	gotEscrow, err := repoManager.EscrowRepository().GetEscrow(ctx, key)
	require.NoError(t, err)
	require.Equal(t, *escrow, *gotEscrow)

	settlement, err := domain.NewSettlement(payout, 1)
	require.NoError(t, err)
	require.NoError(t, repoManager.SettlementRepository().AddSettlement(ctx, settlement))

	gotSettlement, err := repoManager.SettlementRepository().GetSettlement(ctx, key)
	require.NoError(t, err)
	require.Equal(t, *settlement, *gotSettlement)

	require.NoError(t, repoManager.SettlementRepository().DeleteSettlement(ctx, key))
	_, err = repoManager.SettlementRepository().GetSettlement(ctx, key)
	require.ErrorIs(t, err, domain.ErrSettlementNotFound)

	// Deleting the settlement must not affect the escrow with the same key.
	_, err = repoManager.EscrowRepository().GetEscrow(ctx, key)
	require.NoError(t, err)
}

func TestRoyaltyRepository(t *testing.T) {
	repo := newTestRepoManager(t).RoyaltyRepository()

	rule, err := repo.GetRoyaltyRule(ctx, key)
	require.NoError(t, err)
	require.Nil(t, rule)

	newRule, err := domain.NewRoyaltyRule(
		key, "creator", []domain.Address{"fee-1"}, []uint64{1000}, 1,
	)
	require.NoError(t, err)
	require.NoError(t, repo.SetRoyaltyRule(ctx, newRule))

	rule, err = repo.GetRoyaltyRule(ctx, key)
	require.NoError(t, err)
	require.Equal(t, *newRule, *rule)

	override := &domain.RoyaltyOverride{
		Collection: "collection", Resolver: "resolver", Operator: "owner",
	}
	require.NoError(t, repo.SetOverride(ctx, override))

	got, err := repo.GetOverride(ctx, "collection")
	require.NoError(t, err)
	require.Equal(t, *override, *got)

	overrides, err := repo.GetAllOverrides(ctx)
	require.NoError(t, err)
	require.Len(t, overrides, 1)

	require.NoError(t, repo.DeleteOverride(ctx, "collection"))
	got, err = repo.GetOverride(ctx, "collection")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestEventRepository(t *testing.T) {
	repo := newTestRepoManager(t).EventRepository()

	l1, _ := domain.NewListing(key, "seller", domain.NativeAsset(), 100, 1)
	l2, _ := domain.NewListing(otherKey, "seller", domain.NativeAsset(), 100, 1)

	require.NoError(t, repo.AddEvents(
		ctx,
		domain.NewSalePlacedEvent(l1, 1),
		domain.NewSalePlacedEvent(l2, 1),
		domain.NewSaleCancelledEvent(l1, "seller", 2),
	))

	events, err := repo.GetEventsForAsset(ctx, key)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.EventSalePlaced, events[0].Type)
	require.Equal(t, domain.EventSaleCancelled, events[1].Type)
	require.Equal(t, "100", events[0].Attributes["price"])

	all, err := repo.GetAllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestUnitOfWork(t *testing.T) {
	repoManager := newTestRepoManager(t)
	unit := uow.NewUnitOfWork(repoManager.Transactional())

	listing, err := domain.NewListing(key, "seller", domain.NativeAsset(), 100, 1)
	require.NoError(t, err)

	err = unit.Run(ctx, func(ctx context.Context) error {
		if err := repoManager.ListingRepository().AddListing(ctx, listing); err != nil {
			return err
		}
		// Visible within the transaction.
		if _, err := repoManager.ListingRepository().GetListing(ctx, key); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.EqualError(t, err, "boom")

	_, err = repoManager.ListingRepository().GetListing(ctx, key)
	require.ErrorIs(t, err, domain.ErrListingNotFound)

	err = unit.Run(ctx, func(ctx context.Context) error {
		return repoManager.ListingRepository().AddListing(ctx, listing)
	})
	require.NoError(t, err)

	_, err = repoManager.ListingRepository().GetListing(ctx, key)
	require.NoError(t, err)
}
