package inmemory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

var (
	ctx = context.Background()
	key = domain.NewAssetKey("collection", "1")
)

func TestListingRepository(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	repo := repoManager.ListingRepository()

	listing, err := domain.NewListing(key, "seller", domain.NativeAsset(), 100, 1)
	require.NoError(t, err)

	require.NoError(t, repo.AddListing(ctx, listing))
	require.ErrorIs(t, repo.AddListing(ctx, listing), domain.ErrAlreadyListed)

	got, err := repo.GetListing(ctx, key)
	require.NoError(t, err)
	require.Equal(t, *listing, *got)

	all, err := repo.GetAllListings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, repo.DeleteListing(ctx, key))
	_, err = repo.GetListing(ctx, key)
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestAuctionRepositoryUpdate(t *testing.T) {
	repo := inmemory.NewRepoManager().AuctionRepository()

	auction, err := domain.NewAuction(key, "seller", domain.NativeAsset(), 10, 1, 100)
	require.NoError(t, err)
	require.NoError(t, repo.AddAuction(ctx, auction))

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

	err = repo.UpdateAuction(ctx, domain.NewAssetKey("collection", "2"), nil)
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func TestRepositoriesRollback(t *testing.T) {
	repoManager := inmemory.NewRepoManager()
	unit := uow.NewUnitOfWork(repoManager.Transactional())

	listing, err := domain.NewListing(key, "seller", domain.NativeAsset(), 100, 1)
	require.NoError(t, err)
	require.NoError(t, repoManager.ListingRepository().AddListing(ctx, listing))

	err = unit.Run(ctx, func(ctx context.Context) error {
		if err := repoManager.ListingRepository().DeleteListing(ctx, key); err != nil {
			return err
		}
		if err := repoManager.RoyaltyRepository().SetRoyaltyRule(
			ctx, &domain.RoyaltyRule{Key: key, RightsHolder: "creator"},
		); err != nil {
			return err
		}
		if err := repoManager.EventRepository().AddEvents(
			ctx, domain.NewSaleCancelledEvent(listing, "seller", 2),
		); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	_, err = repoManager.ListingRepository().GetListing(ctx, key)
	require.NoError(t, err)

	rule, err := repoManager.RoyaltyRepository().GetRoyaltyRule(ctx, key)
	require.NoError(t, err)
	require.Nil(t, rule)

	events, err := repoManager.EventRepository().GetAllEvents(ctx)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestEventRepository(t *testing.T) {
	repo := inmemory.NewRepoManager().EventRepository()
	otherKey := domain.NewAssetKey("collection", "2")

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
	require.Less(t, events[0].Seq, events[1].Seq)
}
