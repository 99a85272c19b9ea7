// Package auction implements open-bid sales. Outstanding bids are held in
// custody and a finalized auction becomes a settlement.
package auction

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/acl"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/custody"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/settlement"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

// Service places, bids on and finalizes auctions, one per asset unit.
type Service struct {
	runner           *txn.Runner
	repoManager      ports.RepoManager
	custody          *custody.Custody
	settlement       *settlement.Service
	royalty          ports.RoyaltyResolver
	operators        *acl.Operators
	clock            ports.Clock
	expirationPeriod int64
}

func NewService(
	runner *txn.Runner, repoManager ports.RepoManager,
	custody *custody.Custody, settlementSvc *settlement.Service,
	royalty ports.RoyaltyResolver, operators *acl.Operators, clock ports.Clock,
	expirationPeriod int64,
) (*Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("missing runner")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if custody == nil {
		return nil, fmt.Errorf("missing custody")
	}
	if settlementSvc == nil {
		return nil, fmt.Errorf("missing settlement service")
	}
	if royalty == nil {
		return nil, fmt.Errorf("missing royalty resolver")
	}
	if operators == nil {
		return nil, fmt.Errorf("missing operators")
	}
	if expirationPeriod <= 0 {
		return nil, fmt.Errorf("expiration period must be greater than zero")
	}
	if clock == nil {
		clock = ports.SystemClock()
	}
	return &Service{
		runner, repoManager, custody, settlementSvc, royalty, operators, clock,
		expirationPeriod,
	}, nil
}

// PlaceAuction opens an auction for the unit starting from initialPrice. It
// expires after the configured period from now.
func (s *Service) PlaceAuction(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, initialPrice uint64,
) (*domain.Auction, error) {
	if initialPrice <= 0 {
		return nil, domain.ErrZeroPrice
	}

	var auction *domain.Auction
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		seller, err := s.custody.CheckOffer(ctx, caller, key, asset)
		if err != nil {
			return err
		}
		if err := s.checkNotListed(ctx, key); err != nil {
			return err
		}
		if err := custody.CheckNoPendingPayout(ctx, s.repoManager, key); err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		a, err := domain.NewAuction(
			key, seller, asset, initialPrice, now, now+s.expirationPeriod,
		)
		if err != nil {
			return err
		}
		if err := s.repoManager.AuctionRepository().AddAuction(ctx, a); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewAuctionPlacedEvent(a, now))
		auction = a
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("auction placed for %s", key)
	return auction, nil
}

// CancelAuction removes the auction and refunds the current bidder, if any.
// Only the seller or an operator can cancel.
func (s *Service) CancelAuction(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
) error {
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		repo := s.repoManager.AuctionRepository()
		a, err := repo.GetAuction(ctx, key)
		if err != nil {
			return err
		}
		if err := a.CanBeCancelledBy(
			caller, s.operators.IsOperator(caller),
		); err != nil {
			return err
		}

		if a.HasBidder() {
			if err := s.custody.Withdraw(
				ctx, a.PaymentAsset, a.Bidder, a.BidPrice,
			); err != nil {
				return err
			}
		}
		if err := repo.DeleteAuction(ctx, key); err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		txn.Emit(ctx, domain.NewAuctionCancelledEvent(a, caller, now))
		return nil
	}); err != nil {
		return err
	}

	log.Debugf("auction cancelled for %s", key)
	return nil
}

// Bid pulls amount from the caller into custody and makes it the current bid.
// The previous bidder is refunded before the new bid is recorded.
func (s *Service) Bid(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, amount uint64,
) (*domain.Auction, error) {
	return s.bid(ctx, caller, key, asset, amount, true)
}

// BidWithHeldFunds is like Bid but for payments already pushed to the
// custody account.
func (s *Service) BidWithHeldFunds(
	ctx context.Context, bidder domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, amount uint64,
) (*domain.Auction, error) {
	return s.bid(ctx, bidder, key, asset, amount, false)
}

// FinalizeAuction closes an expired auction with a bidder. The unit is moved
// into custody and a settlement is added for the current bid, less the
// royalty fees.
func (s *Service) FinalizeAuction(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
) (*domain.Settlement, error) {
	var settlement *domain.Settlement
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		repo := s.repoManager.AuctionRepository()
		a, err := repo.GetAuction(ctx, key)
		if err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		if err := a.CanBeFinalizedBy(
			caller, s.operators.IsOperator(caller), now,
		); err != nil {
			return err
		}

		split, err := s.royalty.GetRoyalty(ctx, key, a.BidPrice)
		if err != nil {
			return err
		}
		if err := s.custody.CheckSeller(ctx, key, a.Seller); err != nil {
			return err
		}
		if err := s.custody.MoveAsset(ctx, key, s.custody.Engine()); err != nil {
			return err
		}
		if err := repo.DeleteAuction(ctx, key); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewAuctionFinalizedEvent(a, now))

		payout := domain.NewPayout(
			key, a.Seller, a.Bidder, a.PaymentAsset, a.BidPrice, split,
		)
		st, err := s.settlement.AddSettlement(ctx, s.custody.Engine(), payout)
		if err != nil {
			return err
		}
		settlement = st
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("auction finalized for %s", key)
	return settlement, nil
}

func (s *Service) GetAuction(
	ctx context.Context, key domain.AssetKey,
) (*domain.Auction, error) {
	return s.repoManager.AuctionRepository().GetAuction(ctx, key)
}

func (s *Service) ListAuctions(ctx context.Context) ([]*domain.Auction, error) {
	return s.repoManager.AuctionRepository().GetAllAuctions(ctx)
}

func (s *Service) bid(
	ctx context.Context, bidder domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, amount uint64, deposit bool,
) (*domain.Auction, error) {
	var auction *domain.Auction
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		now := s.clock.Now().Unix()
		return s.repoManager.AuctionRepository().UpdateAuction(
			ctx, key, func(a *domain.Auction) (*domain.Auction, error) {
				prevBidder, prevBid, err := a.Bid(bidder, asset, amount, now)
				if err != nil {
					return nil, err
				}

				if deposit {
					if err := s.custody.Deposit(ctx, asset, bidder, amount); err != nil {
						return nil, err
					}
				}
				if !prevBidder.IsZero() {
					if err := s.custody.Withdraw(
						ctx, asset, prevBidder, prevBid,
					); err != nil {
						return nil, err
					}
					txn.Emit(ctx, domain.NewAuctionBidRefundedEvent(
						key, prevBidder, prevBid, now,
					))
				}

				txn.Emit(ctx, domain.NewAuctionBidEvent(a, now))
				auction = a
				return a, nil
			},
		)
	}); err != nil {
		return nil, err
	}

	log.Debugf("new bid of %d for %s", amount, key)
	return auction, nil
}

func (s *Service) checkNotListed(ctx context.Context, key domain.AssetKey) error {
	_, err := s.repoManager.ListingRepository().GetListing(ctx, key)
	if err == nil {
		return domain.ErrAlreadyListed
	}
	if errors.Is(err, domain.ErrListingNotFound) {
		return nil
	}
	return err
}
