// Package exchange implements fixed-price sales. A matched sale opens an
// escrow rather than moving the unit to the buyer right away.
package exchange

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/acl"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/custody"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/escrow"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

// Service manages fixed-price listings. Every operation runs within the
// runner so that a buy and the escrow it opens are committed together.
type Service struct {
	runner           *txn.Runner
	repoManager      ports.RepoManager
	custody          *custody.Custody
	escrow           *escrow.Service
	royalty          ports.RoyaltyResolver
	operators        *acl.Operators
	clock            ports.Clock
	expirationPeriod int64
}

func NewService(
	runner *txn.Runner, repoManager ports.RepoManager,
	custody *custody.Custody, escrowSvc *escrow.Service,
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
	if escrowSvc == nil {
		return nil, fmt.Errorf("missing escrow service")
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
		runner, repoManager, custody, escrowSvc, royalty, operators, clock,
		expirationPeriod,
	}, nil
}

// PutOnSale lists the unit for the given price. The caller must be owner or
// approved and the engine must be approved to move the unit.
func (s *Service) PutOnSale(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, price uint64,
) (*domain.Listing, error) {
	if price <= 0 {
		return nil, domain.ErrZeroPrice
	}

	var listing *domain.Listing
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		seller, err := s.custody.CheckOffer(ctx, caller, key, asset)
		if err != nil {
			return err
		}
		if err := s.checkNotAuctioned(ctx, key); err != nil {
			return err
		}
		if err := custody.CheckNoPendingPayout(ctx, s.repoManager, key); err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		l, err := domain.NewListing(key, seller, asset, price, now)
		if err != nil {
			return err
		}
		if err := s.repoManager.ListingRepository().AddListing(ctx, l); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewSalePlacedEvent(l, now))
		listing = l
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("%s put on sale for %d %s", key, price, asset)
	return listing, nil
}

// CancelSale removes the listing. Only the seller or an operator can cancel.
func (s *Service) CancelSale(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
) error {
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		repo := s.repoManager.ListingRepository()
		l, err := repo.GetListing(ctx, key)
		if err != nil {
			return err
		}
		if err := l.CanBeCancelledBy(
			caller, s.operators.IsOperator(caller),
		); err != nil {
			return err
		}
		if err := repo.DeleteListing(ctx, key); err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		txn.Emit(ctx, domain.NewSaleCancelledEvent(l, caller, now))
		return nil
	}); err != nil {
		return err
	}

	log.Debugf("sale cancelled for %s", key)
	return nil
}

// Buy pulls the payment from the caller into custody and opens an escrow for
// the listed unit.
func (s *Service) Buy(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, amount uint64,
) (*domain.Escrow, error) {
	return s.buy(ctx, caller, key, asset, amount, true)
}

// BuyWithHeldFunds is like Buy but for payments already pushed to the
// custody account.
func (s *Service) BuyWithHeldFunds(
	ctx context.Context, buyer domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, amount uint64,
) (*domain.Escrow, error) {
	return s.buy(ctx, buyer, key, asset, amount, false)
}

func (s *Service) GetSale(
	ctx context.Context, key domain.AssetKey,
) (*domain.Listing, error) {
	return s.repoManager.ListingRepository().GetListing(ctx, key)
}

func (s *Service) ListSales(ctx context.Context) ([]*domain.Listing, error) {
	return s.repoManager.ListingRepository().GetAllListings(ctx)
}

func (s *Service) buy(
	ctx context.Context, buyer domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset, amount uint64, deposit bool,
) (*domain.Escrow, error) {
	var escrow *domain.Escrow
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		repo := s.repoManager.ListingRepository()
		l, err := repo.GetListing(ctx, key)
		if err != nil {
			return err
		}
		if err := l.Match(asset, amount); err != nil {
			return err
		}
		if err := s.custody.CheckSeller(ctx, key, l.Seller); err != nil {
			return err
		}

		if deposit {
			if err := s.custody.Deposit(ctx, asset, buyer, amount); err != nil {
				return err
			}
		}

		split, err := s.royalty.GetRoyalty(ctx, key, l.Price)
		if err != nil {
			return err
		}
		if err := repo.DeleteListing(ctx, key); err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		txn.Emit(ctx, domain.NewSaleMatchedEvent(l, buyer, now))

		payout := domain.NewPayout(key, l.Seller, buyer, asset, l.Price, split)
		e, err := s.escrow.OpenEscrow(
			ctx, s.custody.Engine(), payout, now+s.expirationPeriod,
		)
		if err != nil {
			return err
		}
		escrow = e
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("%s sold to %s", key, buyer)
	return escrow, nil
}

func (s *Service) checkNotAuctioned(ctx context.Context, key domain.AssetKey) error {
	_, err := s.repoManager.AuctionRepository().GetAuction(ctx, key)
	if err == nil {
		return domain.ErrAlreadyListed
	}
	if errors.Is(err, domain.ErrAuctionNotFound) {
		return nil
	}
	return err
}
