// Package settlement holds the outcome of finalized auctions until the unit is
// handed over to the winning bidder. Settlements can't be revoked.
package settlement

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/acl"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/custody"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

// Service keeps the non revocable payouts of finalized auctions until an
// operator closes them.
type Service struct {
	runner      *txn.Runner
	repoManager ports.RepoManager
	custody     *custody.Custody
	operators   *acl.Operators
	clock       ports.Clock
}

func NewService(
	runner *txn.Runner, repoManager ports.RepoManager,
	custody *custody.Custody, operators *acl.Operators, clock ports.Clock,
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
	if operators == nil {
		return nil, fmt.Errorf("missing operators")
	}
	if clock == nil {
		clock = ports.SystemClock()
	}
	return &Service{runner, repoManager, custody, operators, clock}, nil
}

// AddSettlement records the given payout. Only operators can add settlements
// and the price must be already held in custody.
func (s *Service) AddSettlement(
	ctx context.Context, caller domain.Address, payout domain.Payout,
) (*domain.Settlement, error) {
	if !s.operators.IsOperator(caller) {
		return nil, domain.ErrNotOperator
	}

	var settlement *domain.Settlement
	if err := s.runner.Run(ctx, payout.Key, func(ctx context.Context) error {
		now := s.clock.Now().Unix()
		st, err := domain.NewSettlement(payout, now)
		if err != nil {
			return err
		}
		if err := s.custody.CheckHeld(ctx, st.PaymentAsset, st.Price); err != nil {
			return err
		}
		if err := s.repoManager.SettlementRepository().AddSettlement(
			ctx, st,
		); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewSettlementAddedEvent(st, now))
		settlement = st
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("settlement added for %s", payout.Key)
	return settlement, nil
}

// CloseSettlement hands the unit over to the buyer and pays fee receivers
// and seller. Anyone can close a settlement at any time.
func (s *Service) CloseSettlement(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
) error {
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		repo := s.repoManager.SettlementRepository()
		st, err := repo.GetSettlement(ctx, key)
		if err != nil {
			return err
		}

		if err := s.custody.Release(ctx, st.Payout); err != nil {
			return err
		}
		if err := repo.DeleteSettlement(ctx, key); err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		txn.Emit(ctx, domain.NewSettlementClosedEvent(st, caller, now))
		return nil
	}); err != nil {
		return err
	}

	log.Debugf("settlement closed for %s", key)
	return nil
}

func (s *Service) GetSettlement(
	ctx context.Context, key domain.AssetKey,
) (*domain.Settlement, error) {
	return s.repoManager.SettlementRepository().GetSettlement(ctx, key)
}

func (s *Service) ListSettlements(
	ctx context.Context,
) ([]*domain.Settlement, error) {
	return s.repoManager.SettlementRepository().GetAllSettlements(ctx)
}

func (s *Service) AddOperator(_ context.Context, caller, addr domain.Address) error {
	return s.operators.Add(caller, addr)
}

func (s *Service) RemoveOperator(
	_ context.Context, caller, addr domain.Address,
) error {
	return s.operators.Remove(caller, addr)
}

// ListOperators returns the addresses allowed to act as operators.
func (s *Service) ListOperators() []domain.Address {
	return s.operators.List()
}
