// Package escrow holds the payment of fixed-price trades until the asset unit
// is handed over to the buyer.
package escrow

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

// Service keeps the escrows opened by matched sales until they are closed
// or revoked.
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

// OpenEscrow records a new escrow for the given payout. Only operators can
// open escrows and the price must be already held in custody.
func (s *Service) OpenEscrow(
	ctx context.Context, caller domain.Address, payout domain.Payout,
	expiration int64,
) (*domain.Escrow, error) {
	if !s.operators.IsOperator(caller) {
		return nil, domain.ErrNotOperator
	}

	var escrow *domain.Escrow
	if err := s.runner.Run(ctx, payout.Key, func(ctx context.Context) error {
		now := s.clock.Now().Unix()
		e, err := domain.NewEscrow(payout, expiration, now)
		if err != nil {
			return err
		}
		if err := s.custody.CheckHeld(ctx, e.PaymentAsset, e.Price); err != nil {
			return err
		}
		if err := s.repoManager.EscrowRepository().AddEscrow(ctx, e); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewEscrowOpenedEvent(e, now))
		escrow = e
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("escrow opened for %s", payout.Key)
	return escrow, nil
}

// RevokeEscrow cancels the trade before expiration. The unit stays with, or
// goes back to, the seller and the buyer gets the full price back.
func (s *Service) RevokeEscrow(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
) error {
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		repo := s.repoManager.EscrowRepository()
		e, err := repo.GetEscrow(ctx, key)
		if err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		if err := e.CanBeRevokedBy(
			caller, s.operators.IsOperator(caller), now,
		); err != nil {
			return err
		}

		if err := s.custody.MoveAsset(ctx, key, e.Seller); err != nil {
			return err
		}
		if err := s.custody.Withdraw(
			ctx, e.PaymentAsset, e.Buyer, e.Price,
		); err != nil {
			return err
		}
		if err := repo.DeleteEscrow(ctx, key); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewEscrowRevokedEvent(e, caller, now))
		return nil
	}); err != nil {
		return err
	}

	log.Debugf("escrow revoked for %s", key)
	return nil
}

// CloseEscrow completes the trade once expired. Anyone can close it.
func (s *Service) CloseEscrow(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
) error {
	if err := s.runner.Run(ctx, key, func(ctx context.Context) error {
		repo := s.repoManager.EscrowRepository()
		e, err := repo.GetEscrow(ctx, key)
		if err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		if err := e.CanBeClosed(now); err != nil {
			return err
		}

		if err := s.custody.Release(ctx, e.Payout); err != nil {
			return err
		}
		if err := repo.DeleteEscrow(ctx, key); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewEscrowClosedEvent(e, caller, now))
		return nil
	}); err != nil {
		return err
	}

	log.Debugf("escrow closed for %s", key)
	return nil
}

func (s *Service) GetEscrow(
	ctx context.Context, key domain.AssetKey,
) (*domain.Escrow, error) {
	return s.repoManager.EscrowRepository().GetEscrow(ctx, key)
}

func (s *Service) ListEscrows(ctx context.Context) ([]*domain.Escrow, error) {
	return s.repoManager.EscrowRepository().GetAllEscrows(ctx)
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
