package custody

import (
	"context"
	"errors"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

// CheckNoPendingPayout fails if an escrow or a settlement is still open for
// the given unit. While one of them is open a new offer can't be placed,
// since the seller could otherwise move the unit away from the payout.
func CheckNoPendingPayout(
	ctx context.Context, repoManager ports.RepoManager, key domain.AssetKey,
) error {
	_, err := repoManager.EscrowRepository().GetEscrow(ctx, key)
	if err == nil {
		return domain.ErrEscrowExists
	}
	if !errors.Is(err, domain.ErrEscrowNotFound) {
		return err
	}

	_, err = repoManager.SettlementRepository().GetSettlement(ctx, key)
	if err == nil {
		return domain.ErrSettlementExists
	}
	if !errors.Is(err, domain.ErrSettlementNotFound) {
		return err
	}
	return nil
}
