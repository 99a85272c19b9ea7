package dbbadger

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type escrowRepositoryImpl struct {
	db *RepoManager
}

func (r escrowRepositoryImpl) AddEscrow(
	ctx context.Context, escrow *domain.Escrow,
) error {
	if err := r.db.insert(ctx, escrow.Key.String(), *escrow); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrEscrowExists
		}
		return err
	}
	return nil
}

func (r escrowRepositoryImpl) GetEscrow(
	ctx context.Context, key domain.AssetKey,
) (*domain.Escrow, error) {
	var escrow domain.Escrow
	if err := r.db.get(ctx, key.String(), &escrow); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, err
	}
	return &escrow, nil
}

func (r escrowRepositoryImpl) GetAllEscrows(
	ctx context.Context,
) ([]*domain.Escrow, error) {
	var rows []domain.Escrow
	if err := r.db.find(ctx, &rows, nil); err != nil {
		return nil, err
	}
	escrows := make([]*domain.Escrow, 0, len(rows))
	for i := range rows {
		escrows = append(escrows, &rows[i])
	}
	return escrows, nil
}

func (r escrowRepositoryImpl) DeleteEscrow(
	ctx context.Context, key domain.AssetKey,
) error {
	return r.db.delete(ctx, key.String(), domain.Escrow{})
}

type settlementRepositoryImpl struct {
	db *RepoManager
}

func (r settlementRepositoryImpl) AddSettlement(
	ctx context.Context, settlement *domain.Settlement,
) error {
	if err := r.db.insert(ctx, settlement.Key.String(), *settlement); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrSettlementExists
		}
		return err
	}
	return nil
}

func (r settlementRepositoryImpl) GetSettlement(
	ctx context.Context, key domain.AssetKey,
) (*domain.Settlement, error) {
	var settlement domain.Settlement
	if err := r.db.get(ctx, key.String(), &settlement); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, err
	}
	return &settlement, nil
}

func (r settlementRepositoryImpl) GetAllSettlements(
	ctx context.Context,
) ([]*domain.Settlement, error) {
	var rows []domain.Settlement
	if err := r.db.find(ctx, &rows, nil); err != nil {
		return nil, err
	}
	settlements := make([]*domain.Settlement, 0, len(rows))
	for i := range rows {
		settlements = append(settlements, &rows[i])
	}
	return settlements, nil
}

func (r settlementRepositoryImpl) DeleteSettlement(
	ctx context.Context, key domain.AssetKey,
) error {
	return r.db.delete(ctx, key.String(), domain.Settlement{})
}
