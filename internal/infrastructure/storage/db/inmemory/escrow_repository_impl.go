package inmemory

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

type escrowRepositoryImpl struct {
	store *table[domain.Escrow]
}

// NewEscrowRepositoryImpl returns a new inmemory EscrowRepository
// implementation.
func NewEscrowRepositoryImpl() domain.EscrowRepository {
	return &escrowRepositoryImpl{newTable[domain.Escrow]()}
}

func (r *escrowRepositoryImpl) AddEscrow(
	ctx context.Context, escrow *domain.Escrow,
) error {
	if !r.store.insert(ctx, escrow.Key.String(), *escrow) {
		return domain.ErrEscrowExists
	}
	return nil
}

func (r *escrowRepositoryImpl) GetEscrow(
	_ context.Context, key domain.AssetKey,
) (*domain.Escrow, error) {
	escrow, ok := r.store.get(key.String())
	if !ok {
		return nil, domain.ErrEscrowNotFound
	}
	return &escrow, nil
}

func (r *escrowRepositoryImpl) GetAllEscrows(
	_ context.Context,
) ([]*domain.Escrow, error) {
	rows := r.store.all()
	escrows := make([]*domain.Escrow, 0, len(rows))
	for i := range rows {
		escrows = append(escrows, &rows[i])
	}
	return escrows, nil
}

func (r *escrowRepositoryImpl) DeleteEscrow(
	ctx context.Context, key domain.AssetKey,
) error {
	r.store.delete(ctx, key.String())
	return nil
}

type settlementRepositoryImpl struct {
	store *table[domain.Settlement]
}

// NewSettlementRepositoryImpl returns a new inmemory SettlementRepository
// implementation.
func NewSettlementRepositoryImpl() domain.SettlementRepository {
	return &settlementRepositoryImpl{newTable[domain.Settlement]()}
}

func (r *settlementRepositoryImpl) AddSettlement(
	ctx context.Context, settlement *domain.Settlement,
) error {
	if !r.store.insert(ctx, settlement.Key.String(), *settlement) {
		return domain.ErrSettlementExists
	}
	return nil
}

func (r *settlementRepositoryImpl) GetSettlement(
	_ context.Context, key domain.AssetKey,
) (*domain.Settlement, error) {
	settlement, ok := r.store.get(key.String())
	if !ok {
		return nil, domain.ErrSettlementNotFound
	}
	return &settlement, nil
}

func (r *settlementRepositoryImpl) GetAllSettlements(
	_ context.Context,
) ([]*domain.Settlement, error) {
	rows := r.store.all()
	settlements := make([]*domain.Settlement, 0, len(rows))
	for i := range rows {
		settlements = append(settlements, &rows[i])
	}
	return settlements, nil
}

func (r *settlementRepositoryImpl) DeleteSettlement(
	ctx context.Context, key domain.AssetKey,
) error {
	r.store.delete(ctx, key.String())
	return nil
}
