package inmemory

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

type royaltyRepositoryImpl struct {
	rules     *table[domain.RoyaltyRule]
	overrides *table[domain.RoyaltyOverride]
}

// NewRoyaltyRepositoryImpl returns a new inmemory RoyaltyRepository
// implementation.
func NewRoyaltyRepositoryImpl() domain.RoyaltyRepository {
	return &royaltyRepositoryImpl{
		newTable[domain.RoyaltyRule](), newTable[domain.RoyaltyOverride](),
	}
}

func (r *royaltyRepositoryImpl) GetRoyaltyRule(
	_ context.Context, key domain.AssetKey,
) (*domain.RoyaltyRule, error) {
	rule, ok := r.rules.get(key.String())
	if !ok {
		return nil, nil
	}
	return &rule, nil
}

func (r *royaltyRepositoryImpl) SetRoyaltyRule(
	ctx context.Context, rule *domain.RoyaltyRule,
) error {
	r.rules.upsert(ctx, rule.Key.String(), *rule)
	return nil
}

func (r *royaltyRepositoryImpl) GetOverride(
	_ context.Context, collection domain.Address,
) (*domain.RoyaltyOverride, error) {
	override, ok := r.overrides.get(collection.String())
	if !ok {
		return nil, nil
	}
	return &override, nil
}

func (r *royaltyRepositoryImpl) GetAllOverrides(
	_ context.Context,
) ([]*domain.RoyaltyOverride, error) {
	rows := r.overrides.all()
	overrides := make([]*domain.RoyaltyOverride, 0, len(rows))
	for i := range rows {
		overrides = append(overrides, &rows[i])
	}
	return overrides, nil
}

func (r *royaltyRepositoryImpl) SetOverride(
	ctx context.Context, override *domain.RoyaltyOverride,
) error {
	r.overrides.upsert(ctx, override.Collection.String(), *override)
	return nil
}

func (r *royaltyRepositoryImpl) DeleteOverride(
	ctx context.Context, collection domain.Address,
) error {
	r.overrides.delete(ctx, collection.String())
	return nil
}
