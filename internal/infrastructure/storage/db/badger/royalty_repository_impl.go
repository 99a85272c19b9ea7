package dbbadger

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type royaltyRepositoryImpl struct {
	db *RepoManager
}

func (r royaltyRepositoryImpl) GetRoyaltyRule(
	ctx context.Context, key domain.AssetKey,
) (*domain.RoyaltyRule, error) {
	var rule domain.RoyaltyRule
	if err := r.db.get(ctx, key.String(), &rule); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r royaltyRepositoryImpl) SetRoyaltyRule(
	ctx context.Context, rule *domain.RoyaltyRule,
) error {
	return r.db.upsert(ctx, rule.Key.String(), *rule)
}

func (r royaltyRepositoryImpl) GetOverride(
	ctx context.Context, collection domain.Address,
) (*domain.RoyaltyOverride, error) {
	var override domain.RoyaltyOverride
	if err := r.db.get(ctx, collection.String(), &override); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}

func (r royaltyRepositoryImpl) GetAllOverrides(
	ctx context.Context,
) ([]*domain.RoyaltyOverride, error) {
	var rows []domain.RoyaltyOverride
	query := badgerhold.Where("Collection").Ne(domain.ZeroAddress).
		SortBy("Collection")
	if err := r.db.find(ctx, &rows, query); err != nil {
		return nil, err
	}
	overrides := make([]*domain.RoyaltyOverride, 0, len(rows))
	for i := range rows {
		overrides = append(overrides, &rows[i])
	}
	return overrides, nil
}

func (r royaltyRepositoryImpl) SetOverride(
	ctx context.Context, override *domain.RoyaltyOverride,
) error {
	return r.db.upsert(ctx, override.Collection.String(), *override)
}

func (r royaltyRepositoryImpl) DeleteOverride(
	ctx context.Context, collection domain.Address,
) error {
	return r.db.delete(ctx, collection.String(), domain.RoyaltyOverride{})
}
