// Package royalty resolves the royalty fees owed when an asset unit is sold.
package royalty

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

// Registry is a royalty resolver keeping one rule per asset unit of any
// collection. Only who minted the unit and still owns it can set its rule.
type Registry struct {
	runner      *txn.Runner
	repoManager ports.RepoManager
	assets      ports.AssetRegistry
	clock       ports.Clock
}

func NewRegistry(
	runner *txn.Runner, repoManager ports.RepoManager,
	assets ports.AssetRegistry, clock ports.Clock,
) (*Registry, error) {
	if runner == nil {
		return nil, fmt.Errorf("missing runner")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if assets == nil {
		return nil, fmt.Errorf("missing asset registry")
	}
	if clock == nil {
		clock = ports.SystemClock()
	}
	return &Registry{runner, repoManager, assets, clock}, nil
}

// SetRoyalty adds or replaces the rule of the given unit.
func (r *Registry) SetRoyalty(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	receivers []domain.Address, ratiosInBp []uint64,
) (*domain.RoyaltyRule, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var rule *domain.RoyaltyRule
	if err := r.runner.Run(ctx, key, func(ctx context.Context) error {
		if err := r.checkRightsHolder(ctx, caller, key); err != nil {
			return err
		}

		now := r.clock.Now().Unix()
		newRule, err := domain.NewRoyaltyRule(key, caller, receivers, ratiosInBp, now)
		if err != nil {
			return err
		}
		if err := r.repoManager.RoyaltyRepository().SetRoyaltyRule(
			ctx, newRule,
		); err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewRoyaltySetEvent(newRule, now))
		rule = newRule
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("royalty set for %s", key)
	return rule, nil
}

// GetRule returns the rule of the given unit, nil if not set.
func (r *Registry) GetRule(
	ctx context.Context, key domain.AssetKey,
) (*domain.RoyaltyRule, error) {
	return r.repoManager.RoyaltyRepository().GetRoyaltyRule(ctx, key)
}

// GetRoyalty implements ports.RoyaltyResolver.
func (r *Registry) GetRoyalty(
	ctx context.Context, key domain.AssetKey, price uint64,
) (domain.FeeSplit, error) {
	rule, err := r.GetRule(ctx, key)
	if err != nil {
		return domain.FeeSplit{}, err
	}
	if rule == nil {
		return domain.FeeSplit{Remainder: price}, nil
	}
	return rule.Split(price)
}

func (r *Registry) checkRightsHolder(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
) error {
	creator, err := r.assets.CreatorOf(ctx, key)
	if err != nil {
		return err
	}
	owner, err := r.assets.OwnerOf(ctx, key)
	if err != nil {
		return err
	}
	if caller != creator || caller != owner {
		return domain.ErrNotCreatorOrOwner
	}
	return nil
}

// CollectionResolver is a resolver dedicated to a single collection.
type CollectionResolver struct {
	collection domain.Address
	registry   *Registry
}

func NewCollectionResolver(
	collection domain.Address, registry *Registry,
) (*CollectionResolver, error) {
	if collection.IsZero() {
		return nil, fmt.Errorf("missing collection")
	}
	if registry == nil {
		return nil, fmt.Errorf("missing royalty registry")
	}
	return &CollectionResolver{collection, registry}, nil
}

func (c *CollectionResolver) Collection() domain.Address {
	return c.collection
}

func (c *CollectionResolver) SetRoyalty(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	receivers []domain.Address, ratiosInBp []uint64,
) (*domain.RoyaltyRule, error) {
	if key.Collection != c.collection {
		return nil, domain.ErrUnknownCollection
	}
	return c.registry.SetRoyalty(ctx, caller, key, receivers, ratiosInBp)
}

func (c *CollectionResolver) GetRoyalty(
	ctx context.Context, key domain.AssetKey, price uint64,
) (domain.FeeSplit, error) {
	if key.Collection != c.collection {
		return domain.FeeSplit{}, domain.ErrUnknownCollection
	}
	return c.registry.GetRoyalty(ctx, key, price)
}
