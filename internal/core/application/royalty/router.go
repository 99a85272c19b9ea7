package royalty

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

const (
	overrideCacheExpiration = 10 * time.Minute
	overrideCacheCleanup    = 20 * time.Minute
)

// Router forwards royalty queries to the resolver the collection has been
// pointed at by the router owner. Collections not overridden pay no royalty.
type Router struct {
	runner      *txn.Runner
	repoManager ports.RepoManager
	clock       ports.Clock
	owner       domain.Address

	lock      sync.RWMutex
	resolvers map[domain.Address]ports.RoyaltyResolver

	overrides *cache.Cache
}

func NewRouter(
	runner *txn.Runner, repoManager ports.RepoManager, clock ports.Clock,
	owner domain.Address,
) (*Router, error) {
	if runner == nil {
		return nil, fmt.Errorf("missing runner")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if owner.IsZero() {
		return nil, fmt.Errorf("missing router owner")
	}
	if clock == nil {
		clock = ports.SystemClock()
	}
	return &Router{
		runner:      runner,
		repoManager: repoManager,
		clock:       clock,
		owner:       owner,
		resolvers:   make(map[domain.Address]ports.RoyaltyResolver),
		overrides:   cache.New(overrideCacheExpiration, overrideCacheCleanup),
	}, nil
}

func (r *Router) Owner() domain.Address {
	return r.owner
}

// RegisterResolver makes the resolver available for overrides at the given
// address.
func (r *Router) RegisterResolver(
	addr domain.Address, resolver ports.RoyaltyResolver,
) error {
	if addr.IsZero() {
		return domain.ErrZeroAddress
	}
	if resolver == nil {
		return fmt.Errorf("missing royalty resolver")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.resolvers[addr] = resolver
	return nil
}

// Resolvers returns the addresses of the registered resolvers.
func (r *Router) Resolvers() []domain.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]domain.Address, 0, len(r.resolvers))
	for addr := range r.resolvers {
		list = append(list, addr)
	}
	sortAddresses(list)
	return list
}

// OverrideAddress points the collection at the given resolver. An empty
// resolver address removes the override.
func (r *Router) OverrideAddress(
	ctx context.Context, caller, collection, resolver domain.Address,
) error {
	if caller != r.owner {
		return domain.ErrNotRouterOwner
	}
	if collection.IsZero() {
		return domain.ErrZeroAddress
	}
	if !resolver.IsZero() && r.getResolver(resolver) == nil {
		return domain.ErrUnknownResolver
	}

	override := &domain.RoyaltyOverride{
		Collection: collection,
		Resolver:   resolver,
		Operator:   caller,
	}
	lockKey := domain.AssetKey{Collection: collection}
	defer r.overrides.Delete(collection.String())

	if err := r.runner.Run(ctx, lockKey, func(ctx context.Context) error {
		override.UpdatedAt = r.clock.Now().Unix()

		repo := r.repoManager.RoyaltyRepository()
		var err error
		if resolver.IsZero() {
			err = repo.DeleteOverride(ctx, collection)
		} else {
			err = repo.SetOverride(ctx, override)
		}
		if err != nil {
			return err
		}

		txn.Emit(ctx, domain.NewRoyaltyOverrideEvent(override, override.UpdatedAt))
		return nil
	}); err != nil {
		return err
	}

	log.Debugf("royalty resolver for collection %s set to %q", collection, resolver)
	return nil
}

// GetOverrideAddress returns the resolver address the collection is pointed
// at, or an empty one.
func (r *Router) GetOverrideAddress(
	ctx context.Context, collection domain.Address,
) (domain.Address, error) {
	if cached, ok := r.overrides.Get(collection.String()); ok {
		return cached.(domain.Address), nil
	}

	override, err := r.repoManager.RoyaltyRepository().GetOverride(ctx, collection)
	if err != nil {
		return domain.ZeroAddress, err
	}
	resolver := domain.ZeroAddress
	if override != nil {
		resolver = override.Resolver
	}

	// Reads within a running unit of work might see uncommitted changes.
	if !txn.IsRunning(ctx) {
		r.overrides.SetDefault(collection.String(), resolver)
	}
	return resolver, nil
}

// ListOverrides returns all the collections currently overridden.
func (r *Router) ListOverrides(
	ctx context.Context,
) ([]*domain.RoyaltyOverride, error) {
	return r.repoManager.RoyaltyRepository().GetAllOverrides(ctx)
}

// GetRoyalty implements ports.RoyaltyResolver.
func (r *Router) GetRoyalty(
	ctx context.Context, key domain.AssetKey, price uint64,
) (domain.FeeSplit, error) {
	addr, err := r.GetOverrideAddress(ctx, key.Collection)
	if err != nil {
		return domain.FeeSplit{}, err
	}
	if addr.IsZero() {
		return domain.FeeSplit{Remainder: price}, nil
	}

	resolver := r.getResolver(addr)
	if resolver == nil {
		return domain.FeeSplit{Remainder: price}, nil
	}
	return resolver.GetRoyalty(ctx, key, price)
}

func (r *Router) getResolver(addr domain.Address) ports.RoyaltyResolver {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.resolvers[addr]
}
