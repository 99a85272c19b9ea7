// Package testutil wires the engine services on top of in-memory
// collaborators for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/acl"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/auction"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/custody"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/escrow"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/exchange"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/ingress"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/royalty"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/settlement"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/registry"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/inmemory"
)

const (
	Engine          = domain.Address("engine")
	RouterOwner     = domain.Address("router-owner")
	RoyaltyRegistry = domain.Address("royalty-registry")
	Token           = domain.Address("usdt")

	ExpirationPeriod = int64(86400)
)

// StartTime is the initial time of every Env clock.
var StartTime = time.Unix(1700000000, 0)

// Env holds the whole engine wired on in-memory collaborators.
type Env struct {
	Ctx         context.Context
	RepoManager ports.RepoManager
	Assets      *registry.Registry
	Ledger      *ledger.Ledger
	Clock       *Clock
	Publisher   *Publisher
	Runner      *txn.Runner
	Custody     *custody.Custody
	Operators   *acl.Operators

	Royalty    *royalty.Registry
	Router     *royalty.Router
	Escrow     *escrow.Service
	Settlement *settlement.Service
	Exchange   *exchange.Service
	Auction    *auction.Service
	Ingress    *ingress.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	repoManager := inmemory.NewRepoManager()
	assets := registry.NewRegistry()
	payments := ledger.NewLedger(Engine, Token)
	clock := NewClock(StartTime)
	publisher := &Publisher{}

	runner, err := txn.NewRunner(repoManager, publisher, assets, payments)
	require.NoError(t, err)

	cust, err := custody.NewCustody(assets, payments, Engine)
	require.NoError(t, err)

	operators := acl.NewOperators(Engine)

	royaltySvc, err := royalty.NewRegistry(runner, repoManager, assets, clock)
	require.NoError(t, err)
	router, err := royalty.NewRouter(runner, repoManager, clock, RouterOwner)
	require.NoError(t, err)
	require.NoError(t, router.RegisterResolver(RoyaltyRegistry, royaltySvc))

	escrowSvc, err := escrow.NewService(runner, repoManager, cust, operators, clock)
	require.NoError(t, err)
	settlementSvc, err := settlement.NewService(
		runner, repoManager, cust, operators, clock,
	)
	require.NoError(t, err)

	exchangeSvc, err := exchange.NewService(
		runner, repoManager, cust, escrowSvc, router, operators, clock,
		ExpirationPeriod,
	)
	require.NoError(t, err)
	auctionSvc, err := auction.NewService(
		runner, repoManager, cust, settlementSvc, router, operators, clock,
		ExpirationPeriod,
	)
	require.NoError(t, err)

	ingressSvc, err := ingress.NewService(exchangeSvc, auctionSvc)
	require.NoError(t, err)
	payments.SetReceiver(Engine, ingressSvc)

	return &Env{
		Ctx:         context.Background(),
		RepoManager: repoManager,
		Assets:      assets,
		Ledger:      payments,
		Clock:       clock,
		Publisher:   publisher,
		Runner:      runner,
		Custody:     cust,
		Operators:   operators,
		Royalty:     royaltySvc,
		Router:      router,
		Escrow:      escrowSvc,
		Settlement:  settlementSvc,
		Exchange:    exchangeSvc,
		Auction:     auctionSvc,
		Ingress:     ingressSvc,
	}
}

// MintForSale mints the unit to owner and approves the engine to move it.
func (e *Env) MintForSale(t *testing.T, key domain.AssetKey, owner domain.Address) {
	t.Helper()

	require.NoError(t, e.Assets.Mint(e.Ctx, key, owner))
	require.NoError(t, e.Assets.Approve(e.Ctx, owner, key, Engine))
}

// Fund credits amount of asset to the account. For tokens, the engine is
// also approved to spend it.
func (e *Env) Fund(
	t *testing.T, asset domain.PaymentAsset, account domain.Address,
	amount uint64,
) {
	t.Helper()

	require.NoError(t, e.Ledger.Mint(e.Ctx, asset, account, amount))
	if !asset.IsNative() {
		allowance := e.Ledger.Allowance(asset.Token, account, Engine)
		require.NoError(t, e.Ledger.Approve(
			e.Ctx, asset.Token, account, Engine, allowance+amount,
		))
	}
}

// Balance returns the balance of the account.
func (e *Env) Balance(
	t *testing.T, asset domain.PaymentAsset, account domain.Address,
) uint64 {
	t.Helper()

	balance, err := e.Ledger.BalanceOf(e.Ctx, asset, account)
	require.NoError(t, err)
	return balance
}

// Owner returns the owner of the unit.
func (e *Env) Owner(t *testing.T, key domain.AssetKey) domain.Address {
	t.Helper()

	owner, err := e.Assets.OwnerOf(e.Ctx, key)
	require.NoError(t, err)
	return owner
}

// EnableRoyalty points the collection at the royalty registry.
func (e *Env) EnableRoyalty(t *testing.T, collection domain.Address) {
	t.Helper()

	require.NoError(t, e.Router.OverrideAddress(
		e.Ctx, RouterOwner, collection, RoyaltyRegistry,
	))
}

// Clock is a manually driven ports.Clock.
type Clock struct {
	lock sync.Mutex
	now  time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// Publisher records every published event.
type Publisher struct {
	lock   sync.Mutex
	events []domain.Event
}

func (p *Publisher) PublishEvents(_ context.Context, events ...domain.Event) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = append(p.events, events...)
}

func (p *Publisher) Events() []domain.Event {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]domain.Event{}, p.events...)
}

// Types returns the types of the published events in order.
func (p *Publisher) Types() []domain.EventType {
	p.lock.Lock()
	defer p.lock.Unlock()

	types := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// Reset forgets the recorded events.
func (p *Publisher) Reset() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = nil
}
