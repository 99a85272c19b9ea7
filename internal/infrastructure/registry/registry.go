// Package registry is an ownership ledger of non-fungible asset units, with
// per-unit approvals and per-collection operators, optionally persisted in a
// badger store.
package registry

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

var (
	ErrUnitNotFound = domain.NewError(
		domain.KindState, "UNIT_NOT_FOUND", "asset unit does not exist",
	)
	ErrUnitExists = domain.NewError(
		domain.KindState, "UNIT_EXISTS", "asset unit already minted",
	)
	ErrTransferNotAuthorized = domain.NewError(
		domain.KindAuthorization, "TRANSFER_NOT_AUTHORIZED",
		"transfer caller is not owner nor approved",
	)
	ErrTransferFromNotOwner = domain.NewError(
		domain.KindAuthorization, "TRANSFER_FROM_NOT_OWNER",
		"transfer from address is not the owner",
	)
	ErrTransferToZeroAddress = domain.NewError(
		domain.KindValue, "TRANSFER_TO_ZERO_ADDRESS",
		"transfer to the zero address",
	)
	ErrApproveToOwner = domain.NewError(
		domain.KindValue, "APPROVE_TO_OWNER", "approval to current owner",
	)
)

type unit struct {
	owner    domain.Address
	creator  domain.Address
	approved domain.Address
}

type operatorKey struct {
	collection domain.Address
	owner      domain.Address
	operator   domain.Address
}

// Registry implements ports.AssetRegistry and uow.Transactional. Changes
// made within a unit of work are staged in its transaction, visible to it
// only, and applied on commit.
type Registry struct {
	store *Store

	lock      sync.RWMutex
	units     map[domain.AssetKey]unit
	operators map[operatorKey]bool
}

// NewRegistry returns a registry whose state is kept in memory only.
func NewRegistry() *Registry {
	return &Registry{
		units:     make(map[domain.AssetKey]unit),
		operators: make(map[operatorKey]bool),
	}
}

// NewPersistentRegistry restores the state saved in store and writes every
// committed change to it.
func NewPersistentRegistry(store *Store) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("missing store")
	}

	units, operators, err := store.load()
	if err != nil {
		return nil, fmt.Errorf("loading registry state: %w", err)
	}
	return &Registry{store: store, units: units, operators: operators}, nil
}

// Mint creates a new unit owned by creator.
func (r *Registry) Mint(
	ctx context.Context, key domain.AssetKey, creator domain.Address,
) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if creator.IsZero() {
		return ErrTransferToZeroAddress
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	t := r.txOf(ctx)
	if _, ok := r.unit(t, key); ok {
		return ErrUnitExists
	}
	r.setUnit(t, key, unit{owner: creator, creator: creator})
	return nil
}

func (r *Registry) OwnerOf(
	ctx context.Context, key domain.AssetKey,
) (domain.Address, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	u, ok := r.unit(r.txOf(ctx), key)
	if !ok {
		return domain.ZeroAddress, ErrUnitNotFound
	}
	return u.owner, nil
}

func (r *Registry) CreatorOf(
	ctx context.Context, key domain.AssetKey,
) (domain.Address, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	u, ok := r.unit(r.txOf(ctx), key)
	if !ok {
		return domain.ZeroAddress, ErrUnitNotFound
	}
	return u.creator, nil
}

// GetApproved returns the address approved for the single unit.
func (r *Registry) GetApproved(
	ctx context.Context, key domain.AssetKey,
) (domain.Address, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	u, ok := r.unit(r.txOf(ctx), key)
	if !ok {
		return domain.ZeroAddress, ErrUnitNotFound
	}
	return u.approved, nil
}

// IsApprovedForAll returns whether operator can move every unit of owner in
// the collection, according to the committed state.
func (r *Registry) IsApprovedForAll(
	collection, owner, operator domain.Address,
) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.operators[operatorKey{collection, owner, operator}]
}

func (r *Registry) IsApprovedOrOwner(
	ctx context.Context, spender domain.Address, key domain.AssetKey,
) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	t := r.txOf(ctx)
	u, ok := r.unit(t, key)
	if !ok {
		return false, ErrUnitNotFound
	}
	return r.isApprovedOrOwner(t, spender, key, u), nil
}

// Approve grants spender the right to transfer the unit. Caller must be the
// owner or an operator of the owner. Passing the zero address clears the
// approval.
func (r *Registry) Approve(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	spender domain.Address,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	t := r.txOf(ctx)
	u, ok := r.unit(t, key)
	if !ok {
		return ErrUnitNotFound
	}
	if spender == u.owner {
		return ErrApproveToOwner
	}
	if caller != u.owner &&
		!r.operator(t, operatorKey{key.Collection, u.owner, caller}) {
		return ErrTransferNotAuthorized
	}

	u.approved = spender
	r.setUnit(t, key, u)
	return nil
}

// SetApprovalForAll grants or revokes operator the right to transfer every
// unit of owner in the collection.
func (r *Registry) SetApprovalForAll(
	ctx context.Context, collection, owner, operator domain.Address,
	approved bool,
) error {
	if owner == operator {
		return ErrApproveToOwner
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.setOperator(r.txOf(ctx), operatorKey{collection, owner, operator}, approved)
	return nil
}

// Transfer moves the unit and clears its single-unit approval.
func (r *Registry) Transfer(
	ctx context.Context, operator domain.Address, key domain.AssetKey,
	from, to domain.Address,
) error {
	if to.IsZero() {
		return ErrTransferToZeroAddress
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	t := r.txOf(ctx)
	u, ok := r.unit(t, key)
	if !ok {
		return ErrUnitNotFound
	}
	if u.owner != from {
		return ErrTransferFromNotOwner
	}
	if !r.isApprovedOrOwner(t, operator, key, u) {
		return ErrTransferNotAuthorized
	}

	u.owner = to
	u.approved = domain.ZeroAddress
	r.setUnit(t, key, u)
	return nil
}

// Begin implements uow.Transactional.
func (r *Registry) Begin() (uow.Tx, error) {
	return &tx{r: r}, nil
}

// ContextKey implements uow.ContextProvider.
func (r *Registry) ContextKey() interface{} {
	return txKey{r}
}

type txKey struct {
	r *Registry
}

func (r *Registry) txOf(ctx context.Context) *tx {
	t, _ := uow.TxFromContext(ctx, txKey{r})
	rt, _ := t.(*tx)
	return rt
}

func (r *Registry) unit(t *tx, key domain.AssetKey) (unit, bool) {
	if t != nil {
		if u, ok := t.units[key]; ok {
			return u, true
		}
	}
	u, ok := r.units[key]
	return u, ok
}

func (r *Registry) operator(t *tx, k operatorKey) bool {
	if t != nil {
		if approved, ok := t.operators[k]; ok {
			return approved
		}
	}
	return r.operators[k]
}

func (r *Registry) setUnit(t *tx, key domain.AssetKey, u unit) {
	if t != nil {
		if t.units == nil {
			t.units = make(map[domain.AssetKey]unit)
		}
		t.units[key] = u
		return
	}
	r.units[key] = u
	r.persist(map[domain.AssetKey]unit{key: u}, nil)
}

func (r *Registry) setOperator(t *tx, k operatorKey, approved bool) {
	if t != nil {
		if t.operators == nil {
			t.operators = make(map[operatorKey]bool)
		}
		t.operators[k] = approved
		return
	}
	r.applyOperator(k, approved)
	r.persist(nil, map[operatorKey]bool{k: approved})
}

func (r *Registry) applyOperator(k operatorKey, approved bool) {
	if !approved {
		delete(r.operators, k)
		return
	}
	r.operators[k] = true
}

func (r *Registry) isApprovedOrOwner(
	t *tx, spender domain.Address, key domain.AssetKey, u unit,
) bool {
	if spender.IsZero() {
		return false
	}
	return spender == u.owner || spender == u.approved ||
		r.operator(t, operatorKey{key.Collection, u.owner, spender})
}

func (r *Registry) persist(
	units map[domain.AssetKey]unit, operators map[operatorKey]bool,
) {
	if r.store == nil {
		return
	}
	if err := r.store.save(units, operators); err != nil {
		log.WithError(err).Error("failed to persist registry state")
	}
}

type tx struct {
	r         *Registry
	units     map[domain.AssetKey]unit
	operators map[operatorKey]bool
}

func (t *tx) Commit() error {
	r := t.r
	r.lock.Lock()
	defer r.lock.Unlock()

	for key, u := range t.units {
		r.units[key] = u
	}
	for k, approved := range t.operators {
		r.applyOperator(k, approved)
	}
	units, operators := t.units, t.operators
	t.units, t.operators = nil, nil

	if len(units) > 0 || len(operators) > 0 {
		r.persist(units, operators)
	}
	return nil
}

func (t *tx) Rollback() error {
	t.r.lock.Lock()
	defer t.r.lock.Unlock()

	t.units, t.operators = nil, nil
	return nil
}
