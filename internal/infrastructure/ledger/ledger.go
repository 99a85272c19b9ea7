// Package ledger is a payment ledger for the native currency and any number
// of fungible tokens, optionally persisted in a badger store.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

var (
	ErrInsufficientFunds = domain.NewError(
		domain.KindValue, "INSUFFICIENT_FUNDS", "transfer amount exceeds balance",
	)
	ErrInsufficientAllowance = domain.NewError(
		domain.KindValue, "INSUFFICIENT_ALLOWANCE", "transfer amount exceeds allowance",
	)
	ErrBalanceOverflow = domain.NewError(
		domain.KindValue, "BALANCE_OVERFLOW", "balance overflow",
	)
	ErrInvalidRecipient = domain.NewError(
		domain.KindValue, "INVALID_RECIPIENT", "transfer to the zero address",
	)
)

type balanceKey struct {
	asset string
	owner domain.Address
}

type allowanceKey struct {
	token   domain.Address
	owner   domain.Address
	spender domain.Address
}

// Ledger implements ports.PaymentChannel and uow.Transactional.
//
// Within a unit of work, credits stay private to the transaction until it
// commits, while debits reserve the amount on the committed balance. Other
// transactions can never spend uncommitted funds, and a rollback only
// releases reservations, leaving committed balances untouched.
type Ledger struct {
	engine domain.Address
	store  *Store

	lock               sync.RWMutex
	tokens             map[domain.Address]struct{}
	balances           map[balanceKey]uint64
	reserved           map[balanceKey]uint64
	allowances         map[allowanceKey]uint64
	reservedAllowances map[allowanceKey]uint64
	receivers          map[domain.Address]ports.TransferReceiver
}

// NewLedger returns a ledger whose state is kept in memory only.
func NewLedger(engine domain.Address, tokens ...domain.Address) *Ledger {
	l := &Ledger{
		engine:             engine,
		tokens:             make(map[domain.Address]struct{}),
		balances:           make(map[balanceKey]uint64),
		reserved:           make(map[balanceKey]uint64),
		allowances:         make(map[allowanceKey]uint64),
		reservedAllowances: make(map[allowanceKey]uint64),
		receivers:          make(map[domain.Address]ports.TransferReceiver),
	}
	for _, t := range tokens {
		l.tokens[t] = struct{}{}
	}
	return l
}

// NewPersistentLedger restores the state saved in store and writes every
// committed change to it.
func NewPersistentLedger(
	store *Store, engine domain.Address, tokens ...domain.Address,
) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("missing store")
	}

	l := NewLedger(engine, tokens...)
	balances, allowances, err := store.load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger state: %w", err)
	}
	l.balances = balances
	l.allowances = allowances
	l.store = store
	return l, nil
}

// RegisterToken makes the token usable as payment asset.
func (l *Ledger) RegisterToken(token domain.Address) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.tokens[token] = struct{}{}
}

// SetReceiver registers the receiver to notify for TransferAndCall
// addressed to the given account.
func (l *Ledger) SetReceiver(account domain.Address, r ports.TransferReceiver) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.receivers[account] = r
}

func (l *Ledger) IsSupported(asset domain.PaymentAsset) bool {
	if asset.IsNative() {
		return true
	}

	l.lock.RLock()
	defer l.lock.RUnlock()

	_, ok := l.tokens[asset.Token]
	return ok
}

// BalanceOf returns the spendable balance of owner. Within a unit of work
// it includes the credits of the transaction.
func (l *Ledger) BalanceOf(
	ctx context.Context, asset domain.PaymentAsset, owner domain.Address,
) (uint64, error) {
	if !l.IsSupported(asset) {
		return 0, domain.ErrUnsupportedPaymentAsset
	}

	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.available(l.txOf(ctx), balanceKey{asset.String(), owner}), nil
}

// Allowance returns how much spender can move on behalf of owner.
func (l *Ledger) Allowance(token, owner, spender domain.Address) uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()

	k := allowanceKey{token, owner, spender}
	return sub(l.allowances[k], l.reservedAllowances[k])
}

// Mint credits amount of asset to the given account.
func (l *Ledger) Mint(
	ctx context.Context, asset domain.PaymentAsset, to domain.Address,
	amount uint64,
) error {
	if !l.IsSupported(asset) {
		return domain.ErrUnsupportedPaymentAsset
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	t := l.txOf(ctx)
	k := balanceKey{asset.String(), to}
	if l.total(t, k) > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	if t != nil {
		t.credits[k] += amount
		return nil
	}
	l.balances[k] += amount
	l.persist(map[balanceKey]uint64{k: l.balances[k]}, nil)
	return nil
}

// Approve sets the amount of token spender can move on behalf of owner.
// Approvals are final even if ctx belongs to a unit of work.
func (l *Ledger) Approve(
	_ context.Context, token, owner, spender domain.Address, amount uint64,
) error {
	if !l.IsSupported(domain.TokenAsset(token)) {
		return domain.ErrUnsupportedPaymentAsset
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	k := allowanceKey{token, owner, spender}
	l.allowances[k] = amount
	l.persist(nil, map[allowanceKey]uint64{k: amount})
	return nil
}

// Transfer moves funds owned by from, which is the caller.
func (l *Ledger) Transfer(
	ctx context.Context, asset domain.PaymentAsset, from, to domain.Address,
	amount uint64,
) error {
	if !l.IsSupported(asset) {
		return domain.ErrUnsupportedPaymentAsset
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	return l.move(l.txOf(ctx), asset, from, to, amount)
}

// TransferActive moves funds on behalf of the engine. Native currency is
// modelled as value attached to the engine call, so it's debited directly.
// Tokens must have been approved to the engine unless the engine itself is
// the sender.
func (l *Ledger) TransferActive(
	ctx context.Context, asset domain.PaymentAsset, from, to domain.Address,
	amount uint64,
) error {
	if !l.IsSupported(asset) {
		return domain.ErrUnsupportedPaymentAsset
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	t := l.txOf(ctx)
	if asset.IsNative() || from == l.engine {
		return l.move(t, asset, from, to, amount)
	}

	k := allowanceKey{asset.Token, from, l.engine}
	if sub(l.allowances[k], l.reservedAllowances[k]) < amount {
		return ErrInsufficientAllowance
	}
	if err := l.move(t, asset, from, to, amount); err != nil {
		return err
	}
	if t != nil {
		l.reservedAllowances[k] += amount
		t.allowances[k] += amount
		return nil
	}
	l.allowances[k] -= amount
	l.persist(nil, map[allowanceKey]uint64{k: l.allowances[k]})
	return nil
}

// TransferAndCall pushes funds to the given account and synchronously
// notifies its registered receiver with the payload. The transfer is
// reverted if the receiver fails.
func (l *Ledger) TransferAndCall(
	ctx context.Context, asset domain.PaymentAsset, from, to domain.Address,
	amount uint64, payload []byte,
) error {
	if err := l.Transfer(ctx, asset, from, to, amount); err != nil {
		return err
	}

	l.lock.RLock()
	receiver, ok := l.receivers[to]
	inTx := l.txOf(ctx) != nil
	l.lock.RUnlock()
	if !ok {
		return nil
	}

	if err := receiver.OnTransferReceived(ctx, asset, from, amount, payload); err != nil {
		// The rollback of the unit of work drops the transfer.
		if inTx {
			return err
		}

		l.lock.Lock()
		defer l.lock.Unlock()

		if revertErr := l.move(nil, asset, to, from, amount); revertErr != nil {
			log.WithError(revertErr).Error("failed to revert transfer and call")
		}
		return err
	}
	return nil
}

// Begin implements uow.Transactional.
func (l *Ledger) Begin() (uow.Tx, error) {
	return &tx{
		l:          l,
		credits:    make(map[balanceKey]uint64),
		debits:     make(map[balanceKey]uint64),
		allowances: make(map[allowanceKey]uint64),
	}, nil
}

// ContextKey implements uow.ContextProvider.
func (l *Ledger) ContextKey() interface{} {
	return txKey{l}
}

type txKey struct {
	l *Ledger
}

func (l *Ledger) txOf(ctx context.Context) *tx {
	t, _ := uow.TxFromContext(ctx, txKey{l})
	lt, _ := t.(*tx)
	return lt
}

// available returns what can be spent from k by t, or by anyone if t is nil.
func (l *Ledger) available(t *tx, k balanceKey) uint64 {
	spendable := sub(l.balances[k], l.reserved[k])
	if t != nil {
		spendable += t.credits[k]
	}
	return spendable
}

// total returns the balance k would have if t committed now.
func (l *Ledger) total(t *tx, k balanceKey) uint64 {
	if t == nil {
		return l.balances[k]
	}
	return sub(l.balances[k], t.debits[k]) + t.credits[k]
}

func (l *Ledger) move(
	t *tx, asset domain.PaymentAsset, from, to domain.Address, amount uint64,
) error {
	if to.IsZero() {
		return ErrInvalidRecipient
	}
	fromKey := balanceKey{asset.String(), from}
	toKey := balanceKey{asset.String(), to}

	if l.available(t, fromKey) < amount {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	if l.total(t, toKey) > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}

	if t == nil {
		l.balances[fromKey] -= amount
		l.balances[toKey] += amount
		l.persist(map[balanceKey]uint64{
			fromKey: l.balances[fromKey],
			toKey:   l.balances[toKey],
		}, nil)
		return nil
	}

	// Funds credited by the same transaction are spent first, the rest is
	// reserved on the committed balance.
	fromCredit := t.credits[fromKey]
	if fromCredit >= amount {
		t.credits[fromKey] = fromCredit - amount
	} else {
		rest := amount - fromCredit
		t.credits[fromKey] = 0
		t.debits[fromKey] += rest
		l.reserved[fromKey] += rest
	}
	t.credits[toKey] += amount
	return nil
}

func (l *Ledger) persist(
	balances map[balanceKey]uint64, allowances map[allowanceKey]uint64,
) {
	if l.store == nil {
		return
	}
	if err := l.store.save(balances, allowances); err != nil {
		log.WithError(err).Error("failed to persist ledger state")
	}
}

type tx struct {
	l          *Ledger
	credits    map[balanceKey]uint64
	debits     map[balanceKey]uint64
	allowances map[allowanceKey]uint64
}

func (t *tx) Commit() error {
	l := t.l
	l.lock.Lock()
	defer l.lock.Unlock()

	balances := make(map[balanceKey]uint64)
	for k, amount := range t.debits {
		l.balances[k] = sub(l.balances[k], amount)
		l.release(k, amount)
		balances[k] = l.balances[k]
	}
	for k, amount := range t.credits {
		if amount <= 0 {
			continue
		}
		if l.balances[k] > math.MaxUint64-amount {
			log.WithField("owner", k.owner).Error("ledger balance overflow on commit")
			l.balances[k] = math.MaxUint64
		} else {
			l.balances[k] += amount
		}
		balances[k] = l.balances[k]
	}

	allowances := make(map[allowanceKey]uint64)
	for k, amount := range t.allowances {
		l.allowances[k] = sub(l.allowances[k], amount)
		l.releaseAllowance(k, amount)
		allowances[k] = l.allowances[k]
	}

	t.reset()
	l.persist(balances, allowances)
	return nil
}

func (t *tx) Rollback() error {
	l := t.l
	l.lock.Lock()
	defer l.lock.Unlock()

	for k, amount := range t.debits {
		l.release(k, amount)
	}
	for k, amount := range t.allowances {
		l.releaseAllowance(k, amount)
	}
	t.reset()
	return nil
}

func (t *tx) reset() {
	t.credits = make(map[balanceKey]uint64)
	t.debits = make(map[balanceKey]uint64)
	t.allowances = make(map[allowanceKey]uint64)
}

func (l *Ledger) release(k balanceKey, amount uint64) {
	if l.reserved[k] < amount {
		log.WithField("owner", k.owner).Error("ledger reservation underflow")
		delete(l.reserved, k)
		return
	}
	l.reserved[k] -= amount
	if l.reserved[k] == 0 {
		delete(l.reserved, k)
	}
}

func (l *Ledger) releaseAllowance(k allowanceKey, amount uint64) {
	l.reservedAllowances[k] = sub(l.reservedAllowances[k], amount)
	if l.reservedAllowances[k] == 0 {
		delete(l.reservedAllowances, k)
	}
}

func sub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
