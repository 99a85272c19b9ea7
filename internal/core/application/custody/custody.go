// Package custody moves asset units and funds in and out of the engine
// custody account. It's the only way engine services touch the registry and
// the payment channel.
package custody

import (
	"context"
	"fmt"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

type Custody struct {
	registry ports.AssetRegistry
	payments ports.PaymentChannel
	engine   domain.Address
}

func NewCustody(
	registry ports.AssetRegistry, payments ports.PaymentChannel,
	engine domain.Address,
) (*Custody, error) {
	if registry == nil {
		return nil, fmt.Errorf("missing asset registry")
	}
	if payments == nil {
		return nil, fmt.Errorf("missing payment channel")
	}
	if engine.IsZero() {
		return nil, fmt.Errorf("missing engine address")
	}
	return &Custody{registry, payments, engine}, nil
}

// Engine returns the custody account address.
func (c *Custody) Engine() domain.Address {
	return c.engine
}

func (c *Custody) Registry() ports.AssetRegistry {
	return c.registry
}

// CheckOffer makes sure that caller can put the given unit on sale for the
// given payment asset and returns the current owner, that is the seller.
func (c *Custody) CheckOffer(
	ctx context.Context, caller domain.Address, key domain.AssetKey,
	asset domain.PaymentAsset,
) (domain.Address, error) {
	if err := key.Validate(); err != nil {
		return domain.ZeroAddress, err
	}

	ok, err := c.registry.IsApprovedOrOwner(ctx, caller, key)
	if err != nil {
		return domain.ZeroAddress, err
	}
	if !ok {
		return domain.ZeroAddress, domain.ErrNotOwner
	}
	if !c.payments.IsSupported(asset) {
		return domain.ZeroAddress, domain.ErrUnsupportedPaymentAsset
	}
	if err := c.checkEngineApproval(ctx, key); err != nil {
		return domain.ZeroAddress, err
	}
	return c.registry.OwnerOf(ctx, key)
}

// CheckSeller makes sure that the seller of an offer still owns the unit and
// that the engine is still approved to move it.
func (c *Custody) CheckSeller(
	ctx context.Context, key domain.AssetKey, seller domain.Address,
) error {
	owner, err := c.registry.OwnerOf(ctx, key)
	if err != nil {
		return err
	}
	if owner != seller {
		return domain.ErrNotOwner
	}
	return c.checkEngineApproval(ctx, key)
}

// Deposit pulls amount from the given account into custody.
func (c *Custody) Deposit(
	ctx context.Context, asset domain.PaymentAsset, from domain.Address,
	amount uint64,
) error {
	return c.payments.TransferActive(ctx, asset, from, c.engine, amount)
}

// Withdraw sends amount from custody to the given account.
func (c *Custody) Withdraw(
	ctx context.Context, asset domain.PaymentAsset, to domain.Address,
	amount uint64,
) error {
	if amount <= 0 {
		return nil
	}
	return c.payments.TransferActive(ctx, asset, c.engine, to, amount)
}

// CheckHeld returns ErrPaymentNotHeld if custody holds less than amount of
// the given asset.
func (c *Custody) CheckHeld(
	ctx context.Context, asset domain.PaymentAsset, amount uint64,
) error {
	if !c.payments.IsSupported(asset) {
		return domain.ErrUnsupportedPaymentAsset
	}
	balance, err := c.payments.BalanceOf(ctx, asset, c.engine)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf(
			"%w: required %d, held %d", domain.ErrPaymentNotHeld, amount, balance,
		)
	}
	return nil
}

// MoveAsset transfers the unit from its current owner to the given account
// using the engine approval. It's a no-op if the account already owns it.
func (c *Custody) MoveAsset(
	ctx context.Context, key domain.AssetKey, to domain.Address,
) error {
	owner, err := c.registry.OwnerOf(ctx, key)
	if err != nil {
		return err
	}
	if owner == to {
		return nil
	}
	return c.registry.Transfer(ctx, c.engine, key, owner, to)
}

// Release hands the unit over to the buyer, pays every fee receiver its
// amount and the seller the remainder.
func (c *Custody) Release(ctx context.Context, payout domain.Payout) error {
	if err := c.MoveAsset(ctx, payout.Key, payout.Buyer); err != nil {
		return err
	}
	for i, receiver := range payout.FeeReceivers {
		if err := c.Withdraw(
			ctx, payout.PaymentAsset, receiver, payout.FeeAmounts[i],
		); err != nil {
			return err
		}
	}
	return c.Withdraw(
		ctx, payout.PaymentAsset, payout.Seller, payout.SellerAmount(),
	)
}

func (c *Custody) checkEngineApproval(
	ctx context.Context, key domain.AssetKey,
) error {
	ok, err := c.registry.IsApprovedOrOwner(ctx, c.engine, key)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotApproved
	}
	return nil
}
