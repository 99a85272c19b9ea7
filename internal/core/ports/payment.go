package ports

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

// PaymentChannel moves native currency and fungible tokens between parties.
// It is the single dispatch point on the payment asset kind.
type PaymentChannel interface {
	// IsSupported returns whether the asset can be used for payments.
	IsSupported(asset domain.PaymentAsset) bool
	// TransferActive moves amount of asset from -> to on behalf of the engine.
	// Tokens must be approved to the engine first.
	TransferActive(
		ctx context.Context, asset domain.PaymentAsset,
		from, to domain.Address, amount uint64,
	) error
	// BalanceOf returns the balance of owner for the given asset.
	BalanceOf(
		ctx context.Context, asset domain.PaymentAsset, owner domain.Address,
	) (uint64, error)
}

// TransferReceiver is notified by the payment channel whenever funds are
// pushed to the engine along with a payload. Returning an error reverts the
// transfer.
type TransferReceiver interface {
	OnTransferReceived(
		ctx context.Context, asset domain.PaymentAsset, from domain.Address,
		amount uint64, payload []byte,
	) error
}
