// Package ingress turns payments pushed to the custody account into the
// same transitions used by the active payment path.
package ingress

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/auction"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/exchange"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

var ErrMalformedPayload = domain.NewError(
	domain.KindValue, "MALFORMED_PAYLOAD", "malformed transfer payload",
)

// Service implements ports.TransferReceiver.
type Service struct {
	exchange *exchange.Service
	auction  *auction.Service
}

func NewService(
	exchangeSvc *exchange.Service, auctionSvc *auction.Service,
) (*Service, error) {
	if exchangeSvc == nil {
		return nil, fmt.Errorf("missing exchange service")
	}
	if auctionSvc == nil {
		return nil, fmt.Errorf("missing auction service")
	}
	return &Service{exchangeSvc, auctionSvc}, nil
}

// OnTransferReceived decodes the payload and buys or bids for the addressed
// unit with the received funds. Any error makes the payment channel revert
// the transfer.
func (s *Service) OnTransferReceived(
	ctx context.Context, asset domain.PaymentAsset, from domain.Address,
	amount uint64, payload []byte,
) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	cmd, err := DecodePayload(payload)
	if err != nil {
		return err
	}

	log.Debugf(
		"received %d %s from %s to %s %s", amount, asset, from, cmd.Op, cmd.Key,
	)

	switch cmd.Op {
	case OpBuy:
		_, err = s.exchange.BuyWithHeldFunds(ctx, from, cmd.Key, asset, amount)
	case OpBid:
		_, err = s.auction.BidWithHeldFunds(ctx, from, cmd.Key, asset, amount)
	}
	return err
}
