// Package httpinterface serves the engine over two JSON HTTP listeners: the
// trade one for sellers, buyers and bidders and the operator one for the
// engine administration.
package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/auction"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/escrow"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/exchange"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/royalty"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/settlement"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	interfaces "github.com/tdex-network/tdex-nft-exchange/internal/interfaces"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Metrics is the collector of rejected requests also serving the metrics
// endpoint.
type Metrics interface {
	ObserveFailure(err error)
	Gatherer() prometheus.Gatherer
}

// ServiceOpts holds the listening addresses of the two interfaces and the
// services they serve. AuthSecret is the key bearer tokens are verified
// with.
type ServiceOpts struct {
	TradeAddress    string
	OperatorAddress string
	AuthSecret      []byte

	Engine        domain.Address
	ExchangeSvc   *exchange.Service
	AuctionSvc    *auction.Service
	EscrowSvc     *escrow.Service
	SettlementSvc *settlement.Service
	RoyaltySvc    *royalty.Registry
	RouterSvc     *royalty.Router
	EventsSvc     *pubsub.Service
	Registry      AssetRegistry
	Ledger        Ledger
	Operators     OperatorSet
	Metrics       Metrics
}

func (o ServiceOpts) validate() error {
	if len(o.TradeAddress) <= 0 {
		return fmt.Errorf("missing trade address")
	}
	if len(o.OperatorAddress) <= 0 {
		return fmt.Errorf("missing operator address")
	}
	if len(o.AuthSecret) <= 0 {
		return fmt.Errorf("missing auth secret")
	}
	if o.Engine.IsZero() {
		return fmt.Errorf("missing engine address")
	}
	if o.ExchangeSvc == nil {
		return fmt.Errorf("exchange app service must not be null")
	}
	if o.AuctionSvc == nil {
		return fmt.Errorf("auction app service must not be null")
	}
	if o.EscrowSvc == nil {
		return fmt.Errorf("escrow app service must not be null")
	}
	if o.SettlementSvc == nil {
		return fmt.Errorf("settlement app service must not be null")
	}
	if o.RoyaltySvc == nil || o.RouterSvc == nil {
		return fmt.Errorf("royalty app services must not be null")
	}
	if o.EventsSvc == nil {
		return fmt.Errorf("events app service must not be null")
	}
	if o.Registry == nil {
		return fmt.Errorf("asset registry must not be null")
	}
	if o.Ledger == nil {
		return fmt.Errorf("payment ledger must not be null")
	}
	if o.Operators == nil {
		return fmt.Errorf("operator set must not be null")
	}
	return nil
}

type service struct {
	opts           ServiceOpts
	tradeServer    *http.Server
	operatorServer *http.Server
	eg             *errgroup.Group
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	h := newHandler(opts)
	var gatherer prometheus.Gatherer
	if opts.Metrics != nil {
		gatherer = opts.Metrics.Gatherer()
	}

	return &service{
		opts: opts,
		tradeServer: &http.Server{
			Addr:              opts.TradeAddress,
			Handler:           h.NewTradeRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		operatorServer: &http.Server{
			Addr:              opts.OperatorAddress,
			Handler:           h.NewOperatorRouter(gatherer),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func newHandler(opts ServiceOpts) *handler {
	h := &handler{
		engine:     opts.Engine,
		exchange:   opts.ExchangeSvc,
		auction:    opts.AuctionSvc,
		escrow:     opts.EscrowSvc,
		settlement: opts.SettlementSvc,
		royalties:  opts.RoyaltySvc,
		router:     opts.RouterSvc,
		events:     opts.EventsSvc,
		registry:   opts.Registry,
		ledger:     opts.Ledger,
		operators:  opts.Operators,
		auth:       authenticator{opts.AuthSecret},
	}
	if opts.Metrics != nil {
		h.failures = opts.Metrics
	}
	return h
}

func (s *service) Start() error {
	s.eg = &errgroup.Group{}
	for _, srv := range []*http.Server{s.tradeServer, s.operatorServer} {
		srv := srv
		s.eg.Go(func() error {
			if err := srv.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	log.Infof("trade interface is listening on %s", s.opts.TradeAddress)
	log.Infof("operator interface is listening on %s", s.opts.OperatorAddress)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.operatorServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to stop operator interface")
	}
	log.Debug("stopped operator interface")

	if err := s.tradeServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to stop trade interface")
	}
	log.Debug("stopped trade interface")

	if s.eg != nil {
		if err := s.eg.Wait(); err != nil {
			log.WithError(err).Warn("interface stopped with error")
		}
	}
}
