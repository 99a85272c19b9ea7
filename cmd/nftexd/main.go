package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tdex-network/tdex-nft-exchange/internal/config"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/acl"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/auction"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/custody"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/escrow"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/exchange"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/ingress"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/royalty"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/settlement"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/txn"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/metrics"
	webhookpubsub "github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/pubsub"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/registry"
	dbbadger "github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/tdex-network/tdex-nft-exchange/internal/interfaces/http"
	"github.com/tdex-network/tdex-nft-exchange/pkg/stats"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to init config")
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	if logFile := config.GetString(config.LogFileKey); len(logFile) > 0 {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}))
	}

	datadir := config.GetDatadir()
	engine := domain.Address(config.GetString(config.EngineAddressKey))

	repoManager, err := newRepoManager(datadir)
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}
	defer repoManager.Close()

	tokens := make([]domain.Address, 0)
	for _, t := range config.GetStringSlice(config.SupportedTokensKey) {
		tokens = append(tokens, domain.Address(t))
	}
	assets, payments, closeCustody, err := newCustodyState(datadir, engine, tokens)
	if err != nil {
		log.WithError(err).Fatal("failed to open custody state")
	}
	defer closeCustody()

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}

	var ps ports.PubSub
	if !config.GetBool(config.NoWebhooksKey) {
		pubsubDir := ""
		if config.GetString(config.DBTypeKey) == config.DBBadger {
			pubsubDir = filepath.Join(datadir, config.DbLocation)
		}
		ps, err = webhookpubsub.NewService(
			pubsubDir,
			time.Duration(config.GetInt(config.WebhookTimeoutKey))*time.Second,
			config.GetInt(config.WebhookRateLimitKey),
		)
		if err != nil {
			log.WithError(err).Fatal("failed to init webhooks")
		}
	}
	eventsSvc, err := pubsub.NewService(ps, repoManager.EventRepository(), collector)
	if err != nil {
		log.WithError(err).Fatal("failed to init event publisher")
	}
	defer eventsSvc.Close()

	svcOpts, err := newAppServices(
		repoManager, assets, payments, eventsSvc, engine,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init app services")
	}
	svcOpts.TradeAddress = fmt.Sprintf(":%d", config.GetInt(config.TradeListeningPortKey))
	svcOpts.OperatorAddress = fmt.Sprintf(":%d", config.GetInt(config.OperatorListeningPortKey))
	svcOpts.Metrics = collector
	if svcOpts.AuthSecret, err = config.GetAuthSecret(); err != nil {
		log.WithError(err).Fatal("failed to load auth secret")
	}

	svc, err := httpinterface.NewService(*svcOpts)
	if err != nil {
		log.WithError(err).Fatal("failed to init interfaces")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.GetBool(config.EnableProfilerKey) {
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(
			ctx, interval, prometheus.DefaultGatherer,
			filepath.Join(datadir, config.ProfilerLocation),
		)
	}

	log.Info("starting daemon")
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start daemon")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-sigChan

	log.Info("shutting down daemon")
	svc.Stop()
	log.Info("exiting")
}

func newRepoManager(datadir string) (ports.RepoManager, error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewRepoManager(), nil
	}
	return dbbadger.NewRepoManager(filepath.Join(datadir, config.DbLocation), nil)
}

// newCustodyState returns the asset registry and the payment ledger. With
// the badger db they are persisted next to the repositories, so that custody
// balances and ownership survive restarts together with the records that
// refer to them.
func newCustodyState(
	datadir string, engine domain.Address, tokens []domain.Address,
) (*registry.Registry, *ledger.Ledger, func(), error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return registry.NewRegistry(), ledger.NewLedger(engine, tokens...),
			func() {}, nil
	}

	dbDir := filepath.Join(datadir, config.DbLocation)
	registryStore, err := registry.OpenStore(filepath.Join(dbDir, "registry"))
	if err != nil {
		return nil, nil, nil, err
	}
	ledgerStore, err := ledger.OpenStore(filepath.Join(dbDir, "ledger"))
	if err != nil {
		registryStore.Close()
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := ledgerStore.Close(); err != nil {
			log.WithError(err).Warn("failed to close ledger db")
		}
		if err := registryStore.Close(); err != nil {
			log.WithError(err).Warn("failed to close registry db")
		}
	}

	assets, err := registry.NewPersistentRegistry(registryStore)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	payments, err := ledger.NewPersistentLedger(ledgerStore, engine, tokens...)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return assets, payments, closeFn, nil
}

func newAppServices(
	repoManager ports.RepoManager, assets *registry.Registry,
	payments *ledger.Ledger, eventsSvc *pubsub.Service, engine domain.Address,
) (*httpinterface.ServiceOpts, error) {
	clock := ports.SystemClock()
	expirationPeriod := config.GetInt64(config.ExpirationPeriodKey)

	runner, err := txn.NewRunner(repoManager, eventsSvc, assets, payments)
	if err != nil {
		return nil, err
	}
	cust, err := custody.NewCustody(assets, payments, engine)
	if err != nil {
		return nil, err
	}

	ops := make([]domain.Address, 0)
	for _, op := range config.GetStringSlice(config.OperatorsKey) {
		ops = append(ops, domain.Address(op))
	}
	operators := acl.NewOperators(engine, ops...)

	royaltySvc, err := royalty.NewRegistry(runner, repoManager, assets, clock)
	if err != nil {
		return nil, err
	}
	router, err := royalty.NewRouter(
		runner, repoManager, clock,
		domain.Address(config.GetString(config.RoyaltyRouterOwnerKey)),
	)
	if err != nil {
		return nil, err
	}
	if err := router.RegisterResolver(
		domain.Address(config.GetString(config.RoyaltyRegistryAddressKey)),
		royaltySvc,
	); err != nil {
		return nil, err
	}

	escrowSvc, err := escrow.NewService(runner, repoManager, cust, operators, clock)
	if err != nil {
		return nil, err
	}
	settlementSvc, err := settlement.NewService(
		runner, repoManager, cust, operators, clock,
	)
	if err != nil {
		return nil, err
	}
	exchangeSvc, err := exchange.NewService(
		runner, repoManager, cust, escrowSvc, router, operators, clock,
		expirationPeriod,
	)
	if err != nil {
		return nil, err
	}
	auctionSvc, err := auction.NewService(
		runner, repoManager, cust, settlementSvc, router, operators, clock,
		expirationPeriod,
	)
	if err != nil {
		return nil, err
	}

	ingressSvc, err := ingress.NewService(exchangeSvc, auctionSvc)
	if err != nil {
		return nil, err
	}
	payments.SetReceiver(engine, ingressSvc)

	return &httpinterface.ServiceOpts{
		Engine:        engine,
		ExchangeSvc:   exchangeSvc,
		AuctionSvc:    auctionSvc,
		EscrowSvc:     escrowSvc,
		SettlementSvc: settlementSvc,
		RoyaltySvc:    royaltySvc,
		RouterSvc:     router,
		EventsSvc:     eventsSvc,
		Registry:      assets,
		Ledger:        payments,
		Operators:     operators,
	}, nil
}
