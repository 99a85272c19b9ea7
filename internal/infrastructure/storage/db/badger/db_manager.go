package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
	"github.com/timshannon/badgerhold/v4"
)

const eventSequenceKey = "event_seq"

// txKey is the context key of the badger transaction begun by a unit of work.
type txKey struct {
	store *badgerhold.Store
}

// RepoManager holds all the badgerhold repositories in a single data
// structure sharing the same store.
type RepoManager struct {
	store    *badgerhold.Store
	eventSeq *badger.Sequence

	listingRepository    domain.ListingRepository
	auctionRepository    domain.AuctionRepository
	escrowRepository     domain.EscrowRepository
	settlementRepository domain.SettlementRepository
	royaltyRepository    domain.RoyaltyRepository
	eventRepository      domain.EventRepository
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger. If the base dir is
// empty, the store is kept in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var engineDir string
	if len(baseDbDir) > 0 {
		engineDir = filepath.Join(baseDbDir, "engine")
	}

	store, err := OpenStore(engineDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening engine db: %w", err)
	}

	seq, err := store.Badger().GetSequence([]byte(eventSequenceKey), 100)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening event sequence: %w", err)
	}

	m := &RepoManager{store: store, eventSeq: seq}
	m.listingRepository = listingRepositoryImpl{m}
	m.auctionRepository = auctionRepositoryImpl{m}
	m.escrowRepository = escrowRepositoryImpl{m}
	m.settlementRepository = settlementRepositoryImpl{m}
	m.royaltyRepository = royaltyRepositoryImpl{m}
	m.eventRepository = eventRepositoryImpl{m}
	return m, nil
}

func (m *RepoManager) ListingRepository() domain.ListingRepository {
	return m.listingRepository
}

func (m *RepoManager) AuctionRepository() domain.AuctionRepository {
	return m.auctionRepository
}

func (m *RepoManager) EscrowRepository() domain.EscrowRepository {
	return m.escrowRepository
}

func (m *RepoManager) SettlementRepository() domain.SettlementRepository {
	return m.settlementRepository
}

func (m *RepoManager) RoyaltyRepository() domain.RoyaltyRepository {
	return m.royaltyRepository
}

func (m *RepoManager) EventRepository() domain.EventRepository {
	return m.eventRepository
}

func (m *RepoManager) Transactional() uow.Transactional {
	return transactional{m.store}
}

func (m *RepoManager) Close() {
	//nolint
	m.eventSeq.Release()
	m.store.Close()
}

// tx returns the badger transaction of the unit of work of ctx, if any.
func (m *RepoManager) tx(ctx context.Context) *badger.Txn {
	t, ok := uow.TxFromContext(ctx, txKey{m.store})
	if !ok {
		return nil
	}
	return t.(transaction).Txn
}

func (m *RepoManager) get(ctx context.Context, key, result interface{}) error {
	if tx := m.tx(ctx); tx != nil {
		return m.store.TxGet(tx, key, result)
	}
	return m.store.Get(key, result)
}

func (m *RepoManager) insert(ctx context.Context, key, data interface{}) error {
	if tx := m.tx(ctx); tx != nil {
		return m.store.TxInsert(tx, key, data)
	}
	return m.store.Insert(key, data)
}

func (m *RepoManager) upsert(ctx context.Context, key, data interface{}) error {
	if tx := m.tx(ctx); tx != nil {
		return m.store.TxUpsert(tx, key, data)
	}
	return m.store.Upsert(key, data)
}

func (m *RepoManager) delete(ctx context.Context, key, dataType interface{}) error {
	var err error
	if tx := m.tx(ctx); tx != nil {
		err = m.store.TxDelete(tx, key, dataType)
	} else {
		err = m.store.Delete(key, dataType)
	}
	if err == badgerhold.ErrNotFound {
		return nil
	}
	return err
}

func (m *RepoManager) find(
	ctx context.Context, result interface{}, query *badgerhold.Query,
) error {
	if tx := m.tx(ctx); tx != nil {
		return m.store.TxFind(tx, result, query)
	}
	return m.store.Find(result, query)
}

type transactional struct {
	store *badgerhold.Store
}

func (t transactional) Begin() (uow.Tx, error) {
	return transaction{t.store.Badger().NewTransaction(true)}, nil
}

func (t transactional) ContextKey() interface{} {
	return txKey{t.store}
}

type transaction struct {
	*badger.Txn
}

func (t transaction) Rollback() error {
	t.Discard()
	return nil
}

// OpenStore opens a badgerhold store at the given dir, or in memory if dir
// is empty. On disk stores are compressed and garbage collected periodically.
func OpenStore(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}
