package ledger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	dbbadger "github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/badger"
	"github.com/timshannon/badgerhold/v4"
)

type balanceRecord struct {
	ID     string `badgerhold:"key"`
	Asset  string
	Owner  domain.Address
	Amount uint64
}

type allowanceRecord struct {
	ID      string `badgerhold:"key"`
	Token   domain.Address
	Owner   domain.Address
	Spender domain.Address
	Amount  uint64
}

func (k balanceKey) id() string {
	return fmt.Sprintf("%s/%s", k.asset, k.owner)
}

func (k allowanceKey) id() string {
	return fmt.Sprintf("%s/%s/%s", k.token, k.owner, k.spender)
}

// Store keeps the committed balances and allowances of a Ledger.
type Store struct {
	db *badgerhold.Store
}

// OpenStore opens the store at the given dir, or in memory if dir is empty.
func OpenStore(dir string) (*Store, error) {
	db, err := dbbadger.OpenStore(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}
	return &Store{db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) load() (map[balanceKey]uint64, map[allowanceKey]uint64, error) {
	var balanceRecords []balanceRecord
	if err := s.db.Find(&balanceRecords, nil); err != nil {
		return nil, nil, err
	}
	var allowanceRecords []allowanceRecord
	if err := s.db.Find(&allowanceRecords, nil); err != nil {
		return nil, nil, err
	}

	balances := make(map[balanceKey]uint64, len(balanceRecords))
	for _, r := range balanceRecords {
		balances[balanceKey{r.Asset, r.Owner}] = r.Amount
	}
	allowances := make(map[allowanceKey]uint64, len(allowanceRecords))
	for _, r := range allowanceRecords {
		allowances[allowanceKey{r.Token, r.Owner, r.Spender}] = r.Amount
	}
	return balances, allowances, nil
}

// save writes the given values in a single transaction. Zero values are
// deleted.
func (s *Store) save(
	balances map[balanceKey]uint64, allowances map[allowanceKey]uint64,
) error {
	return s.db.Badger().Update(func(tx *badger.Txn) error {
		for k, amount := range balances {
			if amount <= 0 {
				if err := s.delete(tx, k.id(), balanceRecord{}); err != nil {
					return err
				}
				continue
			}
			if err := s.db.TxUpsert(tx, k.id(), balanceRecord{
				ID: k.id(), Asset: k.asset, Owner: k.owner, Amount: amount,
			}); err != nil {
				return err
			}
		}

		for k, amount := range allowances {
			if amount <= 0 {
				if err := s.delete(tx, k.id(), allowanceRecord{}); err != nil {
					return err
				}
				continue
			}
			if err := s.db.TxUpsert(tx, k.id(), allowanceRecord{
				ID: k.id(), Token: k.token, Owner: k.owner, Spender: k.spender,
				Amount: amount,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) delete(tx *badger.Txn, id string, dataType interface{}) error {
	err := s.db.TxDelete(tx, id, dataType)
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return err
	}
	return nil
}
