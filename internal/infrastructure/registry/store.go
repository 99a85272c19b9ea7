package registry

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	dbbadger "github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/badger"
	"github.com/timshannon/badgerhold/v4"
)

type unitRecord struct {
	ID         string `badgerhold:"key"`
	Collection domain.Address
	Unit       string
	Owner      domain.Address
	Creator    domain.Address
	Approved   domain.Address
}

type operatorRecord struct {
	ID         string `badgerhold:"key"`
	Collection domain.Address
	Owner      domain.Address
	Operator   domain.Address
}

func (k operatorKey) id() string {
	return fmt.Sprintf("%s/%s/%s", k.collection, k.owner, k.operator)
}

// Store keeps the committed units and operators of a Registry.
type Store struct {
	db *badgerhold.Store
}

// OpenStore opens the store at the given dir, or in memory if dir is empty.
func OpenStore(dir string) (*Store, error) {
	db, err := dbbadger.OpenStore(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening registry db: %w", err)
	}
	return &Store{db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) load() (map[domain.AssetKey]unit, map[operatorKey]bool, error) {
	var unitRecords []unitRecord
	if err := s.db.Find(&unitRecords, nil); err != nil {
		return nil, nil, err
	}
	var operatorRecords []operatorRecord
	if err := s.db.Find(&operatorRecords, nil); err != nil {
		return nil, nil, err
	}

	units := make(map[domain.AssetKey]unit, len(unitRecords))
	for _, r := range unitRecords {
		key := domain.NewAssetKey(r.Collection, r.Unit)
		units[key] = unit{owner: r.Owner, creator: r.Creator, approved: r.Approved}
	}
	operators := make(map[operatorKey]bool, len(operatorRecords))
	for _, r := range operatorRecords {
		operators[operatorKey{r.Collection, r.Owner, r.Operator}] = true
	}
	return units, operators, nil
}

// save writes the given values in a single transaction. Revoked operators
// are deleted.
func (s *Store) save(
	units map[domain.AssetKey]unit, operators map[operatorKey]bool,
) error {
	return s.db.Badger().Update(func(tx *badger.Txn) error {
		for key, u := range units {
			id := key.String()
			if err := s.db.TxUpsert(tx, id, unitRecord{
				ID:         id,
				Collection: key.Collection,
				Unit:       key.Unit,
				Owner:      u.owner,
				Creator:    u.creator,
				Approved:   u.approved,
			}); err != nil {
				return err
			}
		}

		for k, approved := range operators {
			if !approved {
				err := s.db.TxDelete(tx, k.id(), operatorRecord{})
				if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
					return err
				}
				continue
			}
			if err := s.db.TxUpsert(tx, k.id(), operatorRecord{
				ID:         k.id(),
				Collection: k.collection,
				Owner:      k.owner,
				Operator:   k.operator,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
