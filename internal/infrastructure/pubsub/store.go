package pubsub

import (
	"errors"
	"path/filepath"

	dbbadger "github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/badger"
	"github.com/timshannon/badgerhold/v4"
)

// store persists subscriptions in their own badgerhold db, indexed by topic.
type store struct {
	db *badgerhold.Store
}

func newStore(datadir string) (*store, error) {
	var dir string
	if len(datadir) > 0 {
		dir = filepath.Join(datadir, "pubsub")
	}
	db, err := dbbadger.OpenStore(dir, nil)
	if err != nil {
		return nil, err
	}
	return &store{db}, nil
}

func (s *store) add(sub Subscription) error {
	return s.db.Insert(sub.ID, sub)
}

func (s *store) remove(id string) error {
	if err := s.db.Delete(id, Subscription{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrSubscriptionNotFound
		}
		return err
	}
	return nil
}

// findByEndpoint returns the subscription for the topic and endpoint, if any.
func (s *store) findByEndpoint(topic, endpoint string) (*Subscription, error) {
	var subs []Subscription
	query := badgerhold.Where("Event").Eq(topic).Index("Event").
		And("Endpoint").Eq(endpoint)
	if err := s.db.Find(&subs, query); err != nil {
		return nil, err
	}
	if len(subs) <= 0 {
		return nil, nil
	}
	return &subs[0], nil
}

func (s *store) forTopic(topic string) (subscriptions, error) {
	var subs []Subscription
	query := badgerhold.Where("Event").Eq(topic).Index("Event").SortBy("ID")
	if err := s.db.Find(&subs, query); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *store) all() (subscriptions, error) {
	var subs []Subscription
	if err := s.db.Find(&subs, (&badgerhold.Query{}).SortBy("ID")); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *store) close() error {
	return s.db.Close()
}
