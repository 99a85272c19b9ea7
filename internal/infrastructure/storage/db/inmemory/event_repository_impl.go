package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/journal"
)

type eventRepositoryImpl struct {
	lock   sync.RWMutex
	events []domain.Event
	seq    uint64
}

// NewEventRepositoryImpl returns a new inmemory EventRepository
// implementation.
func NewEventRepositoryImpl() domain.EventRepository {
	return &eventRepositoryImpl{}
}

func (r *eventRepositoryImpl) AddEvents(
	ctx context.Context, events ...domain.Event,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i := range events {
		r.seq++
		events[i].Seq = r.seq
		r.events = append(r.events, events[i])

		seq := r.seq
		journal.Record(ctx, func() { r.remove(seq) })
	}
	return nil
}

func (r *eventRepositoryImpl) GetEventsForAsset(
	_ context.Context, key domain.AssetKey,
) ([]domain.Event, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	events := make([]domain.Event, 0)
	for _, e := range r.events {
		if e.Key == key {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *eventRepositoryImpl) GetAllEvents(
	_ context.Context,
) ([]domain.Event, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return append([]domain.Event{}, r.events...), nil
}

func (r *eventRepositoryImpl) remove(seq uint64) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i, e := range r.events {
		if e.Seq == seq {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return
		}
	}
}
