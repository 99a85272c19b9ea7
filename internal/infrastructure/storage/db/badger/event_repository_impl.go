package dbbadger

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

// event is the persisted version of domain.Event, with the asset key
// flattened for querying.
type event struct {
	Seq      uint64
	AssetKey string
	Event    domain.Event
}

type eventRepositoryImpl struct {
	db *RepoManager
}

func (r eventRepositoryImpl) AddEvents(
	ctx context.Context, events ...domain.Event,
) error {
	for i := range events {
		seq, err := r.db.eventSeq.Next()
		if err != nil {
			return err
		}
		// badger sequences start from 0.
		seq++

		events[i].Seq = seq
		row := event{seq, events[i].Key.String(), events[i]}
		if err := r.db.insert(ctx, seq, row); err != nil {
			return err
		}
	}
	return nil
}

func (r eventRepositoryImpl) GetEventsForAsset(
	ctx context.Context, key domain.AssetKey,
) ([]domain.Event, error) {
	query := badgerhold.Where("AssetKey").Eq(key.String()).SortBy("Seq")
	return r.findEvents(ctx, query)
}

func (r eventRepositoryImpl) GetAllEvents(
	ctx context.Context,
) ([]domain.Event, error) {
	query := badgerhold.Where("Seq").Gt(uint64(0)).SortBy("Seq")
	return r.findEvents(ctx, query)
}

func (r eventRepositoryImpl) findEvents(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.Event, error) {
	var rows []event
	if err := r.db.find(ctx, &rows, query); err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.Event)
	}
	return events, nil
}
