package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/storage/db/inmemory"
)

var (
	ctx = context.Background()
	key = domain.NewAssetKey("collection", "1")
)

type mockPubSub struct {
	mock.Mock
}

func (m *mockPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	args := m.Called(topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) Unsubscribe(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	args := m.Called(topic)
	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockPubSub) Publish(topic string, message string) error {
	return m.Called(topic, message).Error(0)
}

func (m *mockPubSub) Close() error {
	return m.Called().Error(0)
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) PublishEvents(ctx context.Context, events ...domain.Event) {
	m.Called(ctx, events)
}

func TestPublishEvents(t *testing.T) {
	l, err := domain.NewListing(key, "seller", domain.NativeAsset(), 10, 0)
	require.NoError(t, err)
	placed := domain.NewSalePlacedEvent(l, 100)
	matched := domain.NewSaleMatchedEvent(l, "buyer", 100)

	ps := &mockPubSub{}
	ps.On("Publish", string(domain.EventSalePlaced), mock.MatchedBy(
		func(msg string) bool {
			payload := map[string]interface{}{}
			if err := json.Unmarshal([]byte(msg), &payload); err != nil {
				return false
			}
			return payload["id"] == placed.ID &&
				payload["collection"] == "collection" &&
				payload["unit"] == "1"
		},
	)).Return(nil).Once()
	ps.On("Publish", string(domain.EventSaleMatched), mock.Anything).
		Return(nil).Once()
	ps.On("Close").Return(nil)

	observer := &mockObserver{}
	observer.On("PublishEvents", mock.Anything, []domain.Event{placed, matched}).
		Return().Once()

	svc, err := pubsub.NewService(
		ps, inmemory.NewEventRepositoryImpl(), observer,
	)
	require.NoError(t, err)

	svc.PublishEvents(ctx, placed, matched)
	svc.Close()

	ps.AssertExpectations(t)
	observer.AssertExpectations(t)
}

func TestWebhooks(t *testing.T) {
	ps := &mockPubSub{}
	ps.On("Subscribe", string(domain.EventEscrowClosed), "http://localhost/hook", "").
		Return("id", nil)
	ps.On("Subscribe", ports.AnyTopic, "http://localhost/any", "secret").
		Return("id2", nil)
	ps.On("Unsubscribe", "id").Return(nil)
	ps.On("ListSubscriptionsForTopic", ports.UnspecifiedTopic).Return(nil)

	svc, err := pubsub.NewService(ps, inmemory.NewEventRepositoryImpl())
	require.NoError(t, err)

	id, err := svc.AddWebhook(ctx, pubsub.Webhook{
		Event:    string(domain.EventEscrowClosed),
		Endpoint: "http://localhost/hook",
	})
	require.NoError(t, err)
	require.Equal(t, "id", id)

	id, err = svc.AddWebhook(ctx, pubsub.Webhook{
		Event:    ports.AnyTopic,
		Endpoint: "http://localhost/any",
		Secret:   "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "id2", id)

	tests := []struct {
		name string
		hook pubsub.Webhook
	}{
		{"unknown event", pubsub.Webhook{Event: "Unknown", Endpoint: "http://localhost"}},
		{"invalid endpoint", pubsub.Webhook{Event: ports.AnyTopic, Endpoint: "localhost"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddWebhook(ctx, tt.hook)
			require.Error(t, err)
		})
	}

	require.NoError(t, svc.RemoveWebhook(ctx, "id"))
	hooks, err := svc.ListWebhooks(ctx, ports.UnspecifiedTopic)
	require.NoError(t, err)
	require.Empty(t, hooks)
	ps.AssertExpectations(t)
}

func TestWebhooksDisabled(t *testing.T) {
	svc, err := pubsub.NewService(nil, inmemory.NewEventRepositoryImpl())
	require.NoError(t, err)

	_, err = svc.AddWebhook(ctx, pubsub.Webhook{Event: ports.AnyTopic})
	require.ErrorIs(t, err, pubsub.ErrWebhooksDisabled)

	// Publishing without pubsub is a no-op.
	svc.PublishEvents(ctx, domain.Event{Type: domain.EventSalePlaced})
	svc.Close()
}
