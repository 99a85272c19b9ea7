// Package pubsub dispatches committed engine events to the registered
// webhooks and observers, and manages the webhooks themselves.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

// Service implements ports.EventPublisher.
type Service struct {
	pubsub    ports.PubSub
	events    domain.EventRepository
	observers []ports.EventPublisher

	wg sync.WaitGroup
}

// NewService returns a new publisher. A nil pubsub disables webhooks.
func NewService(
	pubsub ports.PubSub, events domain.EventRepository,
	observers ...ports.EventPublisher,
) (*Service, error) {
	if events == nil {
		return nil, fmt.Errorf("missing event repository")
	}
	return &Service{pubsub: pubsub, events: events, observers: observers}, nil
}

// PublishEvents notifies observers synchronously and webhooks in background,
// preserving the order of the given events.
func (s *Service) PublishEvents(ctx context.Context, events ...domain.Event) {
	for _, o := range s.observers {
		o.PublishEvents(ctx, events...)
	}
	for _, e := range events {
		log.Debugf("event %s for %s", e.Type, e.Key)
	}

	if s.pubsub == nil {
		return
	}

	messages := make([]message, 0, len(events))
	for _, e := range events {
		msg, err := json.Marshal(newEventPayload(e))
		if err != nil {
			log.WithError(err).Warnf("failed to encode event %s", e.ID)
			continue
		}
		messages = append(messages, message{string(e.Type), string(msg)})
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for _, m := range messages {
			if err := s.pubsub.Publish(m.topic, m.payload); err != nil {
				log.WithError(err).Warnf("failed to publish %s event", m.topic)
			}
		}
	}()
}

// AddWebhook subscribes the endpoint for the given event type, or for any
// with ports.AnyTopic.
func (s *Service) AddWebhook(_ context.Context, hook Webhook) (string, error) {
	if s.pubsub == nil {
		return "", ErrWebhooksDisabled
	}
	if err := hook.validate(); err != nil {
		return "", err
	}
	return s.pubsub.Subscribe(hook.Event, hook.Endpoint, hook.Secret)
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	if s.pubsub == nil {
		return ErrWebhooksDisabled
	}
	return s.pubsub.Unsubscribe(id)
}

// ListWebhooks returns the webhooks notified for the given event type. An
// empty event returns them all.
func (s *Service) ListWebhooks(
	_ context.Context, event string,
) ([]WebhookInfo, error) {
	if s.pubsub == nil {
		return nil, ErrWebhooksDisabled
	}

	subs := s.pubsub.ListSubscriptionsForTopic(event)
	hooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		hooks = append(hooks, WebhookInfo{
			Id:        sub.Id(),
			Event:     sub.Topic(),
			Endpoint:  sub.NotifyAt(),
			IsSecured: sub.IsSecured(),
		})
	}
	return hooks, nil
}

// ListEvents returns the journal of the given unit, or the whole one if key
// is nil.
func (s *Service) ListEvents(
	ctx context.Context, key *domain.AssetKey,
) ([]domain.Event, error) {
	if key == nil {
		return s.events.GetAllEvents(ctx)
	}
	return s.events.GetEventsForAsset(ctx, *key)
}

// Close waits for pending notifications and closes the pubsub.
func (s *Service) Close() {
	s.wg.Wait()
	if s.pubsub != nil {
		if err := s.pubsub.Close(); err != nil {
			log.WithError(err).Warn("failed to close pubsub")
		}
	}
}

type message struct {
	topic   string
	payload string
}
