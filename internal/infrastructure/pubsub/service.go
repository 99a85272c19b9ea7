// Package pubsub is a webhook based implementation of ports.PubSub.
// Subscribers are notified with an HTTP POST carrying the JSON message and,
// if the subscription has a secret, a bearer JWT signed with it.
package pubsub

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultRequestsPerSec = 50
)

type service struct {
	store      *store
	httpClient *client
	cb         *gobreaker.CircuitBreaker
	limiter    ratelimit.Limiter
}

// NewService returns a webhook pubsub storing subscriptions under datadir,
// or in memory if empty. Notifications are rate limited to the given number
// of requests per second.
func NewService(
	datadir string, requestTimeout time.Duration, requestsPerSec int,
) (ports.PubSub, error) {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if requestsPerSec <= 0 {
		requestsPerSec = defaultRequestsPerSec
	}

	s, err := newStore(datadir)
	if err != nil {
		return nil, fmt.Errorf("opening pubsub db: %w", err)
	}

	return &service{
		store:      s,
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhooks"),
		limiter:    ratelimit.New(requestsPerSec),
	}, nil
}

// Subscribe is idempotent: subscribing the same endpoint twice for a topic
// returns the id of the existing subscription.
func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	existing, err := ws.store.findByEndpoint(topic, endpoint)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	if err := ws.store.add(*sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (ws *service) Unsubscribe(id string) error {
	return ws.store.remove(id)
}

// ListSubscriptionsForTopic includes the subscriptions for any topic. An
// unspecified topic lists them all.
func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return ws.listSubscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	subs := ws.listSubscriptionsForTopic(topic)

	eg, ctx := errgroup.WithContext(context.Background())
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error {
			ws.limiter.Take()
			return ws.doRequest(ctx, sub, message)
		})
	}
	return eg.Wait()
}

func (ws *service) Close() error {
	return ws.store.close()
}

func (ws *service) listSubscriptionsForTopic(topic string) subscriptions {
	if topic == ports.UnspecifiedTopic {
		subs, _ := ws.store.all()
		return subs
	}

	subs, _ := ws.store.forTopic(topic)
	if topic != ports.AnyTopic {
		subsForAnyTopic, _ := ws.store.forTopic(ports.AnyTopic)
		subs = append(subs, subsForAnyTopic...)
	}
	return subs
}

func (ws *service) doRequest(
	ctx context.Context, sub Subscription, payload string,
) error {
	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if sub.IsSecured() {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
				IssuedAt: time.Now().Unix(),
				Subject:  sub.Event,
			})
			tokenString, err := token.SignedString([]byte(sub.Secret))
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(ctx, sub.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("webhook %s: %d %s", sub.ID, status, resp)
		}
		return nil, nil
	})

	return err
}
