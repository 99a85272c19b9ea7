package pubsub

import (
	"fmt"
	"net/url"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
)

var (
	ErrWebhooksDisabled = fmt.Errorf("webhooks are disabled")
	ErrInvalidWebhook   = domain.NewError(
		domain.KindValue, "INVALID_WEBHOOK", "invalid webhook",
	)
)

// Webhook is a request to be notified at Endpoint about events of type Event.
// Notifications carry a JWT signed with Secret, if set.
type Webhook struct {
	Event    string
	Endpoint string
	Secret   string
}

func (w Webhook) validate() error {
	if w.Event != ports.AnyTopic && !domain.IsValidEventType(domain.EventType(w.Event)) {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidWebhook, w.Event)
	}
	if _, err := url.ParseRequestURI(w.Endpoint); err != nil {
		return fmt.Errorf("%w: endpoint must be a valid URI", ErrInvalidWebhook)
	}
	return nil
}

type WebhookInfo struct {
	Id        string
	Event     string
	Endpoint  string
	IsSecured bool
}

type eventPayload struct {
	Id         string            `json:"id"`
	Seq        uint64            `json:"seq"`
	Event      string            `json:"event"`
	Collection string            `json:"collection"`
	Unit       string            `json:"unit,omitempty"`
	Timestamp  int64             `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

func newEventPayload(e domain.Event) eventPayload {
	return eventPayload{
		Id:         e.ID,
		Seq:        e.Seq,
		Event:      string(e.Type),
		Collection: e.Key.Collection.String(),
		Unit:       e.Key.Unit,
		Timestamp:  e.Timestamp,
		Attributes: e.Attributes,
	}
}
