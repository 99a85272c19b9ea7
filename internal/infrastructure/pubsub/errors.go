package pubsub

import (
	"errors"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

var (
	// ErrMissingTopic is returned when subscribing without a topic.
	ErrMissingTopic = errors.New("missing topic")
	// ErrSubscriptionNotFound is returned when unsubscribing an unknown id.
	ErrSubscriptionNotFound = domain.NewError(
		domain.KindState, "WEBHOOK_NOT_FOUND", "webhook not found",
	)
)
