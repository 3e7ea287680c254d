package ports

import (
	"context"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
)

// WebhookPublisher forwards messages to the HTTP endpoints subscribed for a
// topic or for domain.AnyTopic.
type WebhookPublisher interface {
	// Subscribe adds a new subscription for the topic and returns its id.
	Subscribe(ctx context.Context, topic, endpoint, secret string) (string, error)
	// Unsubscribe removes the subscription with the given id.
	Unsubscribe(ctx context.Context, id string) error
	// ListSubscriptions returns the subscriptions notified for the topic. An
	// empty topic returns all of them.
	ListSubscriptions(ctx context.Context, topic string) ([]domain.Webhook, error)
	// Publish posts the message to every subscriber of the topic.
	Publish(ctx context.Context, topic string, message []byte) error
}
