package domain

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// AnyTopic subscribes a webhook to every lifecycle event.
const AnyTopic = "*"

// Webhook is an HTTP endpoint lifecycle events are forwarded to. When Secret
// is set, requests carry a JWT bearer token signed with it.
type Webhook struct {
	ID       string
	Topic    string
	Endpoint string
	Secret   string
}

func NewWebhook(topic, endpoint, secret string) (*Webhook, error) {
	if len(topic) <= 0 {
		return nil, ErrInvalidWebhookTopic
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWebhookEndpoint, endpoint)
	}
	return &Webhook{
		ID:       uuid.New().String(),
		Topic:    topic,
		Endpoint: endpoint,
		Secret:   secret,
	}, nil
}

func (w Webhook) IsSecured() bool {
	return len(w.Secret) > 0
}

// Matches returns whether the webhook must be notified of the given topic.
func (w Webhook) Matches(topic string) bool {
	return w.Topic == AnyTopic || w.Topic == topic
}
