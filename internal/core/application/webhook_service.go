package application

import (
	"context"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
)

// AddWebhook subscribes the endpoint to the events of the topic. Requests
// are authenticated with a token signed with secret, if not empty.
func (s *Service) AddWebhook(
	ctx context.Context, topic, endpoint, secret string,
) (string, error) {
	if s.webhooks == nil {
		return "", ErrWebhooksDisabled
	}
	return s.webhooks.AddWebhook(ctx, topic, endpoint, secret)
}

func (s *Service) RemoveWebhook(ctx context.Context, id string) error {
	if s.webhooks == nil {
		return ErrWebhooksDisabled
	}
	return s.webhooks.RemoveWebhook(ctx, id)
}

// ListWebhooks returns the webhooks notified for the topic, all of them if
// empty.
func (s *Service) ListWebhooks(
	ctx context.Context, topic string,
) ([]domain.Webhook, error) {
	if s.webhooks == nil {
		return nil, ErrWebhooksDisabled
	}
	return s.webhooks.ListWebhooks(ctx, topic)
}
