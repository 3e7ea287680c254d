package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Service forwards the events of an EventBus to the subscribed webhooks.
type Service struct {
	publisher ports.WebhookPublisher
	bus       ports.EventBus
	subID     string
}

func NewService(publisher ports.WebhookPublisher, bus ports.EventBus) *Service {
	return &Service{publisher: publisher, bus: bus}
}

func (s *Service) AddWebhook(
	ctx context.Context, topic, endpoint, secret string,
) (string, error) {
	if !isValidTopic(topic) {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidWebhookTopic, topic)
	}
	return s.publisher.Subscribe(ctx, topic, endpoint, secret)
}

func (s *Service) RemoveWebhook(ctx context.Context, id string) error {
	return s.publisher.Unsubscribe(ctx, id)
}

// ListWebhooks returns the webhooks notified for the topic, or all of them
// if the topic is empty.
func (s *Service) ListWebhooks(
	ctx context.Context, topic string,
) ([]domain.Webhook, error) {
	return s.publisher.ListSubscriptions(ctx, topic)
}

// Start starts forwarding events.
func (s *Service) Start() {
	if len(s.subID) > 0 {
		return
	}
	s.subID = s.bus.Subscribe(domain.AnyTopic, s.forward)
}

func (s *Service) Stop() {
	if len(s.subID) <= 0 {
		return
	}
	s.bus.Unsubscribe(s.subID)
	s.subID = ""
}

func (s *Service) forward(event ports.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Warnf("failed to serialize %s event", event.Topic)
		return
	}

	if err := s.publisher.Publish(
		context.Background(), event.Topic, message,
	); err != nil {
		log.WithError(err).Warnf("failed to notify %s event", event.Topic)
	}
}

func isValidTopic(topic string) bool {
	if topic == domain.AnyTopic {
		return true
	}
	for _, t := range ports.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
