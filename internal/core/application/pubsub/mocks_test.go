package pubsub_test

import (
	"context"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type mockWebhookPublisher struct {
	mock.Mock
}

func (m *mockWebhookPublisher) Subscribe(
	ctx context.Context, topic, endpoint, secret string,
) (string, error) {
	args := m.Called(ctx, topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockWebhookPublisher) Unsubscribe(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockWebhookPublisher) ListSubscriptions(
	ctx context.Context, topic string,
) ([]domain.Webhook, error) {
	args := m.Called(ctx, topic)

	var res []domain.Webhook
	if a := args.Get(0); a != nil {
		res = a.([]domain.Webhook)
	}
	return res, args.Error(1)
}

func (m *mockWebhookPublisher) Publish(
	ctx context.Context, topic string, message []byte,
) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}
