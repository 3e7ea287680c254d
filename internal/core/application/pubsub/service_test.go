package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application/pubsub"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWebhookService(t *testing.T) {
	ctx := context.Background()
	endpoint := "http://localhost:8080/hook"

	published := make(chan struct{})
	publisher := &mockWebhookPublisher{}
	publisher.On(
		"Subscribe", mock.Anything, ports.TopicPlanExecutionComplete, endpoint, "",
	).Return("hookid", nil)
	publisher.On("Unsubscribe", mock.Anything, "hookid").Return(nil)
	publisher.On("ListSubscriptions", mock.Anything, "").Return([]domain.Webhook{
		{ID: "hookid", Topic: ports.TopicPlanExecutionComplete, Endpoint: endpoint},
	}, nil)
	publisher.On(
		"Publish", mock.Anything, ports.TopicPlanExecutionComplete, mock.MatchedBy(
			func(msg []byte) bool {
				var e ports.Event
				return json.Unmarshal(msg, &e) == nil && e.WalletID == "wallet"
			},
		),
	).Run(func(mock.Arguments) { close(published) }).Return(nil).Once()

	bus := pubsub.NewEventBus()
	svc := pubsub.NewService(publisher, bus)
	svc.Start()

	_, err := svc.AddWebhook(ctx, "unknown-topic", endpoint, "")
	require.ErrorIs(t, err, domain.ErrInvalidWebhookTopic)

	id, err := svc.AddWebhook(ctx, ports.TopicPlanExecutionComplete, endpoint, "")
	require.NoError(t, err)
	require.Equal(t, "hookid", id)

	hooks, err := svc.ListWebhooks(ctx, "")
	require.NoError(t, err)
	require.Len(t, hooks, 1)

	bus.Publish(ports.Event{
		Topic: ports.TopicPlanExecutionComplete, WalletID: "wallet",
	})
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}

	err = svc.RemoveWebhook(ctx, id)
	require.NoError(t, err)

	svc.Stop()
	bus.Close()
	publisher.AssertExpectations(t)
}
