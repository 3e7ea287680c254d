package dbbadger

import (
	"context"
	"sort"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type webhookRepositoryImpl struct {
	store *badgerhold.Store
}

func newWebhookRepositoryImpl(store *badgerhold.Store) domain.WebhookRepository {
	return &webhookRepositoryImpl{store}
}

func (r *webhookRepositoryImpl) AddWebhook(
	_ context.Context, hook domain.Webhook,
) error {
	if err := r.store.Insert(hook.ID, &hook); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil
		}
		return err
	}
	return nil
}

func (r *webhookRepositoryImpl) GetWebhook(
	_ context.Context, id string,
) (*domain.Webhook, error) {
	var hook domain.Webhook
	if err := r.store.Get(id, &hook); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrWebhookNotFound
		}
		return nil, err
	}
	return &hook, nil
}

// GetWebhooksForTopic returns the webhooks subscribed for the topic or for
// any topic.
func (r *webhookRepositoryImpl) GetWebhooksForTopic(
	_ context.Context, topic string,
) ([]domain.Webhook, error) {
	query := badgerhold.Where("Topic").In(topic, domain.AnyTopic)
	return r.findWebhooks(query)
}

func (r *webhookRepositoryImpl) GetAllWebhooks(
	_ context.Context,
) ([]domain.Webhook, error) {
	return r.findWebhooks(nil)
}

func (r *webhookRepositoryImpl) DeleteWebhook(
	_ context.Context, id string,
) error {
	if err := r.store.Delete(id, domain.Webhook{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrWebhookNotFound
		}
		return err
	}
	return nil
}

func (r *webhookRepositoryImpl) findWebhooks(
	query *badgerhold.Query,
) ([]domain.Webhook, error) {
	var hooks []domain.Webhook
	if err := r.store.Find(&hooks, query); err != nil {
		return nil, err
	}
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].ID < hooks[j].ID
	})
	return hooks, nil
}
