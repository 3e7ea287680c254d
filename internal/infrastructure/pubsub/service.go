package pubsub

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	tokenExpiry           = 5 * time.Minute
)

type service struct {
	repo       domain.WebhookRepository
	httpClient *client
	cb         *gobreaker.CircuitBreaker
}

// NewService returns a webhook publisher that persists subscriptions with
// the given repository.
func NewService(
	repo domain.WebhookRepository, requestTimeout time.Duration,
) (ports.WebhookPublisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing webhook repository")
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return &service{
		repo:       repo,
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhooks"),
	}, nil
}

func (ws *service) Subscribe(
	ctx context.Context, topic, endpoint, secret string,
) (string, error) {
	hook, err := domain.NewWebhook(topic, endpoint, secret)
	if err != nil {
		return "", err
	}
	if err := ws.repo.AddWebhook(ctx, *hook); err != nil {
		return "", err
	}
	return hook.ID, nil
}

func (ws *service) Unsubscribe(ctx context.Context, id string) error {
	return ws.repo.DeleteWebhook(ctx, id)
}

func (ws *service) ListSubscriptions(
	ctx context.Context, topic string,
) ([]domain.Webhook, error) {
	if len(topic) <= 0 {
		return ws.repo.GetAllWebhooks(ctx)
	}
	return ws.repo.GetWebhooksForTopic(ctx, topic)
}

func (ws *service) Publish(
	ctx context.Context, topic string, message []byte,
) error {
	hooks, err := ws.repo.GetWebhooksForTopic(ctx, topic)
	if err != nil {
		return err
	}

	payload := string(message)
	eg := &errgroup.Group{}
	for i := range hooks {
		hook := hooks[i]
		eg.Go(func() error { return ws.doRequest(ctx, hook, payload) })
	}
	return eg.Wait()
}

func (ws *service) doRequest(
	ctx context.Context, hook domain.Webhook, payload string,
) error {
	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if hook.IsSecured() {
			tokenString, err := signToken(hook)
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(
			ctx, hook.Endpoint, payload, headers,
		)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf(
				"webhook %s responded with status %d: %s", hook.ID, status, resp,
			)
		}
		return nil, nil
	})

	return err
}

func signToken(hook domain.Webhook) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   hook.Topic,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenExpiry).Unix(),
	})
	return token.SignedString([]byte(hook.Secret))
}
