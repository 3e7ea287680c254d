// Package application is the entry point of the SDK. Service wires storage,
// scanner, planner and executor together and exposes the operations of the
// SDK to its callers.
package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application/command"
	"github.com/shieldpay/shieldpay-sdk/internal/core/application/executor"
	priceupdater "github.com/shieldpay/shieldpay-sdk/internal/core/application/price-updater"
	"github.com/shieldpay/shieldpay-sdk/internal/core/application/pubsub"
	"github.com/shieldpay/shieldpay-sdk/internal/core/application/scanner"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type Service struct {
	networks    domain.Networks
	repoManager ports.RepoManager
	ownedRepo   bool

	bus      ports.EventBus
	scanner  *scanner.Service
	executor *executor.Executor
	webhooks *pubsub.Service
	prices   *priceupdater.Service

	lock   sync.RWMutex
	closed bool
}

// NewService validates the config and returns a ready to use SDK service.
// The currencies of the configured networks are stored, and their prices
// kept up to date if a price feeder is set.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalizeNetworks()

	repoManager, err := cfg.repoManager()
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeOnErr := func() {
		if cfg.ownedRepo {
			repoManager.Close()
		}
	}

	if err := cfg.seedCurrencies(context.Background(), repoManager); err != nil {
		closeOnErr()
		return nil, fmt.Errorf("failed to store currencies: %w", err)
	}

	bus := pubsub.NewEventBus()

	scannerSvc, err := scanner.NewService(
		cfg.Networks, repoManager, cfg.ChainRegistry, cfg.CryptoCore,
		cfg.BackendApi, bus, cfg.ScanAddressLimit,
	)
	if err != nil {
		bus.Close()
		closeOnErr()
		return nil, err
	}

	factory, err := command.NewFactory(
		cfg.Networks, cfg.CryptoCore, cfg.BackendApi, cfg.ChainRegistry,
		cfg.pollOpts(),
	)
	if err != nil {
		bus.Close()
		closeOnErr()
		return nil, err
	}
	exec, err := executor.NewExecutor(factory)
	if err != nil {
		bus.Close()
		closeOnErr()
		return nil, err
	}

	svc := &Service{
		networks:    cfg.Networks,
		repoManager: repoManager,
		ownedRepo:   cfg.ownedRepo,
		bus:         bus,
		scanner:     scannerSvc,
		executor:    exec,
	}

	if cfg.WebhookPublisher != nil {
		svc.webhooks = pubsub.NewService(cfg.WebhookPublisher, bus)
		svc.webhooks.Start()
	}

	if cfg.PriceFeeder != nil {
		prices, err := priceupdater.NewService(cfg.PriceFeeder, repoManager)
		if err != nil {
			svc.Close()
			return nil, err
		}
		if err := prices.Start(); err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to start price updater: %w", err)
		}
		svc.prices = prices
	}

	return svc, nil
}

// Networks returns the networks known to the service.
func (s *Service) Networks() domain.Networks {
	return s.networks
}

// Subscribe registers the handler for the events of the given topic, or for
// all of them if domain.AnyTopic. The returned id is used to unsubscribe.
func (s *Service) Subscribe(topic string, handler ports.EventHandler) (string, error) {
	if !isValidTopic(topic) {
		return "", fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	if handler == nil {
		return "", fmt.Errorf("missing event handler")
	}
	if s.isClosed() {
		return "", ErrServiceClosed
	}
	return s.bus.Subscribe(topic, handler), nil
}

func (s *Service) Unsubscribe(id string) {
	s.bus.Unsubscribe(id)
}

// Close stops all the background activities of the service and releases its
// resources. It's safe to call it more than once.
func (s *Service) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.prices != nil {
		s.prices.Stop()
	}
	if s.webhooks != nil {
		s.webhooks.Stop()
	}
	s.bus.Close()
	if s.ownedRepo {
		s.repoManager.Close()
	}
	log.Debug("service closed")
}

func (s *Service) isClosed() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.closed
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
