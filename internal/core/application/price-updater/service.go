package priceupdater

import (
	"context"
	"fmt"
	"sync"

	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Service keeps the USD prices of the tracked currencies up to date.
// Prices are fed into the service from an external price provider eg. Kraken.
type Service struct {
	// priceFeeder is the external price provider.
	priceFeeder ports.PriceFeeder
	// repoManager is used to access the db.
	repoManager ports.RepoManager

	wg      *sync.WaitGroup
	started bool
}

func NewService(
	priceFeeder ports.PriceFeeder, repoManager ports.RepoManager,
) (*Service, error) {
	if priceFeeder == nil {
		return nil, fmt.Errorf("missing price feeder")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	return &Service{
		priceFeeder: priceFeeder,
		repoManager: repoManager,
		wg:          &sync.WaitGroup{},
	}, nil
}

// Start subscribes the price feeder to the tickers of all the tracked
// currencies, runs it in background and stores every received price.
func (s *Service) Start() error {
	currencies, err := s.repoManager.CurrencyRepository().GetAllCurrencies(
		context.Background(),
	)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	tickers := make([]string, 0, len(currencies))
	for _, c := range currencies {
		if len(c.Ticker) <= 0 {
			continue
		}
		if _, ok := seen[c.Ticker]; ok {
			continue
		}
		seen[c.Ticker] = struct{}{}
		tickers = append(tickers, c.Ticker)
	}
	if len(tickers) <= 0 {
		log.Debug("no currency with ticker, price updater not started")
		return nil
	}

	if err := s.priceFeeder.SubscribeTickers(tickers); err != nil {
		return err
	}

	feedChan := s.priceFeeder.FeedChan()
	s.started = true

	go func() {
		if err := s.priceFeeder.Start(); err != nil {
			log.WithError(err).Warn("price feeder stopped unexpectedly")
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Debugln("reading price feed chan started")

		for priceFeed := range feedChan {
			count, err := s.repoManager.CurrencyRepository().UpdatePrice(
				context.Background(),
				priceFeed.GetTicker(),
				priceFeed.GetPrice(),
				priceFeed.GetTimestamp(),
			)
			if err != nil {
				log.WithError(err).Errorf(
					"cannot update price of %s", priceFeed.GetTicker(),
				)
				continue
			}
			log.Tracef(
				"updated price of %d currencies with ticker %s",
				count, priceFeed.GetTicker(),
			)
		}

		log.Debugln("reading price feed chan stopped")
	}()

	return nil
}

// Stop stops the price feeder and waits for the pending updates.
func (s *Service) Stop() {
	if !s.started {
		return
	}
	s.started = false
	s.priceFeeder.Stop()
	s.wg.Wait()
}
