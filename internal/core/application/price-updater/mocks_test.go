package priceupdater_test

import (
	"sync"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shopspring/decimal"
)

type priceFeed struct {
	ticker string
	price  decimal.Decimal
	at     time.Time
}

func (f priceFeed) GetTicker() string         { return f.ticker }
func (f priceFeed) GetPrice() decimal.Decimal { return f.price }
func (f priceFeed) GetTimestamp() time.Time   { return f.at }

type mockPriceFeeder struct {
	lock       sync.Mutex
	tickers    []string
	subscribed bool
	feedChan   chan ports.PriceFeed
	quitChan   chan struct{}
	stopOnce   sync.Once
}

func newMockPriceFeeder() *mockPriceFeeder {
	return &mockPriceFeeder{
		feedChan: make(chan ports.PriceFeed),
		quitChan: make(chan struct{}),
	}
}

func (m *mockPriceFeeder) SubscribeTickers(tickers []string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.tickers = append([]string{}, tickers...)
	m.subscribed = true
	return nil
}

func (m *mockPriceFeeder) Start() error {
	<-m.quitChan
	return nil
}

func (m *mockPriceFeeder) Stop() {
	m.stopOnce.Do(func() {
		close(m.quitChan)
		close(m.feedChan)
	})
}

func (m *mockPriceFeeder) FeedChan() chan ports.PriceFeed {
	return m.feedChan
}

func (m *mockPriceFeeder) subscribedTickers() ([]string, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.tickers, m.subscribed
}
