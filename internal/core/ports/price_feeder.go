package ports

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceFeed is the latest USD price of a ticker, ie. ETH/USD.
type PriceFeed interface {
	GetTicker() string
	GetPrice() decimal.Decimal
	GetTimestamp() time.Time
}

// PriceFeeder streams the prices of the subscribed tickers. Start blocks
// until Stop is called, the feed channel is closed right after.
type PriceFeeder interface {
	SubscribeTickers(tickers []string) error

	Start() error
	Stop()

	FeedChan() chan PriceFeed
}
