package krakenfeeder

import (
	"time"

	"github.com/shopspring/decimal"
)

type priceFeed struct {
	ticker    string
	price     decimal.Decimal
	timestamp time.Time
}

func (p *priceFeed) GetTicker() string {
	return p.ticker
}

func (p *priceFeed) GetPrice() decimal.Decimal {
	return p.price
}

func (p *priceFeed) GetTimestamp() time.Time {
	return p.timestamp
}
