package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyKey identifies a currency on a given network.
type CurrencyKey struct {
	Address     string
	NetworkSlug string
}

func (k CurrencyKey) String() string {
	return k.NetworkSlug + "/" + strings.ToLower(k.Address)
}

// Currency is the metadata of a token tracked by the SDK. Ticker is the
// symbol used by price feeds, ie. ETH/USD. VaultTokenID is the id of the
// token inside the vault contract.
type Currency struct {
	Address      string
	NetworkSlug  string
	Symbol       string
	Decimals     uint8
	Ticker       string
	Native       bool
	VaultTokenID string
	PriceUSD     decimal.Decimal
	UpdatedAt    time.Time
}

func (c Currency) Key() CurrencyKey {
	return CurrencyKey{Address: c.Address, NetworkSlug: c.NetworkSlug}
}

// TokenID returns the id of the currency inside the vault contract.
func (c Currency) TokenID() string {
	if len(c.VaultTokenID) > 0 {
		return c.VaultTokenID
	}
	return strings.ToLower(c.Address)
}

// HasPrice returns whether a counter value is known for the currency.
func (c Currency) HasPrice() bool {
	return c.PriceUSD.IsPositive()
}

// UpdatePrice sets the given price, ignoring non positive values.
func (c *Currency) UpdatePrice(price decimal.Decimal, at time.Time) bool {
	if !price.IsPositive() {
		return false
	}
	c.PriceUSD = price
	c.UpdatedAt = at
	return true
}
