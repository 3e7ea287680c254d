package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceRepository stores BalanceEntry snapshots, replacing those with the
// same BalanceKey.
type BalanceRepository interface {
	UpsertBalances(ctx context.Context, entries []BalanceEntry) error
	GetBalances(
		ctx context.Context, walletID string, env Environment,
	) ([]BalanceEntry, error)
	GetBalancesForCurrency(
		ctx context.Context, walletID, networkSlug, currencyAddress string,
	) ([]BalanceEntry, error)
	DeleteBalances(ctx context.Context, keys []BalanceKey) error
}

// WalletRepository stores the address book of the wallets and their scan
// cursors.
type WalletRepository interface {
	AddAddresses(ctx context.Context, addresses []WalletAddress) (int, error)
	// GetAddresses returns the addresses of the wallet, least recently
	// scanned for env first. A limit <= 0 returns all of them.
	GetAddresses(
		ctx context.Context, walletID string, env Environment, limit int,
	) ([]WalletAddress, error)
	GetAddress(ctx context.Context, address string) (*WalletAddress, error)
	MarkScanned(
		ctx context.Context, addresses []string, env Environment, at time.Time,
	) error
	GetScanCursor(
		ctx context.Context, walletID, networkSlug string,
	) (*ScanCursor, error)
	UpdateScanCursor(ctx context.Context, cursor ScanCursor) error
}

// CurrencyRepository stores the metadata of the tracked currencies.
type CurrencyRepository interface {
	UpsertCurrencies(ctx context.Context, currencies []Currency) error
	GetCurrency(ctx context.Context, key CurrencyKey) (*Currency, error)
	GetCurrenciesForNetwork(
		ctx context.Context, networkSlug string,
	) ([]Currency, error)
	GetAllCurrencies(ctx context.Context) ([]Currency, error)
	// UpdatePrice sets the price of every currency with the given ticker and
	// returns how many were updated.
	UpdatePrice(
		ctx context.Context, ticker string, price decimal.Decimal, at time.Time,
	) (int, error)
}

type WebhookRepository interface {
	AddWebhook(ctx context.Context, hook Webhook) error
	GetWebhook(ctx context.Context, id string) (*Webhook, error)
	GetWebhooksForTopic(ctx context.Context, topic string) ([]Webhook, error)
	GetAllWebhooks(ctx context.Context) ([]Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
}
