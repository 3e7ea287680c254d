package application

import (
	"context"
	"fmt"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	dbbadger "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/storage/db/badger"
	"github.com/shieldpay/shieldpay-sdk/pkg/poller"
	log "github.com/sirupsen/logrus"
)

const (
	DBBadger = "badger"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger: {},
	}
)

// Config holds the dependencies of the SDK service. DBConfig is the datadir
// of the badger db, in-memory if empty. RepoManager, if set, takes
// precedence over DBType and DBConfig. PriceFeeder and WebhookPublisher are
// optional.
type Config struct {
	DBType   string
	DBConfig interface{}

	Networks         domain.Networks
	RepoManager      ports.RepoManager
	CryptoCore       ports.CryptoCore
	BackendApi       ports.BackendApi
	ChainRegistry    ports.ChainRegistry
	PriceFeeder      ports.PriceFeeder
	WebhookPublisher ports.WebhookPublisher

	PollOpts         poller.Opts
	ScanAddressLimit int

	repo      ports.RepoManager
	ownedRepo bool
}

func (c *Config) Validate() error {
	if len(c.Networks) <= 0 {
		return fmt.Errorf("missing networks")
	}
	if err := c.Networks.Validate(); err != nil {
		return err
	}
	if c.CryptoCore == nil {
		return fmt.Errorf("missing crypto core")
	}
	if c.BackendApi == nil {
		return fmt.Errorf("missing backend api")
	}
	if c.ChainRegistry == nil {
		return fmt.Errorf("missing chain registry")
	}
	if c.RepoManager == nil {
		if _, ok := SupportedDBType[c.DBType]; !ok {
			return fmt.Errorf("db type not supported, must be one of %v", dbTypes())
		}
		if c.DBConfig != nil {
			if _, ok := c.DBConfig.(string); !ok {
				return fmt.Errorf("db config must be the datadir path")
			}
		}
	}
	return nil
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo != nil {
		return c.repo, nil
	}
	if c.RepoManager != nil {
		c.repo = c.RepoManager
		return c.repo, nil
	}

	if c.DBType == DBBadger {
		datadir, _ := c.DBConfig.(string)
		repoManager, err := dbbadger.NewRepoManager(datadir, log.StandardLogger())
		if err != nil {
			return nil, err
		}
		c.repo = repoManager
		c.ownedRepo = true
	}
	return c.repo, nil
}

// normalizeNetworks binds every tracked currency to its network and flags
// the native ones.
func (c *Config) normalizeNetworks() {
	networks := make(domain.Networks, 0, len(c.Networks))
	for _, network := range c.Networks {
		currencies := make([]domain.Currency, 0, len(network.Currencies))
		for _, currency := range network.Currencies {
			currency.NetworkSlug = network.Slug
			currency.Native = network.IsNative(currency.Address)
			currencies = append(currencies, currency)
		}
		network.Currencies = currencies
		networks = append(networks, network)
	}
	c.Networks = networks
}

// seedCurrencies stores the metadata of the currencies tracked by the
// configured networks.
func (c *Config) seedCurrencies(ctx context.Context, repo ports.RepoManager) error {
	currencies := make([]domain.Currency, 0)
	for _, network := range c.Networks {
		currencies = append(currencies, network.Currencies...)
	}
	if len(currencies) <= 0 {
		return nil
	}
	return repo.CurrencyRepository().UpsertCurrencies(ctx, currencies)
}

func (c *Config) pollOpts() poller.Opts {
	if c.PollOpts.MaxRetries <= 0 {
		return poller.DefaultOpts
	}
	return c.PollOpts
}

func dbTypes() []string {
	types := make([]string, 0, len(SupportedDBType))
	for t := range SupportedDBType {
		types = append(types, t)
	}
	return types
}
