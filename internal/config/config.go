package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory where the SDK stores its state
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// EnvironmentKey selects between mainnet and testnet networks
	EnvironmentKey = "ENVIRONMENT"
	// BackendUrlKey is the base url of the protocol backend
	BackendUrlKey = "BACKEND_URL"
	// BackendApiKeyKey is sent to the backend with every request, if set
	BackendApiKeyKey = "BACKEND_API_KEY"
	// BackendRateLimitKey is the max number of backend requests per second
	BackendRateLimitKey = "BACKEND_RATE_LIMIT"
	// ProverUrlKey is the base url of the crypto core service deriving
	// addresses and generating proofs
	ProverUrlKey = "PROVER_URL"
	// ProverTimeoutKey bounds the duration of a single prover request
	ProverTimeoutKey = "PROVER_TIMEOUT"
	// ChainRateLimitKey is the max number of requests per second to a chain
	// rpc node
	ChainRateLimitKey = "CHAIN_RATE_LIMIT"
	// ScanAddressLimitKey is the number of addresses refreshed by a scan
	// that doesn't ask for all of them
	ScanAddressLimitKey = "SCAN_ADDRESS_LIMIT"
	// PollIntervalKey is the interval between two status checks of an
	// asynchronous operation
	PollIntervalKey = "POLL_INTERVAL"
	// PollMaxRetriesKey is the max number of status checks of an
	// asynchronous operation
	PollMaxRetriesKey = "POLL_MAX_RETRIES"
	// EnablePriceFeedKey keeps currency prices up to date
	EnablePriceFeedKey = "ENABLE_PRICE_FEED"
	// PriceFeedUrlKey is the websocket endpoint of the price feed
	PriceFeedUrlKey = "PRICE_FEED_URL"
	// PriceFeedIntervalKey is the interval between two price updates
	PriceFeedIntervalKey = "PRICE_FEED_INTERVAL"
	// WebhookTimeoutKey bounds the duration of a webhook request
	WebhookTimeoutKey = "WEBHOOK_TIMEOUT"
	// StatsFileKey is where metrics are dumped, if set
	StatsFileKey = "STATS_FILE"

	// NetworksKey is the list of networks, only read from the config file
	NetworksKey = "networks"

	DbLocation     = "db"
	ConfigFilename = "shieldpay.yaml"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("shieldpay", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SHIELDPAY")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(EnvironmentKey, domain.Testnet.String())
	vip.SetDefault(BackendRateLimitKey, 10)
	vip.SetDefault(ChainRateLimitKey, 10)
	vip.SetDefault(ProverTimeoutKey, 5*time.Minute)
	vip.SetDefault(ScanAddressLimitKey, domain.DefaultScanAddressLimit)
	vip.SetDefault(PollIntervalKey, 2*time.Second)
	vip.SetDefault(PollMaxRetriesKey, 60)
	vip.SetDefault(EnablePriceFeedKey, false)
	vip.SetDefault(PriceFeedIntervalKey, 5*time.Second)
	vip.SetDefault(WebhookTimeoutKey, 15*time.Second)

	if err := readConfigFile(); err != nil {
		return fmt.Errorf("error while reading config file: %s", err)
	}

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetEnvironment() domain.Environment {
	env, _ := domain.ParseEnvironment(GetString(EnvironmentKey))
	return env
}

// GetNetworks returns the networks listed in the config file.
func GetNetworks() (domain.Networks, error) {
	list := make([]network, 0)
	if err := vip.UnmarshalKey(NetworksKey, &list); err != nil {
		return nil, fmt.Errorf("invalid networks: %s", err)
	}

	networks := make(domain.Networks, 0, len(list))
	for _, n := range list {
		networks = append(networks, n.toDomain())
	}
	if err := networks.Validate(); err != nil {
		return nil, err
	}
	return networks, nil
}

type currency struct {
	Address      string `mapstructure:"address"`
	Symbol       string `mapstructure:"symbol"`
	Decimals     uint8  `mapstructure:"decimals"`
	Ticker       string `mapstructure:"ticker"`
	VaultTokenID string `mapstructure:"vault_token_id"`
}

type network struct {
	Slug                 string     `mapstructure:"slug"`
	Environment          string     `mapstructure:"environment"`
	ChainID              uint64     `mapstructure:"chain_id"`
	Kind                 string     `mapstructure:"kind"`
	RPCURL               string     `mapstructure:"rpc_url"`
	NativeCurrency       string     `mapstructure:"native_currency"`
	VaultAddress         string     `mapstructure:"vault_address"`
	VaultBalanceSelector string     `mapstructure:"vault_balance_selector"`
	MaxInputs            int        `mapstructure:"max_inputs"`
	SupportsNotes        bool       `mapstructure:"supports_notes"`
	Currencies           []currency `mapstructure:"currencies"`
}

func (n network) toDomain() domain.Network {
	currencies := make([]domain.Currency, 0, len(n.Currencies))
	for _, c := range n.Currencies {
		currencies = append(currencies, domain.Currency{
			Address:      c.Address,
			NetworkSlug:  n.Slug,
			Symbol:       c.Symbol,
			Decimals:     c.Decimals,
			Ticker:       c.Ticker,
			VaultTokenID: c.VaultTokenID,
		})
	}
	kind := domain.ChainKind(n.Kind)
	if len(kind) <= 0 {
		kind = domain.EVMChain
	}
	return domain.Network{
		Slug:                 n.Slug,
		Environment:          domain.Environment(n.Environment),
		ChainID:              n.ChainID,
		Kind:                 kind,
		RPCURL:               n.RPCURL,
		NativeCurrency:       n.NativeCurrency,
		VaultAddress:         n.VaultAddress,
		VaultBalanceSelector: n.VaultBalanceSelector,
		MaxInputs:            n.MaxInputs,
		SupportsNotes:        n.SupportsNotes,
		Currencies:           currencies,
	}
}

// readConfigFile loads the config file from the datadir, if any. Env vars
// take precedence over it.
func readConfigFile() error {
	path := filepath.Join(GetDatadir(), ConfigFilename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	vip.SetConfigFile(path)
	return vip.ReadInConfig()
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, err := domain.ParseEnvironment(GetString(EnvironmentKey)); err != nil {
		return err
	}

	if !vip.IsSet(BackendUrlKey) {
		return fmt.Errorf("missing backend url")
	}
	if !vip.IsSet(ProverUrlKey) {
		return fmt.Errorf("missing prover url")
	}

	if GetInt(BackendRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", BackendRateLimitKey)
	}
	if GetInt(ChainRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", ChainRateLimitKey)
	}
	if GetInt(PollMaxRetriesKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", PollMaxRetriesKey)
	}
	if GetDuration(PollIntervalKey) < 0 {
		return fmt.Errorf("%s must not be negative", PollIntervalKey)
	}
	if GetBool(EnablePriceFeedKey) && GetDuration(PriceFeedIntervalKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", PriceFeedIntervalKey)
	}

	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetDbDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
