package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shieldpay/shieldpay-sdk/internal/config"
	"github.com/shieldpay/shieldpay-sdk/internal/core/application"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	backendclient "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/backend"
	evmchain "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/chain/evm"
	cryptocoreclient "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/cryptocore"
	krakenfeeder "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/feeder/kraken"
	"github.com/shieldpay/shieldpay-sdk/internal/infrastructure/pubsub"
	dbbadger "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/storage/db/badger"
	"github.com/shieldpay/shieldpay-sdk/pkg/poller"
	"github.com/shieldpay/shieldpay-sdk/pkg/stats"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	datadirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "the directory where the SDK stores its state and config file",
	}
	statsFlag = &cli.StringFlag{
		Name:  "stats",
		Usage: "dump the collected metrics to the given file on exit",
	}
	walletFlag = &cli.StringFlag{
		Name:     "wallet",
		Usage:    "the id of the wallet",
		Required: true,
	}
	envFlag = &cli.StringFlag{
		Name:  "env",
		Usage: "the environment of the networks to use: mainnet or testnet",
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "shieldpay"
	app.Usage = "Command line interface for shielded payments"
	app.Flags = []cli.Flag{datadirFlag, statsFlag}
	app.Before = beforeAction
	app.After = afterAction
	app.Commands = append(
		app.Commands,
		&address,
		&scan,
		&balances,
		&plan,
		&send,
		&webhook,
		&listwebhooks,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func beforeAction(ctx *cli.Context) error {
	if datadir := ctx.String(datadirFlag.Name); len(datadir) > 0 {
		return os.Setenv("SHIELDPAY_DATADIR", datadir)
	}
	return nil
}

func afterAction(ctx *cli.Context) error {
	filename := ctx.String(statsFlag.Name)
	if len(filename) <= 0 {
		filename = os.Getenv("SHIELDPAY_STATS_FILE")
	}
	if len(filename) <= 0 {
		return nil
	}
	return stats.DumpPrometheusDefaults(filename)
}

// getService loads the config and returns the SDK service with all its
// dependencies. The returned func must be called to release them.
func getService() (*application.Service, func(), error) {
	if err := config.InitConfig(); err != nil {
		return nil, nil, err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	networks, err := config.GetNetworks()
	if err != nil {
		return nil, nil, err
	}
	if len(networks) <= 0 {
		return nil, nil, fmt.Errorf(
			"no networks configured, add them to %s/%s",
			config.GetDatadir(), config.ConfigFilename,
		)
	}

	backend, err := backendclient.NewClient(
		config.GetString(config.BackendUrlKey),
		config.GetString(config.BackendApiKeyKey),
		config.GetInt(config.BackendRateLimitKey),
	)
	if err != nil {
		return nil, nil, err
	}
	crypto, err := cryptocoreclient.NewClient(
		config.GetString(config.ProverUrlKey),
		config.GetDuration(config.ProverTimeoutKey),
	)
	if err != nil {
		return nil, nil, err
	}
	chains := evmchain.NewRegistry(networks, config.GetInt(config.ChainRateLimitKey))

	var priceFeeder ports.PriceFeeder
	if config.GetBool(config.EnablePriceFeedKey) {
		priceFeeder, err = krakenfeeder.NewKrakenPriceFeeder(
			config.GetString(config.PriceFeedUrlKey),
			config.GetDuration(config.PriceFeedIntervalKey),
		)
		if err != nil {
			return nil, nil, err
		}
	}

	repoManager, err := dbbadger.NewRepoManager(
		config.GetDbDir(), log.StandardLogger(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}

	webhooks, err := pubsub.NewService(
		repoManager.WebhookRepository(),
		config.GetDuration(config.WebhookTimeoutKey),
	)
	if err != nil {
		repoManager.Close()
		return nil, nil, err
	}

	svc, err := application.NewService(application.Config{
		Networks:         networks,
		RepoManager:      repoManager,
		CryptoCore:       crypto,
		BackendApi:       backend,
		ChainRegistry:    chains,
		PriceFeeder:      priceFeeder,
		WebhookPublisher: webhooks,
		PollOpts: poller.Opts{
			Interval:   config.GetDuration(config.PollIntervalKey),
			MaxRetries: config.GetInt(config.PollMaxRetriesKey),
		},
		ScanAddressLimit: config.GetInt(config.ScanAddressLimitKey),
	})
	if err != nil {
		repoManager.Close()
		return nil, nil, err
	}

	cleanup := func() {
		svc.Close()
		repoManager.Close()
	}
	return svc, cleanup, nil
}

// getEnvironment returns the environment given with the env flag, the
// configured one otherwise.
func getEnvironment(ctx *cli.Context) (domain.Environment, error) {
	if env := ctx.String(envFlag.Name); len(env) > 0 {
		return domain.ParseEnvironment(env)
	}
	return config.GetEnvironment(), nil
}

// interruptibleContext returns a context cancelled on SIGINT or SIGTERM.
func interruptibleContext(ctx *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
}

func printJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[shieldpay] %v\n", err)
	}
	os.Exit(1)
}

func isTopic(topic string) bool {
	if topic == domain.AnyTopic {
		return true
	}
	for _, t := range ports.Topics {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}
