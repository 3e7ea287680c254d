package main

import (
	"fmt"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	address = cli.Command{
		Name:  "address",
		Usage: "manage the addresses of a wallet",
		Subcommands: []*cli.Command{
			addressAddCmd,
		},
	}

	addressAddCmd = &cli.Command{
		Name:      "add",
		Usage:     "add addresses to the address book of a wallet",
		ArgsUsage: "<address>...",
		Flags:     []cli.Flag{walletFlag},
		Action:    addAddressesAction,
	}

	scan = cli.Command{
		Name:  "scan",
		Usage: "refresh the balances of a wallet, or of one of its addresses",
		Flags: []cli.Flag{
			walletFlag,
			envFlag,
			&cli.BoolFlag{
				Name:  "all",
				Usage: "refresh all the addresses and rescan all notes from the first one",
			},
			&cli.BoolFlag{
				Name:  "notes",
				Usage: "refresh only the note balances",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "refresh only the balances of the given address",
			},
		},
		Action: scanAction,
	}
)

func addAddressesAction(ctx *cli.Context) error {
	if ctx.NArg() <= 0 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	count, err := svc.AddAddresses(
		ctx.Context, ctx.String(walletFlag.Name), ctx.Args().Slice(),
	)
	if err != nil {
		return err
	}

	fmt.Printf("added %d new addresses\n", count)
	return nil
}

func scanAction(ctx *cli.Context) error {
	env, err := getEnvironment(ctx)
	if err != nil {
		return err
	}

	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	c, cancel := interruptibleContext(ctx)
	defer cancel()

	opts := application.ScanOptions{
		ScanAll: ctx.Bool("all"),
		OnProgress: func(progress float64) {
			fmt.Printf("\rscanning... %3.0f%%", progress)
		},
	}
	walletID := ctx.String(walletFlag.Name)

	var outcome domain.ScanOutcome
	switch {
	case len(ctx.String("address")) > 0:
		outcome, err = svc.ScanAddressBalances(c, ctx.String("address"), opts)
	case ctx.Bool("notes"):
		outcome, err = svc.ScanNoteBalances(c, walletID, env, opts)
	default:
		outcome, err = svc.ScanWalletBalances(c, walletID, env, opts)
	}
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Println("scan", outcome)
	return nil
}
