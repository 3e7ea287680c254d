package main

import (
	"context"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var balances = cli.Command{
	Name:   "balances",
	Usage:  "list the stored balances of a wallet",
	Flags:  []cli.Flag{walletFlag, envFlag},
	Action: balancesAction,
}

type balanceInfo struct {
	Kind     string `json:"kind"`
	Network  string `json:"network"`
	Currency string `json:"currency"`
	Symbol   string `json:"symbol"`
	Balance  string `json:"balance"`
	ValueUSD string `json:"value_usd,omitempty"`
	Source   string `json:"source,omitempty"`
	NoteID   string `json:"note_id,omitempty"`
}

func balancesAction(ctx *cli.Context) error {
	env, err := getEnvironment(ctx)
	if err != nil {
		return err
	}

	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := svc.ListBalances(ctx.Context, ctx.String(walletFlag.Name), env)
	if err != nil {
		return err
	}

	list := make([]balanceInfo, 0, len(entries))
	for _, e := range entries {
		info := balanceInfo{
			Kind:     e.Kind.String(),
			Network:  e.NetworkSlug,
			Currency: e.CurrencyAddress,
			Symbol:   e.Symbol,
			Balance:  e.FormattedBalance().String(),
			Source:   e.Source,
			NoteID:   e.NoteID,
		}
		if value, ok := valuate(ctx.Context, svc, e); ok {
			info.ValueUSD = value
		}
		list = append(list, info)
	}

	printJSON(list)
	return nil
}

func valuate(
	ctx context.Context, svc *application.Service, entry domain.BalanceEntry,
) (string, bool) {
	currency, err := svc.GetCurrency(ctx, entry.NetworkSlug, entry.CurrencyAddress)
	if err != nil || !currency.HasPrice() {
		return "", false
	}
	return domain.Valuate(entry, *currency).StringFixed(2), true
}
