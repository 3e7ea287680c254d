package main

import (
	"fmt"
	"strings"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/mathutil"
	"github.com/urfave/cli/v2"
)

var (
	transferFlags = []cli.Flag{
		walletFlag,
		&cli.StringFlag{
			Name:     "network",
			Usage:    "the network where the payment is made",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "currency",
			Usage:    "the address or the symbol of the currency to send",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount to send, in human readable units, ie. 1.5",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the recipient, either a handle or a chain address",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "exit-network",
			Usage: "the network where a chain address recipient receives the funds",
		},
	}

	plan = cli.Command{
		Name:   "plan",
		Usage:  "show the steps and the fees of a payment without making it",
		Flags:  transferFlags,
		Action: planAction,
	}

	send = cli.Command{
		Name:   "send",
		Usage:  "make a payment",
		Flags:  transferFlags,
		Action: sendAction,
	}
)

func planAction(ctx *cli.Context) error {
	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	intent, err := parseIntent(ctx, svc)
	if err != nil {
		return err
	}

	p, err := svc.PlanTransfer(ctx.Context, ctx.String(walletFlag.Name), intent)
	if err != nil {
		return err
	}
	fee, err := svc.EstimatePlan(ctx.Context, p)
	if err != nil {
		return err
	}

	fmt.Println(p)
	fmt.Println("inputs:", len(p.Consumed))
	fmt.Println("fees:", fee.Total())
	return nil
}

func sendAction(ctx *cli.Context) error {
	svc, cleanup, err := getService()
	if err != nil {
		return err
	}
	defer cleanup()

	intent, err := parseIntent(ctx, svc)
	if err != nil {
		return err
	}

	subID, err := svc.Subscribe(domain.AnyTopic, printPlanEvent)
	if err != nil {
		return err
	}
	defer svc.Unsubscribe(subID)

	c, cancel := interruptibleContext(ctx)
	defer cancel()

	_, res, err := svc.Transfer(c, ctx.String(walletFlag.Name), intent)
	if err != nil {
		return err
	}
	if !res.Success {
		errs := make([]string, 0)
		for _, e := range res.Failures() {
			errs = append(errs, e.Error())
		}
		return fmt.Errorf("payment failed: %s", strings.Join(errs, "; "))
	}

	fmt.Println("payment completed")
	return nil
}

func printPlanEvent(event ports.Event) {
	switch event.Topic {
	case ports.TopicPlanExecutionProgress:
		line := fmt.Sprintf("%3.0f%% %s", event.Progress, event.Data["command"])
		if len(event.Error) > 0 {
			line += " failed: " + event.Error
		}
		fmt.Println(line)
	case ports.TopicPlanExecutionError:
		fmt.Println("error:", event.Error)
	}
}

func parseIntent(
	ctx *cli.Context, svc *application.Service,
) (domain.Intent, error) {
	network, err := svc.Networks().Get(ctx.String("network"))
	if err != nil {
		return domain.Intent{}, err
	}
	currency, err := findCurrency(network, ctx.String("currency"))
	if err != nil {
		return domain.Intent{}, err
	}
	amount, err := mathutil.ToUnits(ctx.String("amount"), currency.Decimals)
	if err != nil {
		return domain.Intent{}, fmt.Errorf("invalid amount: %w", err)
	}
	recipient, err := domain.ParseRecipient(ctx.String("to"))
	if err != nil {
		return domain.Intent{}, err
	}

	intent := domain.Intent{
		Amount:      amount,
		Recipient:   recipient,
		Currency:    currency.Address,
		Network:     network.Slug,
		ExitNetwork: ctx.String("exit-network"),
	}
	return intent, intent.Validate()
}

func findCurrency(network domain.Network, str string) (domain.Currency, error) {
	if c, ok := network.Currency(str); ok {
		return c, nil
	}
	for _, c := range network.Currencies {
		if strings.EqualFold(c.Symbol, str) {
			return c, nil
		}
	}
	return domain.Currency{}, fmt.Errorf(
		"%w: %s on %s", domain.ErrCurrencyNotFound, str, network.Slug,
	)
}
