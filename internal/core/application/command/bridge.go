package command

import (
	"context"
	"fmt"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
)

// exitBridge bridges the intent amount to the recipient on the exit network
// of the intent, spending from a stealth address of the wallet. The same body
// serves both token and native bridging, the backend picks the bridge
// contract from the action name. The surplus stays at the stealth address.
type exitBridge struct {
	baseCommand
	entry domain.BalanceEntry
}

func newExitBridge(base baseCommand) (ports.Command, error) {
	if err := base.requireIntent(); err != nil {
		return nil, err
	}
	if !base.intent.RequiresExit() {
		return nil, fmt.Errorf("%w: %s requires an exit network", ErrInvalidInput, base.name)
	}
	entry, err := base.single(domain.StealthAddressBalance)
	if err != nil {
		return nil, err
	}
	if len(entry.Source) <= 0 {
		return nil, fmt.Errorf(
			"%w: %s requires the address holding the balance", ErrInvalidInput,
			base.name,
		)
	}

	native := base.network.IsNative(entry.CurrencyAddress)
	if native != (base.name == domain.CommandExitBridgeNative) {
		return nil, fmt.Errorf(
			"%w: %s does not bridge %s", ErrInvalidInput, base.name,
			entry.CurrencyAddress,
		)
	}
	return &exitBridge{base, entry}, nil
}

func (c *exitBridge) Execute(ctx context.Context) (domain.Payload, error) {
	if _, err := c.covering(ctx, c.entry.Amount(), c.intent.Amount); err != nil {
		return domain.Payload{}, err
	}

	recipient := c.intent.Recipient.String()
	if _, err := c.relayMetaTransaction(ctx, ports.MetaTransaction{
		NetworkSlug: c.network.Slug,
		Action:      c.name,
		From:        c.entry.Source,
		Params: map[string]string{
			"token":               c.entry.CurrencyAddress,
			"amount":              c.intent.Amount.String(),
			"destination_network": c.intent.ExitNetwork,
			"recipient":           recipient,
		},
	}); err != nil {
		return domain.Payload{}, err
	}

	bridged := c.entry.WithBalance(c.intent.Amount, time.Now())
	bridged.NetworkSlug = c.intent.ExitNetwork
	bridged.Source = recipient
	return domain.SinglePayload(bridged), nil
}
