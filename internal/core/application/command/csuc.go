package command

import (
	"context"
	"fmt"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// csucDepositToAggregator moves a balance held by the cross-chain settlement
// contract into the aggregator as a new note owned by the wallet.
type csucDepositToAggregator struct {
	baseCommand
	entry domain.BalanceEntry
}

func newCsucDepositToAggregator(base baseCommand) (ports.Command, error) {
	entry, err := base.single(domain.UnifiedContractBalance)
	if err != nil {
		return nil, err
	}
	return &csucDepositToAggregator{base, entry}, nil
}

func (c *csucDepositToAggregator) Execute(ctx context.Context) (domain.Payload, error) {
	amount, _, err := c.afterFees(ctx, c.entry.Amount())
	if err != nil {
		return domain.Payload{}, err
	}

	dest, err := c.factory.crypto.DeriveOwnDestination(ctx, c.walletID)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to derive destination: %w", err)
	}

	params := depositParams(
		c.currency(c.entry).TokenID(), amount.String(), *dest,
	)
	params["token"] = c.entry.CurrencyAddress
	signed, err := c.factory.crypto.SignMetaTransaction(
		ctx, c.walletID, ports.MetaTransaction{
			NetworkSlug: c.network.Slug,
			Action:      c.name,
			From:        c.entry.Source,
			Params:      params,
		},
	)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to sign csuc action: %w", err)
	}

	id, err := c.factory.backend.SubmitCsucAction(ctx, *signed)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to submit csuc action: %w", err)
	}
	log.Debugf("%s: submitted csuc action %s", c.name, id)

	status, err := c.wait(ctx, id, c.factory.backend.CsucActionStatus)
	if err != nil {
		return domain.Payload{}, err
	}

	return c.depositedNote(c.entry, status)
}
