package command

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/poller"
	log "github.com/sirupsen/logrus"
)

type baseCommand struct {
	factory  *Factory
	id       string
	name     string
	input    domain.Payload
	intent   *domain.Intent
	network  domain.Network
	walletID string
}

func (c baseCommand) ID() string {
	return c.id
}

func (c baseCommand) Name() string {
	return c.name
}

// Estimate asks the backend for the fees of the command given its input.
func (c baseCommand) Estimate(ctx context.Context) (*ports.Fee, error) {
	entries := c.input.Entries()
	return c.estimateFor(
		ctx, c.name, entries[0].CurrencyAddress, c.input.Total(), len(entries),
	)
}

// estimateFor asks the backend for the fees of the named command.
func (c baseCommand) estimateFor(
	ctx context.Context, name, currency string, amount *big.Int, inputs int,
) (*ports.Fee, error) {
	fee, err := c.factory.backend.EstimateFee(ctx, ports.FeeRequest{
		Command:         name,
		NetworkSlug:     c.network.Slug,
		CurrencyAddress: currency,
		Amount:          amount,
		Inputs:          inputs,
	})
	if err != nil {
		return nil, err
	}
	if fee == nil {
		fee = &ports.Fee{}
	}
	return fee, nil
}

// single returns the only input entry, which must be of one of the given
// kinds.
func (c baseCommand) single(kinds ...domain.BalanceKind) (domain.BalanceEntry, error) {
	entry, ok := c.input.Entry()
	if !ok {
		entries := c.input.Entries()
		if len(entries) != 1 {
			return domain.BalanceEntry{}, fmt.Errorf(
				"%w: %s expects a single entry, got %d",
				ErrInvalidInput, c.name, len(entries),
			)
		}
		entry = entries[0]
	}
	if err := checkKind(c.name, entry, kinds...); err != nil {
		return domain.BalanceEntry{}, err
	}
	return entry, nil
}

func (c baseCommand) requireIntent() error {
	if c.intent == nil {
		return fmt.Errorf("%w: %s", ErrMissingIntent, c.name)
	}
	return c.intent.Validate()
}

// afterFees estimates the command and returns the amount left once fees are
// paid.
func (c baseCommand) afterFees(
	ctx context.Context, amount *big.Int,
) (*big.Int, *ports.Fee, error) {
	fee, err := c.Estimate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to estimate fees: %w", err)
	}
	left := new(big.Int).Sub(amount, fee.Total())
	if left.Sign() <= 0 {
		return nil, nil, fmt.Errorf(
			"%w: %s doesn't cover fees of %s", ErrAmountTooLow, amount, fee.Total(),
		)
	}
	return left, fee, nil
}

// covering estimates the command and returns the fee, failing if the input
// doesn't cover the given amount plus fees.
func (c baseCommand) covering(
	ctx context.Context, balance, amount *big.Int,
) (*ports.Fee, error) {
	fee, err := c.Estimate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate fees: %w", err)
	}
	required := new(big.Int).Add(amount, fee.Total())
	if balance.Cmp(required) < 0 {
		return nil, fmt.Errorf(
			"%w: %s available, %s required", ErrAmountTooLow, balance, required,
		)
	}
	return fee, nil
}

// currency returns the metadata of the currency of the given entry.
func (c baseCommand) currency(entry domain.BalanceEntry) domain.Currency {
	if currency, ok := c.network.Currency(entry.CurrencyAddress); ok {
		return currency
	}
	return domain.Currency{
		Address:     entry.CurrencyAddress,
		NetworkSlug: entry.NetworkSlug,
		Symbol:      entry.Symbol,
		Decimals:    entry.Decimals,
		Native:      c.network.IsNative(entry.CurrencyAddress),
	}
}

// noteEntries converts the notes created by an operation to balance entries
// of the wallet.
func (c baseCommand) noteEntries(
	template domain.BalanceEntry, notes []ports.NoteData,
) ([]domain.BalanceEntry, error) {
	currency := c.currency(template)
	now := time.Now()
	entries := make([]domain.BalanceEntry, 0, len(notes))
	for _, n := range notes {
		if len(n.NetworkSlug) <= 0 {
			n.NetworkSlug = c.network.Slug
		}
		if len(n.CurrencyAddress) <= 0 {
			n.CurrencyAddress = template.CurrencyAddress
		}
		if len(n.VaultTokenID) <= 0 {
			n.VaultTokenID = currency.TokenID()
		}
		entry := n.ToBalanceEntry(c.walletID, template.Environment, currency, now)
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("invalid note %s: %w", n.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// relayMetaTransaction signs the action with the wallet keys and waits for
// the backend to relay it.
func (c baseCommand) relayMetaTransaction(
	ctx context.Context, tx ports.MetaTransaction,
) (*ports.OperationStatus, error) {
	signed, err := c.factory.crypto.SignMetaTransaction(ctx, c.walletID, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign meta-transaction: %w", err)
	}

	id, err := c.factory.backend.SubmitMetaTransaction(ctx, *signed)
	if err != nil {
		return nil, fmt.Errorf("failed to submit meta-transaction: %w", err)
	}
	log.Debugf("%s: submitted meta-transaction %s", c.name, id)

	return c.wait(ctx, id, c.factory.backend.MetaTransactionStatus)
}

// wait polls the status of the backend operation with the given id until it
// terminates.
func (c baseCommand) wait(
	ctx context.Context, id string,
	status func(context.Context, string) (*ports.OperationStatus, error),
) (*ports.OperationStatus, error) {
	var last *ports.OperationStatus
	err := poller.Until(
		ctx, c.factory.pollOpts,
		func(ctx context.Context) (poller.State, string, error) {
			st, err := status(ctx, id)
			if err != nil {
				return poller.Pending, "", err
			}
			last = st
			return pollerState(st.State), st.Reason, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", id, err)
	}
	return last, nil
}

// waitTransaction polls the chain until the transaction is confirmed.
func (c baseCommand) waitTransaction(
	ctx context.Context, chain ports.ChainRpc, txHash string,
) error {
	return poller.Until(
		ctx, c.factory.pollOpts,
		func(ctx context.Context) (poller.State, string, error) {
			state, err := chain.TransactionState(ctx, txHash)
			if err != nil {
				return poller.Pending, "", err
			}
			if state == ports.OperationFailed {
				return poller.Failed, fmt.Sprintf("transaction %s reverted", txHash), nil
			}
			return pollerState(state), "", nil
		},
	)
}

func pollerState(state ports.OperationState) poller.State {
	switch state {
	case ports.OperationDone:
		return poller.Done
	case ports.OperationFailed:
		return poller.Failed
	default:
		return poller.Pending
	}
}

func checkKind(
	name string, entry domain.BalanceEntry, kinds ...domain.BalanceKind,
) error {
	for _, k := range kinds {
		if entry.Kind == k {
			return nil
		}
	}
	return fmt.Errorf(
		"%w: %s does not accept %s entries", ErrInvalidInput, name, entry.Kind,
	)
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
