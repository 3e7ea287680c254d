package command

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// aggregatorAggregate consumes some notes and creates two new ones.
//
// Without intent the notes are merged into a single note owned by the
// wallet. With intent, the first output goes to the recipient with the
// intent amount and the second one is the change back to the wallet, zero
// valued if the inputs match the amount exactly. For a raw address the first
// output also carries the fees of the withdrawal steps.
//
// The command returns the output that stays in the wallet plan: the
// destination note if the recipient is a raw address (it's withdrawn by the
// following steps), the change note otherwise.
type aggregatorAggregate struct {
	baseCommand
	notes []domain.BalanceEntry
}

func newAggregatorAggregate(base baseCommand) (ports.Command, error) {
	notes := base.input.Entries()
	for _, n := range notes {
		if err := checkKind(base.name, n, domain.NoteBalance); err != nil {
			return nil, err
		}
	}
	if base.intent != nil {
		if err := base.intent.Validate(); err != nil {
			return nil, err
		}
	}
	return &aggregatorAggregate{base, notes}, nil
}

func (c *aggregatorAggregate) Execute(ctx context.Context) (domain.Payload, error) {
	total := c.input.Total()
	fee, err := c.Estimate(ctx)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to estimate fees: %w", err)
	}
	available := new(big.Int).Sub(total, fee.Total())

	withdrawal, err := c.withdrawalFees(ctx)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to estimate withdrawal fees: %w", err)
	}

	first, second, err := c.outputAmounts(available, withdrawal)
	if err != nil {
		return domain.Payload{}, err
	}

	dest, err := c.destination(ctx)
	if err != nil {
		return domain.Payload{}, err
	}
	change, err := c.factory.crypto.DeriveOwnDestination(ctx, c.walletID)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to derive change destination: %w", err)
	}
	outputs := []ports.NoteOutput{
		{Destination: *dest, Amount: first},
		{Destination: *change, Amount: second},
	}

	proof, err := c.factory.crypto.ProveAggregation(ctx, c.walletID, c.notes, outputs)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to prove aggregation: %w", err)
	}

	inputs := make([]string, 0, len(c.notes))
	for _, n := range c.notes {
		inputs = append(inputs, n.NoteID)
	}
	id, err := c.factory.backend.SubmitAggregatorRequest(ctx, ports.AggregatorRequest{
		Kind:        ports.AggregateRequest,
		NetworkSlug: c.network.Slug,
		Inputs:      inputs,
		Outputs:     outputs,
		Proof:       *proof,
	})
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to submit aggregation: %w", err)
	}
	log.Debugf("%s: submitted aggregation %s of %d notes", c.name, id, len(inputs))

	status, err := c.wait(ctx, id, c.factory.backend.AggregatorRequestStatus)
	if err != nil {
		return domain.Payload{}, err
	}
	if len(status.Notes) < len(outputs) {
		return domain.Payload{}, fmt.Errorf(
			"%w: aggregation %s created %d notes, expected %d",
			ErrMissingNotes, id, len(status.Notes), len(outputs),
		)
	}

	kept := status.Notes[0]
	if c.intent != nil && !c.intent.Recipient.IsRawAddress() {
		kept = status.Notes[1]
	}
	notes, err := c.noteEntries(c.notes[0], []ports.NoteData{kept})
	if err != nil {
		return domain.Payload{}, err
	}
	return domain.SinglePayload(notes[0]), nil
}

// withdrawalFees returns the fees of the steps that take the destination
// note of a raw address intent out of the aggregator, zero otherwise.
func (c *aggregatorAggregate) withdrawalFees(ctx context.Context) (*big.Int, error) {
	total := new(big.Int)
	if c.intent == nil || !c.intent.Recipient.IsRawAddress() {
		return total, nil
	}

	names := []string{
		domain.CommandAggregatorWithdrawToVault, domain.CommandVaultWithdrawToEOA,
	}
	if c.intent.RequiresExit() {
		name := domain.CommandExitBridge
		if c.network.IsNative(c.notes[0].CurrencyAddress) {
			name = domain.CommandExitBridgeNative
		}
		names = append(names, name)
	}

	for _, name := range names {
		fee, err := c.estimateFor(
			ctx, name, c.notes[0].CurrencyAddress, c.intent.Amount, 1,
		)
		if err != nil {
			return nil, err
		}
		total.Add(total, fee.Total())
	}
	return total, nil
}

// outputAmounts splits the available amount between the two outputs. The
// first output carries the intent amount plus the fees needed to withdraw
// it, the second one is the change.
func (c *aggregatorAggregate) outputAmounts(
	available, withdrawal *big.Int,
) (*big.Int, *big.Int, error) {
	if c.intent == nil {
		if available.Sign() <= 0 {
			return nil, nil, fmt.Errorf("%w: notes don't cover fees", ErrAmountTooLow)
		}
		return available, new(big.Int), nil
	}

	first := new(big.Int).Add(c.intent.Amount, withdrawal)
	change := new(big.Int).Sub(available, first)
	if change.Sign() < 0 {
		return nil, nil, fmt.Errorf(
			"%w: %s available, %s required", ErrAmountTooLow, available, first,
		)
	}
	return first, change, nil
}

// destination returns where the first output goes: the recipient for a
// handle, the wallet itself otherwise.
func (c *aggregatorAggregate) destination(
	ctx context.Context,
) (*ports.Destination, error) {
	if c.intent != nil && !c.intent.Recipient.IsRawAddress() {
		dest, err := c.factory.crypto.DeriveStealthDestination(
			ctx, c.intent.Recipient.Handle,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to resolve recipient %s: %w", c.intent.Recipient, err,
			)
		}
		return dest, nil
	}

	dest, err := c.factory.crypto.DeriveOwnDestination(ctx, c.walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive destination: %w", err)
	}
	return dest, nil
}

// aggregatorWithdrawToVault takes a note out of the aggregator, to the vault
// balance of a fresh stealth address of the wallet.
type aggregatorWithdrawToVault struct {
	baseCommand
	note domain.BalanceEntry
}

func newAggregatorWithdrawToVault(base baseCommand) (ports.Command, error) {
	note, err := base.single(domain.NoteBalance)
	if err != nil {
		return nil, err
	}
	return &aggregatorWithdrawToVault{base, note}, nil
}

func (c *aggregatorWithdrawToVault) Execute(ctx context.Context) (domain.Payload, error) {
	amount, _, err := c.afterFees(ctx, c.note.Amount())
	if err != nil {
		return domain.Payload{}, err
	}

	dest, err := c.factory.crypto.DeriveOwnDestination(ctx, c.walletID)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to derive destination: %w", err)
	}

	proof, err := c.factory.crypto.ProveAggregation(
		ctx, c.walletID, []domain.BalanceEntry{c.note}, nil,
	)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to prove withdrawal: %w", err)
	}

	id, err := c.factory.backend.SubmitAggregatorRequest(ctx, ports.AggregatorRequest{
		Kind:        ports.WithdrawToVaultRequest,
		NetworkSlug: c.network.Slug,
		Inputs:      []string{c.note.NoteID},
		Recipient:   dest.Address,
		Proof:       *proof,
	})
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to submit withdrawal: %w", err)
	}
	log.Debugf("%s: submitted withdrawal %s", c.name, id)

	if _, err := c.wait(ctx, id, c.factory.backend.AggregatorRequestStatus); err != nil {
		return domain.Payload{}, err
	}

	vault := c.note.WithKind(domain.VaultBalance).WithBalance(amount, time.Now())
	vault.Source = dest.Address
	if len(vault.VaultTokenID) <= 0 {
		vault.VaultTokenID = c.currency(c.note).TokenID()
	}
	return domain.SinglePayload(vault), nil
}
