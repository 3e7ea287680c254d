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

// vaultOnboardNative moves the native balance of a stealth address into the
// vault with a plain transfer to the vault contract.
type vaultOnboardNative struct {
	baseCommand
	entry domain.BalanceEntry
}

func newVaultOnboardNative(base baseCommand) (ports.Command, error) {
	entry, err := base.single(domain.StealthAddressBalance)
	if err != nil {
		return nil, err
	}
	if !base.network.IsNative(entry.CurrencyAddress) {
		return nil, fmt.Errorf(
			"%w: %s is not the native currency of %s",
			ErrInvalidInput, entry.CurrencyAddress, base.network.Slug,
		)
	}
	return &vaultOnboardNative{base, entry}, nil
}

func (c *vaultOnboardNative) Execute(ctx context.Context) (domain.Payload, error) {
	amount, _, err := c.afterFees(ctx, c.entry.Amount())
	if err != nil {
		return domain.Payload{}, err
	}

	chain, err := c.factory.chains.Chain(c.network.Slug)
	if err != nil {
		return domain.Payload{}, err
	}

	rawTx, err := c.factory.crypto.SignTransaction(ctx, c.walletID, ports.Transaction{
		NetworkSlug: c.network.Slug,
		From:        c.entry.Source,
		To:          c.network.VaultAddress,
		Value:       amount,
	})
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	txHash, err := chain.SendRawTransaction(ctx, rawTx)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	log.Debugf("%s: broadcasted transaction %s", c.name, txHash)

	if err := c.waitTransaction(ctx, chain, txHash); err != nil {
		return domain.Payload{}, err
	}

	entry := vaultEntryOf(c.baseCommand, c.entry).WithBalance(amount, time.Now())
	return domain.SinglePayload(entry), nil
}

// vaultOnboardERC20 moves the token balance of a stealth address into the
// vault. The approval and deposit are relayed by the backend.
type vaultOnboardERC20 struct {
	baseCommand
	entry domain.BalanceEntry
}

func newVaultOnboardERC20(base baseCommand) (ports.Command, error) {
	entry, err := base.single(domain.StealthAddressBalance)
	if err != nil {
		return nil, err
	}
	if base.network.IsNative(entry.CurrencyAddress) {
		return nil, fmt.Errorf(
			"%w: %s is the native currency of %s",
			ErrInvalidInput, entry.CurrencyAddress, base.network.Slug,
		)
	}
	return &vaultOnboardERC20{base, entry}, nil
}

func (c *vaultOnboardERC20) Execute(ctx context.Context) (domain.Payload, error) {
	amount, _, err := c.afterFees(ctx, c.entry.Amount())
	if err != nil {
		return domain.Payload{}, err
	}

	if _, err := c.relayMetaTransaction(ctx, ports.MetaTransaction{
		NetworkSlug: c.network.Slug,
		Action:      c.name,
		From:        c.entry.Source,
		Params: map[string]string{
			"token":  c.entry.CurrencyAddress,
			"vault":  c.network.VaultAddress,
			"amount": amount.String(),
		},
	}); err != nil {
		return domain.Payload{}, err
	}

	entry := vaultEntryOf(c.baseCommand, c.entry).WithBalance(amount, time.Now())
	return domain.SinglePayload(entry), nil
}

// vaultDepositToAggregator deposits a vault balance into the aggregator as a
// new note owned by the wallet.
type vaultDepositToAggregator struct {
	baseCommand
	entry domain.BalanceEntry
}

func newVaultDepositToAggregator(base baseCommand) (ports.Command, error) {
	entry, err := base.single(domain.VaultBalance)
	if err != nil {
		return nil, err
	}
	return &vaultDepositToAggregator{base, entry}, nil
}

func (c *vaultDepositToAggregator) Execute(ctx context.Context) (domain.Payload, error) {
	amount, _, err := c.afterFees(ctx, c.entry.Amount())
	if err != nil {
		return domain.Payload{}, err
	}

	dest, err := c.factory.crypto.DeriveOwnDestination(ctx, c.walletID)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("failed to derive destination: %w", err)
	}

	status, err := c.relayMetaTransaction(ctx, ports.MetaTransaction{
		NetworkSlug: c.network.Slug,
		Action:      c.name,
		From:        c.entry.Source,
		Params:      depositParams(c.entry.VaultTokenID, amount.String(), *dest),
	})
	if err != nil {
		return domain.Payload{}, err
	}

	return c.depositedNote(c.entry, status)
}

// depositedNote returns the note created by a deposit into the aggregator.
func (c baseCommand) depositedNote(
	from domain.BalanceEntry, status *ports.OperationStatus,
) (domain.Payload, error) {
	if len(status.Notes) <= 0 {
		return domain.Payload{}, fmt.Errorf("%w: deposit %s", ErrMissingNotes, status.ID)
	}
	notes, err := c.noteEntries(from, status.Notes[:1])
	if err != nil {
		return domain.Payload{}, err
	}
	return domain.SinglePayload(notes[0]), nil
}

// vaultWithdrawToEOA sends the intent amount from a vault balance to the raw
// address of the intent recipient. The surplus stays in the vault.
//
// If the intent requires an exit, the whole balance is withdrawn to the
// stealth address of the wallet holding it instead, and the exit bridge
// delivers to the recipient from there.
type vaultWithdrawToEOA struct {
	baseCommand
	entry domain.BalanceEntry
}

func newVaultWithdrawToEOA(base baseCommand) (ports.Command, error) {
	if err := base.requireIntent(); err != nil {
		return nil, err
	}
	if !base.intent.Recipient.IsRawAddress() {
		return nil, fmt.Errorf(
			"%w: %s requires a raw address recipient", ErrInvalidInput, base.name,
		)
	}
	entry, err := base.single(domain.VaultBalance)
	if err != nil {
		return nil, err
	}
	if len(entry.Source) <= 0 {
		return nil, fmt.Errorf(
			"%w: %s requires the address holding the vault balance",
			ErrInvalidInput, base.name,
		)
	}
	return &vaultWithdrawToEOA{base, entry}, nil
}

func (c *vaultWithdrawToEOA) Execute(ctx context.Context) (domain.Payload, error) {
	if c.intent.RequiresExit() {
		return c.withdrawForExit(ctx)
	}

	if _, err := c.covering(ctx, c.entry.Amount(), c.intent.Amount); err != nil {
		return domain.Payload{}, err
	}

	recipient := c.intent.Recipient.Address
	if err := c.withdraw(ctx, c.intent.Amount, recipient); err != nil {
		return domain.Payload{}, err
	}

	// Delivered funds, they don't belong to the wallet anymore.
	delivered := c.entry.WithKind(domain.StealthAddressBalance).
		WithBalance(c.intent.Amount, time.Now())
	delivered.Source = recipient
	return domain.SinglePayload(delivered), nil
}

func (c *vaultWithdrawToEOA) withdrawForExit(ctx context.Context) (domain.Payload, error) {
	amount, _, err := c.afterFees(ctx, c.entry.Amount())
	if err != nil {
		return domain.Payload{}, err
	}
	if err := c.withdraw(ctx, amount, c.entry.Source); err != nil {
		return domain.Payload{}, err
	}

	withdrawn := c.entry.WithKind(domain.StealthAddressBalance).
		WithBalance(amount, time.Now())
	return domain.SinglePayload(withdrawn), nil
}

func (c *vaultWithdrawToEOA) withdraw(
	ctx context.Context, amount *big.Int, to string,
) error {
	_, err := c.relayMetaTransaction(ctx, ports.MetaTransaction{
		NetworkSlug: c.network.Slug,
		Action:      c.name,
		From:        c.entry.Source,
		Params: map[string]string{
			"token_id": c.entry.VaultTokenID,
			"amount":   amount.String(),
			"to":       to,
		},
	})
	return err
}

func vaultEntryOf(c baseCommand, entry domain.BalanceEntry) domain.BalanceEntry {
	vault := entry.WithKind(domain.VaultBalance)
	vault.VaultTokenID = c.currency(entry).TokenID()
	return vault
}

func depositParams(tokenID, amount string, dest ports.Destination) map[string]string {
	return map[string]string{
		"token_id":      tokenID,
		"amount":        amount,
		"owner":         dest.Owner.PublicKey,
		"ephemeral_key": dest.DeliveryTag.EphemeralKey,
		"view_tag":      dest.DeliveryTag.ViewTag,
	}
}
