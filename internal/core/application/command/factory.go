package command

import (
	"fmt"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/poller"
)

type constructor func(base baseCommand) (ports.Command, error)

// registry is the closed set of commands a plan can be made of.
var registry = map[string]constructor{
	domain.CommandVaultOnboardNative:        newVaultOnboardNative,
	domain.CommandVaultOnboardERC20:         newVaultOnboardERC20,
	domain.CommandVaultDepositToAggregator:  newVaultDepositToAggregator,
	domain.CommandCsucDepositToAggregator:   newCsucDepositToAggregator,
	domain.CommandAggregatorAggregate:       newAggregatorAggregate,
	domain.CommandAggregatorWithdrawToVault: newAggregatorWithdrawToVault,
	domain.CommandVaultWithdrawToEOA:        newVaultWithdrawToEOA,
	domain.CommandExitBridge:                newExitBridge,
	domain.CommandExitBridgeNative:          newExitBridge,
}

// Names returns the names of all the known commands.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Factory builds the commands of a plan on top of the crypto core, the
// protocol backend and the chain rpc clients.
type Factory struct {
	networks domain.Networks
	crypto   ports.CryptoCore
	backend  ports.BackendApi
	chains   ports.ChainRegistry
	pollOpts poller.Opts
}

func NewFactory(
	networks domain.Networks,
	crypto ports.CryptoCore,
	backend ports.BackendApi,
	chains ports.ChainRegistry,
	pollOpts poller.Opts,
) (*Factory, error) {
	if crypto == nil {
		return nil, fmt.Errorf("missing crypto core")
	}
	if backend == nil {
		return nil, fmt.Errorf("missing backend")
	}
	if chains == nil {
		return nil, fmt.Errorf("missing chain registry")
	}
	if pollOpts.MaxRetries <= 0 {
		pollOpts = poller.DefaultOpts
	}
	return &Factory{networks, crypto, backend, chains, pollOpts}, nil
}

// NewCommand returns the command with the given name. Unknown names are
// rejected with ErrUnknownCommand.
func (f *Factory) NewCommand(
	id, name string, input domain.Payload, intent *domain.Intent,
) (ports.Command, error) {
	newCommand, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	if input.IsEmpty() {
		return nil, fmt.Errorf("%w: %s has no input entries", ErrInvalidInput, name)
	}
	entries := input.Entries()
	first := entries[0]
	for _, e := range entries[1:] {
		if e.NetworkSlug != first.NetworkSlug ||
			e.WalletID != first.WalletID ||
			!sameAddress(e.CurrencyAddress, first.CurrencyAddress) {
			return nil, fmt.Errorf(
				"%w: %s input mixes wallets, networks or currencies",
				ErrInvalidInput, name,
			)
		}
	}

	network, err := f.networks.Get(first.NetworkSlug)
	if err != nil {
		return nil, err
	}

	return newCommand(baseCommand{
		factory:  f,
		id:       id,
		name:     name,
		input:    input,
		intent:   intent,
		network:  network,
		walletID: first.WalletID,
	})
}
