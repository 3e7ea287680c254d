package domain

import (
	"fmt"
	"strings"
)

const (
	Mainnet Environment = "mainnet"
	Testnet Environment = "testnet"

	// EVMChain is the only chain kind whose addresses can hold vault balances.
	EVMChain ChainKind = "evm"

	// MinMaxInputs is the lowest aggregation fan-in that lets a reduction
	// terminate.
	MinMaxInputs = 2
)

// Environment splits networks between production and test chains.
type Environment string

// ParseEnvironment parses the given string, case insensitive.
func ParseEnvironment(str string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(str)))
	if !env.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidEnvironment, str)
	}
	return env, nil
}

func (e Environment) IsValid() bool {
	return e == Mainnet || e == Testnet
}

func (e Environment) String() string {
	return string(e)
}

type ChainKind string

// Network describes a chain where the protocol is deployed.
type Network struct {
	Slug                 string
	Environment          Environment
	ChainID              uint64
	Kind                 ChainKind
	RPCURL               string
	NativeCurrency       string
	VaultAddress         string
	VaultBalanceSelector string
	// MaxInputs is the max number of notes an aggregation proof can consume.
	MaxInputs     int
	SupportsNotes bool
	Currencies    []Currency
}

func (n Network) Validate() error {
	if len(n.Slug) <= 0 {
		return ErrMissingNetwork
	}
	if !n.Environment.IsValid() {
		return fmt.Errorf("network %s: %w", n.Slug, ErrInvalidEnvironment)
	}
	if n.MaxInputs < MinMaxInputs {
		return fmt.Errorf("network %s: %w", n.Slug, ErrInvalidMaxInputs)
	}
	return nil
}

// IsNative returns whether the given currency address is the network's
// native asset.
func (n Network) IsNative(currencyAddress string) bool {
	return strings.EqualFold(n.NativeCurrency, currencyAddress)
}

// IsEVM returns whether vault balances can be read on the network.
func (n Network) IsEVM() bool {
	return n.Kind == EVMChain
}

// Currency returns the tracked currency with the given address.
func (n Network) Currency(address string) (Currency, bool) {
	for _, c := range n.Currencies {
		if strings.EqualFold(c.Address, address) {
			return c, true
		}
	}
	return Currency{}, false
}

// Networks is the registry of the networks known to the SDK.
type Networks []Network

func (nn Networks) Validate() error {
	seen := make(map[string]struct{})
	for _, n := range nn {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, ok := seen[n.Slug]; ok {
			return fmt.Errorf("duplicated network %s", n.Slug)
		}
		seen[n.Slug] = struct{}{}
	}
	return nil
}

func (nn Networks) Get(slug string) (Network, error) {
	for _, n := range nn {
		if n.Slug == slug {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: %s", ErrNetworkNotFound, slug)
}

func (nn Networks) ForEnvironment(env Environment) Networks {
	list := make(Networks, 0, len(nn))
	for _, n := range nn {
		if n.Environment == env {
			list = append(list, n)
		}
	}
	return list
}

// NoteNetworks returns the networks of the given environment whose
// aggregator holds notes.
func (nn Networks) NoteNetworks(env Environment) Networks {
	list := make(Networks, 0, len(nn))
	for _, n := range nn.ForEnvironment(env) {
		if n.SupportsNotes {
			list = append(list, n)
		}
	}
	return list
}
