// Package evmchain implements the ChainRpc port over the JSON-RPC API of an
// EVM node.
package evmchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/httputil"
)

const (
	// balanceOf(address)
	balanceOfSelector = "70a08231"
	// balanceOf(uint256,address) of the vault contract, used if the network
	// doesn't configure a different one.
	DefaultVaultBalanceSelector = "0x3656eec2"

	blockTag = "latest"
)

type callMsg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type receipt struct {
	Status string `json:"status"`
}

type client struct {
	rpc           *rpcClient
	network       domain.Network
	vaultSelector string
}

// NewClient returns a ChainRpc for the given network. Requests are limited
// to rateLimit per second, unlimited if <= 0.
func NewClient(network domain.Network, rateLimit int) (ports.ChainRpc, error) {
	if len(network.RPCURL) <= 0 {
		return nil, fmt.Errorf("missing rpc url for network %s", network.Slug)
	}
	if !network.IsEVM() {
		return nil, fmt.Errorf("network %s is not an evm chain", network.Slug)
	}

	selector := network.VaultBalanceSelector
	if len(selector) <= 0 {
		selector = DefaultVaultBalanceSelector
	}
	selector = strings.TrimPrefix(strings.ToLower(selector), "0x")
	if len(selector) != 8 {
		return nil, fmt.Errorf(
			"invalid vault balance selector for network %s", network.Slug,
		)
	}

	http := httputil.NewClient(
		network.RPCURL,
		httputil.WithRateLimit(rateLimit),
		httputil.WithCircuitBreaker("rpc-"+network.Slug),
	)
	return &client{&rpcClient{http: http}, network, selector}, nil
}

func (c *client) NativeBalance(
	ctx context.Context, address string,
) (*big.Int, error) {
	var result string
	if err := c.rpc.call(ctx, &result, "eth_getBalance", address, blockTag); err != nil {
		return nil, err
	}
	return parseQuantity(result)
}

func (c *client) TokenBalance(
	ctx context.Context, token, address string,
) (*big.Int, error) {
	account, err := encodeAddress(address)
	if err != nil {
		return nil, err
	}
	return c.ethCall(ctx, token, balanceOfSelector+account)
}

func (c *client) VaultBalance(
	ctx context.Context, token, address string,
) (*big.Int, error) {
	if len(c.network.VaultAddress) <= 0 {
		return nil, fmt.Errorf("missing vault address for network %s", c.network.Slug)
	}

	tokenID := token
	if currency, ok := c.network.Currency(token); ok {
		tokenID = currency.TokenID()
	}
	id, err := encodeUint(tokenID)
	if err != nil {
		return nil, err
	}
	account, err := encodeAddress(address)
	if err != nil {
		return nil, err
	}
	return c.ethCall(ctx, c.network.VaultAddress, c.vaultSelector+id+account)
}

func (c *client) SendRawTransaction(
	ctx context.Context, rawTx string,
) (string, error) {
	var txHash string
	if err := c.rpc.call(ctx, &txHash, "eth_sendRawTransaction", rawTx); err != nil {
		return "", err
	}
	return txHash, nil
}

// TransactionState returns pending until the transaction is mined.
func (c *client) TransactionState(
	ctx context.Context, txHash string,
) (ports.OperationState, error) {
	var r *receipt
	if err := c.rpc.call(ctx, &r, "eth_getTransactionReceipt", txHash); err != nil {
		return ports.OperationPending, err
	}
	if r == nil {
		return ports.OperationPending, nil
	}

	status, err := parseQuantity(r.Status)
	if err != nil {
		return ports.OperationPending, err
	}
	if status.Sign() == 0 {
		return ports.OperationFailed, nil
	}
	return ports.OperationDone, nil
}

func (c *client) ethCall(
	ctx context.Context, to, data string,
) (*big.Int, error) {
	var result string
	msg := callMsg{To: to, Data: "0x" + data}
	if err := c.rpc.call(ctx, &result, "eth_call", msg, blockTag); err != nil {
		return nil, err
	}
	return parseQuantity(result)
}
