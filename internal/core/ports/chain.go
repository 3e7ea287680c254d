package ports

import (
	"context"
	"math/big"
)

// ChainRpc reads balances from, and broadcasts transactions to, a network.
type ChainRpc interface {
	NativeBalance(ctx context.Context, address string) (*big.Int, error)
	TokenBalance(ctx context.Context, token, address string) (*big.Int, error)
	// VaultBalance returns the amount of token held by the vault contract on
	// behalf of the address.
	VaultBalance(ctx context.Context, token, address string) (*big.Int, error)
	SendRawTransaction(ctx context.Context, rawTx string) (string, error)
	TransactionState(ctx context.Context, txHash string) (OperationState, error)
}

// ChainRegistry resolves the rpc client of a network.
type ChainRegistry interface {
	Chain(networkSlug string) (ChainRpc, error)
}
