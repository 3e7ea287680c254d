package evmchain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/shieldpay/shieldpay-sdk/pkg/httputil"
)

const jsonRPCVersion = "2.0"

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcClient struct {
	http   *httputil.Client
	nextID uint64
}

func (c *rpcClient) call(
	ctx context.Context, out interface{}, method string, params ...interface{},
) error {
	if params == nil {
		params = []interface{}{}
	}
	req := rpcRequest{
		JSONRPC: jsonRPCVersion,
		ID:      atomic.AddUint64(&c.nextID, 1),
		Method:  method,
		Params:  params,
	}

	resp := &rpcResponse{}
	if err := c.http.Post(ctx, "", req, resp); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if out == nil || len(resp.Result) <= 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}

func parseQuantity(str string) (*big.Int, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	if len(hex) <= 0 {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", str)
	}
	return n, nil
}

// encodeAddress left pads the given address to a 32 bytes abi word.
func encodeAddress(address string) (string, error) {
	hex := strings.ToLower(strings.TrimPrefix(address, "0x"))
	if len(hex) != 40 {
		return "", fmt.Errorf("invalid address %q", address)
	}
	return strings.Repeat("0", 24) + hex, nil
}

// encodeUint left pads the given decimal or hex number to a 32 bytes abi
// word.
func encodeUint(value string) (string, error) {
	n, ok := new(big.Int).SetString(value, 0)
	if !ok || n.Sign() < 0 {
		return "", fmt.Errorf("invalid uint %q", value)
	}
	hex := n.Text(16)
	if len(hex) > 64 {
		return "", fmt.Errorf("uint %q overflows 256 bits", value)
	}
	return strings.Repeat("0", 64-len(hex)) + hex, nil
}
