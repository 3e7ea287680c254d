package evmchain_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	evmchain "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/chain/evm"
	"github.com/stretchr/testify/require"
)

const (
	account = "0x8ba1f109551bd432803012645ac136ddd64dba72"
	usdc    = "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238"
	vault   = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
)

type rpcRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newNode(t *testing.T) *httptest.Server {
	paddedAccount := strings.Repeat("0", 24) + strings.TrimPrefix(account, "0x")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := rpcRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		var rpcErr map[string]interface{}

		switch req.Method {
		case "eth_getBalance":
			result = "0xde0b6b3a7640000"
		case "eth_call":
			call := map[string]string{}
			require.NoError(t, json.Unmarshal(req.Params[0], &call))

			switch {
			case strings.EqualFold(call["to"], usdc):
				require.Equal(t, "0x70a08231"+paddedAccount, call["data"])
				result = "0x00000000000000000000000000000000000000000000000000000000000f4240"
			case strings.EqualFold(call["to"], vault):
				tokenID := strings.Repeat("0", 63) + "1"
				require.Equal(t, "0xabcdef01"+tokenID+paddedAccount, call["data"])
				result = "0x0"
			default:
				rpcErr = map[string]interface{}{"code": -32000, "message": "execution reverted"}
			}
		case "eth_sendRawTransaction":
			result = "0x1234"
		case "eth_getTransactionReceipt":
			var hash string
			require.NoError(t, json.Unmarshal(req.Params[0], &hash))
			switch hash {
			case "0xmined":
				result = map[string]string{"status": "0x1"}
			case "0xreverted":
				result = map[string]string{"status": "0x0"}
			default:
				result = nil
			}
		default:
			rpcErr = map[string]interface{}{"code": -32601, "message": "method not found"}
		}

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)
	return server
}

func newNetwork(rpcURL string) domain.Network {
	return domain.Network{
		Slug:                 "sepolia",
		Environment:          domain.Testnet,
		Kind:                 domain.EVMChain,
		RPCURL:               rpcURL,
		NativeCurrency:       "0x0000000000000000000000000000000000000000",
		VaultAddress:         vault,
		VaultBalanceSelector: "0xabcdef01",
		MaxInputs:            2,
		Currencies: []domain.Currency{
			{Address: usdc, NetworkSlug: "sepolia", Symbol: "USDC", VaultTokenID: "1"},
		},
	}
}

func TestEvmClient(t *testing.T) {
	ctx := context.Background()
	node := newNode(t)

	client, err := evmchain.NewClient(newNetwork(node.URL), 0)
	require.NoError(t, err)

	balance, err := client.NativeBalance(ctx, account)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", balance.String())

	balance, err = client.TokenBalance(ctx, usdc, account)
	require.NoError(t, err)
	require.Equal(t, "1000000", balance.String())

	balance, err = client.VaultBalance(ctx, usdc, account)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	_, err = client.TokenBalance(ctx, "0x00000000000000000000000000000000000000ff", account)
	require.Error(t, err)
	rpcErr := &evmchain.RPCError{}
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -32000, rpcErr.Code)

	_, err = client.TokenBalance(ctx, usdc, "0x1234")
	require.Error(t, err)

	hash, err := client.SendRawTransaction(ctx, "0xf86c")
	require.NoError(t, err)
	require.Equal(t, "0x1234", hash)

	state, err := client.TransactionState(ctx, "0xmined")
	require.NoError(t, err)
	require.Equal(t, ports.OperationDone, state)

	state, err = client.TransactionState(ctx, "0xreverted")
	require.NoError(t, err)
	require.Equal(t, ports.OperationFailed, state)

	state, err = client.TransactionState(ctx, "0xunknown")
	require.NoError(t, err)
	require.Equal(t, ports.OperationPending, state)
}

func TestNewClientInvalid(t *testing.T) {
	network := newNetwork("")
	_, err := evmchain.NewClient(network, 0)
	require.Error(t, err)

	network = newNetwork("http://localhost:8545")
	network.Kind = "utxo"
	_, err = evmchain.NewClient(network, 0)
	require.Error(t, err)

	network = newNetwork("http://localhost:8545")
	network.VaultBalanceSelector = "0x1234"
	_, err = evmchain.NewClient(network, 0)
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	node := newNode(t)
	registry := evmchain.NewRegistry(domain.Networks{newNetwork(node.URL)}, 0)

	c1, err := registry.Chain("sepolia")
	require.NoError(t, err)
	c2, err := registry.Chain("sepolia")
	require.NoError(t, err)
	require.True(t, c1 == c2)

	_, err = registry.Chain("mainnet")
	require.ErrorIs(t, err, domain.ErrNetworkNotFound)
}
