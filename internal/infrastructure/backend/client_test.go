package backendclient_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	backendclient "github.com/shieldpay/shieldpay-sdk/internal/infrastructure/backend"
	"github.com/shieldpay/shieldpay-sdk/pkg/httputil"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/networks/sepolia/notes", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "key", r.Header.Get("X-Api-Key"))

		notes := []ports.PublicNote{}
		if r.URL.Query().Get("after") == "" {
			notes = append(notes,
				ports.PublicNote{ID: "n1", NetworkSlug: "sepolia", ViewTag: "aa"},
				ports.PublicNote{ID: "n2", NetworkSlug: "sepolia", ViewTag: "bb"},
			)
		}
		writeJSON(t, w, map[string]interface{}{"notes": notes})
	})
	mux.HandleFunc("/v1/networks/sepolia/notes/proof", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		proof := ports.OwnershipProof{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&proof))
		require.Equal(t, []string{"n1"}, proof.NoteIDs)

		writeJSON(t, w, map[string]interface{}{
			"notes": []ports.NoteData{
				{ID: "n1", NetworkSlug: "sepolia", Amount: big.NewInt(100)},
			},
		})
	})
	mux.HandleFunc("/v1/aggregator/requests", func(w http.ResponseWriter, r *http.Request) {
		req := ports.AggregatorRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, ports.AggregateRequest, req.Kind)
		require.Equal(t, 0, req.Outputs[0].Amount.Cmp(big.NewInt(70)))
		writeJSON(t, w, map[string]string{"id": "req-1"})
	})
	mux.HandleFunc("/v1/aggregator/requests/req-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint
		w.Write([]byte(`{"id":"req-1","state":"done","tx_hash":"0xabc","notes":[{"id":"n3","amount":70}]}`))
	})
	mux.HandleFunc("/v1/meta-transactions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{})
	})
	mux.HandleFunc("/v1/csuc/actions/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "action not found", http.StatusNotFound)
	})
	mux.HandleFunc("/v1/fees/estimate", func(w http.ResponseWriter, r *http.Request) {
		req := ports.FeeRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "aggregator-aggregate", req.Command)
		require.Equal(t, 2, req.Inputs)
		writeJSON(t, w, ports.Fee{
			ProtocolFee: big.NewInt(5), NetworkFee: big.NewInt(7),
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestBackendClient(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	client, err := backendclient.NewClient(server.URL, "key", 0)
	require.NoError(t, err)

	t.Run("list notes", func(t *testing.T) {
		notes, err := client.ListNotes(ctx, "sepolia", "")
		require.NoError(t, err)
		require.Len(t, notes, 2)
		require.Equal(t, "n1", notes[0].ID)

		notes, err = client.ListNotes(ctx, "sepolia", "n2")
		require.NoError(t, err)
		require.Empty(t, notes)
	})

	t.Run("submit note proof", func(t *testing.T) {
		notes, err := client.SubmitNoteProof(ctx, "sepolia", ports.OwnershipProof{
			NoteIDs: []string{"n1"}, Proof: "proof",
		})
		require.NoError(t, err)
		require.Len(t, notes, 1)
		require.Equal(t, "100", notes[0].Amount.String())
	})

	t.Run("aggregator request", func(t *testing.T) {
		id, err := client.SubmitAggregatorRequest(ctx, ports.AggregatorRequest{
			Kind:        ports.AggregateRequest,
			NetworkSlug: "sepolia",
			Inputs:      []string{"n1"},
			Outputs:     []ports.NoteOutput{{Amount: big.NewInt(70)}},
		})
		require.NoError(t, err)
		require.Equal(t, "req-1", id)

		status, err := client.AggregatorRequestStatus(ctx, id)
		require.NoError(t, err)
		require.Equal(t, ports.OperationDone, status.State)
		require.Equal(t, "0xabc", status.TxHash)
		require.Len(t, status.Notes, 1)
		require.Equal(t, "70", status.Notes[0].Amount.String())
	})

	t.Run("missing operation id", func(t *testing.T) {
		_, err := client.SubmitMetaTransaction(ctx, ports.SignedMetaTransaction{})
		require.Error(t, err)
	})

	t.Run("error status", func(t *testing.T) {
		_, err := client.CsucActionStatus(ctx, "missing")
		require.Error(t, err)

		statusErr := &httputil.StatusError{}
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})

	t.Run("estimate fee", func(t *testing.T) {
		fee, err := client.EstimateFee(ctx, ports.FeeRequest{
			Command: "aggregator-aggregate", NetworkSlug: "sepolia",
			Amount: big.NewInt(100), Inputs: 2,
		})
		require.NoError(t, err)
		require.Equal(t, "12", fee.Total().String())
	})
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := backendclient.NewClient("not a url", "", 0)
	require.Error(t, err)
}
