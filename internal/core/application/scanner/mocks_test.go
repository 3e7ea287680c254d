package scanner_test

import (
	"context"
	"math/big"
	"sync"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockChainRegistry struct {
	chains map[string]ports.ChainRpc
}

func (m mockChainRegistry) Chain(networkSlug string) (ports.ChainRpc, error) {
	chain, ok := m.chains[networkSlug]
	if !ok {
		return nil, domain.ErrNetworkNotFound
	}
	return chain, nil
}

type mockChainRpc struct {
	mock.Mock
}

func (m *mockChainRpc) NativeBalance(
	ctx context.Context, address string,
) (*big.Int, error) {
	args := m.Called(ctx, address)
	var res *big.Int
	if a := args.Get(0); a != nil {
		res = a.(*big.Int)
	}
	return res, args.Error(1)
}

func (m *mockChainRpc) TokenBalance(
	ctx context.Context, token, address string,
) (*big.Int, error) {
	args := m.Called(ctx, token, address)
	var res *big.Int
	if a := args.Get(0); a != nil {
		res = a.(*big.Int)
	}
	return res, args.Error(1)
}

func (m *mockChainRpc) VaultBalance(
	ctx context.Context, token, address string,
) (*big.Int, error) {
	args := m.Called(ctx, token, address)
	var res *big.Int
	if a := args.Get(0); a != nil {
		res = a.(*big.Int)
	}
	return res, args.Error(1)
}

func (m *mockChainRpc) SendRawTransaction(
	ctx context.Context, rawTx string,
) (string, error) {
	args := m.Called(ctx, rawTx)
	return args.String(0), args.Error(1)
}

func (m *mockChainRpc) TransactionState(
	ctx context.Context, txHash string,
) (ports.OperationState, error) {
	args := m.Called(ctx, txHash)
	return args.Get(0).(ports.OperationState), args.Error(1)
}

type mockCryptoCore struct {
	mock.Mock
}

func (m *mockCryptoCore) ViewingKeys(
	ctx context.Context, walletID string,
) (*ports.ViewingKeys, error) {
	args := m.Called(ctx, walletID)
	var res *ports.ViewingKeys
	if a := args.Get(0); a != nil {
		res = a.(*ports.ViewingKeys)
	}
	return res, args.Error(1)
}

func (m *mockCryptoCore) ScanNotes(
	ctx context.Context, keys ports.ViewingKeys, candidates []ports.PublicNote,
) ([]ports.OwnedNote, error) {
	args := m.Called(ctx, keys, candidates)
	var res []ports.OwnedNote
	if a := args.Get(0); a != nil {
		res = a.([]ports.OwnedNote)
	}
	return res, args.Error(1)
}

func (m *mockCryptoCore) GenerateOwnershipProof(
	ctx context.Context, keys ports.ViewingKeys, owned []ports.OwnedNote,
) (*ports.OwnershipProof, error) {
	args := m.Called(ctx, keys, owned)
	var res *ports.OwnershipProof
	if a := args.Get(0); a != nil {
		res = a.(*ports.OwnershipProof)
	}
	return res, args.Error(1)
}

func (m *mockCryptoCore) ProveAggregation(
	ctx context.Context, walletID string,
	inputs []domain.BalanceEntry, outputs []ports.NoteOutput,
) (*ports.AggregationProof, error) {
	args := m.Called(ctx, walletID, inputs, outputs)
	var res *ports.AggregationProof
	if a := args.Get(0); a != nil {
		res = a.(*ports.AggregationProof)
	}
	return res, args.Error(1)
}

func (m *mockCryptoCore) DeriveStealthDestination(
	ctx context.Context, handle string,
) (*ports.Destination, error) {
	args := m.Called(ctx, handle)
	var res *ports.Destination
	if a := args.Get(0); a != nil {
		res = a.(*ports.Destination)
	}
	return res, args.Error(1)
}

func (m *mockCryptoCore) DeriveOwnDestination(
	ctx context.Context, walletID string,
) (*ports.Destination, error) {
	args := m.Called(ctx, walletID)
	var res *ports.Destination
	if a := args.Get(0); a != nil {
		res = a.(*ports.Destination)
	}
	return res, args.Error(1)
}

func (m *mockCryptoCore) SignMetaTransaction(
	ctx context.Context, walletID string, tx ports.MetaTransaction,
) (*ports.SignedMetaTransaction, error) {
	args := m.Called(ctx, walletID, tx)
	var res *ports.SignedMetaTransaction
	if a := args.Get(0); a != nil {
		res = a.(*ports.SignedMetaTransaction)
	}
	return res, args.Error(1)
}

func (m *mockCryptoCore) SignTransaction(
	ctx context.Context, walletID string, tx ports.Transaction,
) (string, error) {
	args := m.Called(ctx, walletID, tx)
	return args.String(0), args.Error(1)
}

type mockBackendApi struct {
	mock.Mock
}

func (m *mockBackendApi) ListNotes(
	ctx context.Context, networkSlug, after string,
) ([]ports.PublicNote, error) {
	args := m.Called(ctx, networkSlug, after)
	var res []ports.PublicNote
	if a := args.Get(0); a != nil {
		res = a.([]ports.PublicNote)
	}
	return res, args.Error(1)
}

func (m *mockBackendApi) SubmitNoteProof(
	ctx context.Context, networkSlug string, proof ports.OwnershipProof,
) ([]ports.NoteData, error) {
	args := m.Called(ctx, networkSlug, proof)
	var res []ports.NoteData
	if a := args.Get(0); a != nil {
		res = a.([]ports.NoteData)
	}
	return res, args.Error(1)
}

func (m *mockBackendApi) SubmitAggregatorRequest(
	ctx context.Context, req ports.AggregatorRequest,
) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockBackendApi) AggregatorRequestStatus(
	ctx context.Context, id string,
) (*ports.OperationStatus, error) {
	args := m.Called(ctx, id)
	var res *ports.OperationStatus
	if a := args.Get(0); a != nil {
		res = a.(*ports.OperationStatus)
	}
	return res, args.Error(1)
}

func (m *mockBackendApi) SubmitCsucAction(
	ctx context.Context, action ports.SignedMetaTransaction,
) (string, error) {
	args := m.Called(ctx, action)
	return args.String(0), args.Error(1)
}

func (m *mockBackendApi) CsucActionStatus(
	ctx context.Context, id string,
) (*ports.OperationStatus, error) {
	args := m.Called(ctx, id)
	var res *ports.OperationStatus
	if a := args.Get(0); a != nil {
		res = a.(*ports.OperationStatus)
	}
	return res, args.Error(1)
}

func (m *mockBackendApi) SubmitMetaTransaction(
	ctx context.Context, tx ports.SignedMetaTransaction,
) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}

func (m *mockBackendApi) MetaTransactionStatus(
	ctx context.Context, id string,
) (*ports.OperationStatus, error) {
	args := m.Called(ctx, id)
	var res *ports.OperationStatus
	if a := args.Get(0); a != nil {
		res = a.(*ports.OperationStatus)
	}
	return res, args.Error(1)
}

func (m *mockBackendApi) EstimateFee(
	ctx context.Context, req ports.FeeRequest,
) (*ports.Fee, error) {
	args := m.Called(ctx, req)
	var res *ports.Fee
	if a := args.Get(0); a != nil {
		res = a.(*ports.Fee)
	}
	return res, args.Error(1)
}

// eventRecorder is a synchronous event bus that keeps all published events.
type eventRecorder struct {
	lock   sync.Mutex
	events []ports.Event
}

func (r *eventRecorder) Publish(event ports.Event) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) Subscribe(string, ports.EventHandler) string {
	return ""
}

func (r *eventRecorder) Unsubscribe(string) {}

func (r *eventRecorder) Close() {}

func (r *eventRecorder) all() []ports.Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]ports.Event{}, r.events...)
}

func (r *eventRecorder) byTopic(topic string) []ports.Event {
	events := make([]ports.Event, 0)
	for _, e := range r.all() {
		if e.Topic == topic {
			events = append(events, e)
		}
	}
	return events
}
