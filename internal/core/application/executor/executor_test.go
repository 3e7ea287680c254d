package executor_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application/executor"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

var (
	ctx        = context.Background()
	errFailing = fmt.Errorf("command failed")
	errUnknown = fmt.Errorf("unknown command")
)

func newNote(amount int64) domain.BalanceEntry {
	return domain.BalanceEntry{
		Kind:            domain.NoteBalance,
		WalletID:        "wallet",
		NetworkSlug:     "sepolia",
		Environment:     domain.Testnet,
		CurrencyAddress: "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238",
		Symbol:          "USDC",
		Decimals:        6,
		Balance:         big.NewInt(amount),
		LastUpdated:     time.Now(),
		NoteID:          randstr.Hex(32),
		VaultTokenID:    "1",
		Owner:           &domain.NoteOwner{PublicKey: randstr.Hex(32)},
	}
}

func payloadOf(amount int64) domain.Payload {
	return domain.SinglePayload(newNote(amount))
}

// mockExecution makes the command with the given name return out, or fail if
// out is nil.
func mockExecution(
	factory *mockCommandFactory, name string, out *domain.Payload,
) *mockCommand {
	cmd := newMockCommand(name)
	if out != nil {
		cmd.On("Execute", mock.Anything).Return(*out, nil)
	} else {
		cmd.On("Execute", mock.Anything).Return(domain.Payload{}, errFailing)
	}
	factory.On("NewCommand", name, mock.Anything).Return(cmd, nil)
	return cmd
}

func newExecutor(t *testing.T, factory ports.CommandFactory) *executor.Executor {
	exec, err := executor.NewExecutor(factory)
	require.NoError(t, err)
	return exec
}

func TestDataThreading(t *testing.T) {
	factory := &mockCommandFactory{}
	x := payloadOf(10)
	y := payloadOf(9)
	z := payloadOf(8)

	a := newMockCommand("a")
	a.On("Execute", mock.Anything).Return(y, nil)
	b := newMockCommand("b")
	b.On("Execute", mock.Anything).Return(z, nil)
	factory.On("NewCommand", "a", x).Return(a, nil)
	factory.On("NewCommand", "b", y).Return(b, nil)

	plan := domain.NewSerial(
		domain.NewData(x),
		domain.NewCommand("a", nil),
		domain.NewCommand("b", nil),
	)

	res, err := newExecutor(t, factory).Execute(ctx, plan, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Items, 3)
	require.Equal(t, z, res.Data)
	factory.AssertExpectations(t)
}

func TestSerialShortCircuit(t *testing.T) {
	factory := &mockCommandFactory{}
	out := payloadOf(1)
	a := mockExecution(factory, "a", &out)
	b := mockExecution(factory, "b", nil)

	plan := domain.NewSerial(
		domain.NewCommand("a", nil),
		domain.NewCommand("b", nil),
		domain.NewCommand("c", nil),
	)
	input := payloadOf(2)

	res, err := newExecutor(t, factory).Execute(ctx, plan, &input)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, errFailing)
	require.Len(t, res.Items, 2)
	require.True(t, res.Items[0].Success)
	require.False(t, res.Items[1].Success)

	a.AssertNumberOfCalls(t, "Execute", 1)
	b.AssertNumberOfCalls(t, "Execute", 1)
	factory.AssertNotCalled(t, "NewCommand", "c", mock.Anything)
}

func TestParallelCompleteness(t *testing.T) {
	factory := &mockCommandFactory{}
	outA := payloadOf(1)
	outC := payloadOf(3)
	a := mockExecution(factory, "a", &outA)
	b := mockExecution(factory, "b", nil)
	c := mockExecution(factory, "c", &outC)

	plan := domain.NewParallel(
		domain.NewSerial(domain.NewData(payloadOf(1)), domain.NewCommand("a", nil)),
		domain.NewSerial(domain.NewData(payloadOf(2)), domain.NewCommand("b", nil)),
		domain.NewSerial(domain.NewData(payloadOf(3)), domain.NewCommand("c", nil)),
	)

	res, err := newExecutor(t, factory).Execute(ctx, plan, nil)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, errFailing)
	require.Len(t, res.Items, 3)

	pattern := make([]bool, 0, 3)
	for _, item := range res.Items {
		pattern = append(pattern, item.Success)
	}
	require.Equal(t, []bool{true, false, true}, pattern)
	require.Len(t, res.Failures(), 1)

	for _, cmd := range []*mockCommand{a, b, c} {
		cmd.AssertNumberOfCalls(t, "Execute", 1)
	}
}

func TestParallelFlattensData(t *testing.T) {
	factory := &mockCommandFactory{}
	multi := domain.MultiPayload([]domain.BalanceEntry{newNote(1), newNote(2)})
	single := payloadOf(3)

	res, err := newExecutor(t, factory).Execute(ctx, domain.NewParallel(
		domain.NewData(multi), domain.NewData(single),
	), nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, res.Data.IsMulti())
	require.Len(t, res.Data.Entries(), 3)
	require.Equal(t, "6", res.Data.Total().String())
}

func TestShapeIsomorphism(t *testing.T) {
	factory := &mockCommandFactory{}
	out := payloadOf(5)
	mockExecution(factory, domain.CommandVaultDepositToAggregator, &out)
	mockExecution(factory, domain.CommandAggregatorAggregate, &out)

	plan := domain.NewSerial(
		domain.NewParallel(
			domain.NewSerial(
				domain.NewData(payloadOf(1)),
				domain.NewCommand(domain.CommandVaultDepositToAggregator, nil),
			),
			domain.NewData(payloadOf(2)),
			domain.NewSerial(
				domain.NewParallel(
					domain.NewData(payloadOf(3)), domain.NewData(payloadOf(4)),
				),
				domain.NewCommand(domain.CommandAggregatorAggregate, nil),
			),
		),
		domain.NewCommand(domain.CommandAggregatorAggregate, nil),
	)

	res, err := newExecutor(t, factory).Execute(ctx, plan, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	requireSameShape(t, plan, res)
}

func requireSameShape(
	t *testing.T, node domain.PlanNode, res domain.ExecutionResult,
) {
	switch n := node.(type) {
	case *domain.SerialNode:
		require.LessOrEqual(t, len(res.Items), len(n.Items))
		for i, item := range res.Items {
			requireSameShape(t, n.Items[i], item)
		}
	case *domain.ParallelNode:
		require.Len(t, res.Items, len(n.Items))
		for i, item := range res.Items {
			requireSameShape(t, n.Items[i], item)
		}
	default:
		require.Empty(t, res.Items)
	}
}

func TestObserver(t *testing.T) {
	factory := &mockCommandFactory{}
	out := payloadOf(1)
	mockExecution(factory, "a", &out)
	mockExecution(factory, "b", nil)

	plan := domain.NewParallel(
		domain.NewSerial(domain.NewData(payloadOf(1)), domain.NewCommand("a", nil)),
		domain.NewSerial(domain.NewData(payloadOf(1)), domain.NewCommand("a", nil)),
		domain.NewSerial(domain.NewData(payloadOf(1)), domain.NewCommand("b", nil)),
	)

	lock := &sync.Mutex{}
	outcomes := map[string][]bool{}
	res, err := newExecutor(t, factory).ExecuteObserved(
		ctx, plan, nil,
		func(node *domain.CommandNode, r domain.ExecutionResult) {
			lock.Lock()
			defer lock.Unlock()
			outcomes[node.Name] = append(outcomes[node.Name], r.Success)
		},
	)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, []bool{true, true}, outcomes["a"])
	require.Equal(t, []bool{false}, outcomes["b"])
}

func TestExecuteDefects(t *testing.T) {
	factory := &mockCommandFactory{}
	factory.On("NewCommand", "unknown", mock.Anything).Return(nil, errUnknown)
	exec := newExecutor(t, factory)

	tests := []struct {
		name  string
		plan  domain.PlanNode
		input *domain.Payload
		err   error
	}{
		{
			name: "empty serial",
			plan: domain.NewSerial(),
			err:  executor.ErrEmptySerial,
		},
		{
			name: "nested empty serial",
			plan: domain.NewParallel(domain.NewData(payloadOf(1)), domain.NewSerial()),
			err:  executor.ErrEmptySerial,
		},
		{
			name: "missing input",
			plan: domain.NewCommand("a", nil),
			err:  executor.ErrMissingInput,
		},
		{
			name: "command inside parallel",
			plan: domain.NewParallel(domain.NewCommand("a", nil)),
			err:  executor.ErrMissingInput,
		},
		{
			name: "unknown command",
			plan: domain.NewSerial(
				domain.NewData(payloadOf(1)), domain.NewCommand("unknown", nil),
			),
			err: errUnknown,
		},
		{
			name: "unknown node",
			plan: nil,
			err:  executor.ErrUnknownNode,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec.Execute(ctx, tt.plan, tt.input)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEstimate(t *testing.T) {
	factory := &mockCommandFactory{}
	for _, name := range []string{"deposit", "aggregate"} {
		cmd := newMockCommand(name)
		cmd.On("Estimate", mock.Anything).Return(&ports.Fee{
			ProtocolFee: big.NewInt(2), NetworkFee: big.NewInt(3),
		}, nil)
		factory.On("NewCommand", name, mock.Anything).Return(cmd, nil)
	}

	plan := domain.NewSerial(
		domain.NewParallel(
			domain.NewSerial(
				domain.NewData(payloadOf(1)), domain.NewCommand("deposit", nil),
			),
			domain.NewData(payloadOf(2)),
		),
		domain.NewCommand("aggregate", nil),
	)

	fee, err := newExecutor(t, factory).Estimate(ctx, plan, nil)
	require.NoError(t, err)
	require.Equal(t, "4", fee.ProtocolFee.String())
	require.Equal(t, "6", fee.NetworkFee.String())
	require.Equal(t, "10", fee.Total().String())
}
