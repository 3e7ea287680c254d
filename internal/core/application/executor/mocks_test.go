package executor_test

import (
	"context"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockCommandFactory struct {
	mock.Mock
}

func (m *mockCommandFactory) NewCommand(
	id, name string, input domain.Payload, intent *domain.Intent,
) (ports.Command, error) {
	args := m.Called(name, input)
	var res ports.Command
	if a := args.Get(0); a != nil {
		res = a.(ports.Command)
	}
	return res, args.Error(1)
}

type mockCommand struct {
	mock.Mock
	name string
}

func newMockCommand(name string) *mockCommand {
	return &mockCommand{name: name}
}

func (m *mockCommand) ID() string {
	return m.name
}

func (m *mockCommand) Name() string {
	return m.name
}

func (m *mockCommand) Estimate(ctx context.Context) (*ports.Fee, error) {
	args := m.Called(ctx)
	var res *ports.Fee
	if a := args.Get(0); a != nil {
		res = a.(*ports.Fee)
	}
	return res, args.Error(1)
}

func (m *mockCommand) Execute(ctx context.Context) (domain.Payload, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Payload), args.Error(1)
}
