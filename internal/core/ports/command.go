package ports

import (
	"context"
	"math/big"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
)

// Fee is the cost of running a command.
type Fee struct {
	ProtocolFee *big.Int `json:"protocol_fee"`
	NetworkFee  *big.Int `json:"network_fee"`
}

func (f Fee) Total() *big.Int {
	total := new(big.Int)
	if f.ProtocolFee != nil {
		total.Add(total, f.ProtocolFee)
	}
	if f.NetworkFee != nil {
		total.Add(total, f.NetworkFee)
	}
	return total
}

// Command is a leaf step of a plan.
type Command interface {
	ID() string
	Name() string
	// Estimate returns the fees of the command without touching chain state.
	Estimate(ctx context.Context) (*Fee, error)
	// Execute runs the command and returns the resulting balances.
	Execute(ctx context.Context) (domain.Payload, error)
}

// CommandFactory builds the command with the given name. Unknown names are
// rejected.
type CommandFactory interface {
	NewCommand(
		id, name string, input domain.Payload, intent *domain.Intent,
	) (Command, error)
}
