package executor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/mathutil"
)

// Estimate returns the sum of the fees of all the commands of the plan. No
// command is executed: every command is estimated with the input its
// predecessor received, as if funds moved along the plan unchanged.
func (e *Executor) Estimate(
	ctx context.Context, node domain.PlanNode, input *domain.Payload,
) (*ports.Fee, error) {
	fee := &ports.Fee{
		ProtocolFee: new(big.Int),
		NetworkFee:  new(big.Int),
	}
	if _, err := e.estimate(ctx, node, input, fee); err != nil {
		return nil, err
	}
	return fee, nil
}

func (e *Executor) estimate(
	ctx context.Context, node domain.PlanNode, input *domain.Payload,
	fee *ports.Fee,
) (*domain.Payload, error) {
	switch n := node.(type) {
	case *domain.DataNode:
		payload := n.Payload
		return &payload, nil
	case *domain.CommandNode:
		if input == nil {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingInput, n.Name, n.ID)
		}
		cmd, err := e.factory.NewCommand(n.ID, n.Name, *input, n.Intent)
		if err != nil {
			return nil, err
		}
		f, err := cmd.Estimate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate %s: %w", n.Name, err)
		}
		if f == nil {
			return input, nil
		}
		fee.ProtocolFee = mathutil.Sum(fee.ProtocolFee, f.ProtocolFee)
		fee.NetworkFee = mathutil.Sum(fee.NetworkFee, f.NetworkFee)
		return input, nil
	case *domain.SerialNode:
		if len(n.Items) <= 0 {
			return nil, ErrEmptySerial
		}
		for _, item := range n.Items {
			out, err := e.estimate(ctx, item, input, fee)
			if err != nil {
				return nil, err
			}
			input = out
		}
		return input, nil
	case *domain.ParallelNode:
		entries := make([]domain.BalanceEntry, 0, len(n.Items))
		for _, item := range n.Items {
			out, err := e.estimate(ctx, item, nil, fee)
			if err != nil {
				return nil, err
			}
			entries = append(entries, out.Entries()...)
		}
		payload := domain.MultiPayload(entries)
		return &payload, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownNode, node)
	}
}
