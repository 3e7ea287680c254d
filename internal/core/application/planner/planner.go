// Package planner turns a payment intent and the balances available to a
// wallet into a plan tree: the consumed entries are upgraded to notes, which
// are aggregated into the destination note in rounds bounded by the network
// zk-circuit fan-in.
package planner

import (
	"fmt"
	"math/big"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// Plan is the tree of steps satisfying an intent, together with the prefix of
// the available entries it consumes.
type Plan struct {
	Root     domain.PlanNode
	Consumed []domain.BalanceEntry
	Intent   domain.Intent
}

// Commands returns the number of commands of the plan.
func (p Plan) Commands() int {
	return len(domain.Commands(p.Root))
}

func (p Plan) String() string {
	return domain.FormatPlan(p.Root)
}

// Generate returns the plan satisfying the intent with the given entries,
// expected to be already sorted by preference. Entries are consumed greedily
// until their sum covers the intent amount. If all the entries together are
// not enough, domain.ErrInsufficientBalance is returned and no plan is made.
func Generate(
	entries []domain.BalanceEntry, intent domain.Intent, network domain.Network,
) (*Plan, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	if err := network.Validate(); err != nil {
		return nil, err
	}
	if intent.Network != network.Slug {
		return nil, fmt.Errorf(
			"%w: got %s, expected %s", ErrNetworkMismatch, intent.Network,
			network.Slug,
		)
	}
	if len(entries) <= 0 {
		return nil, ErrNoEntries
	}

	consumed, err := selectEntries(entries, intent.Amount)
	if err != nil {
		return nil, err
	}

	upgrades := make([]domain.PlanNode, 0, len(consumed))
	for _, e := range consumed {
		node, err := upgrade(e, network)
		if err != nil {
			return nil, err
		}
		upgrades = append(upgrades, node)
	}

	root, err := reduce(upgrades, network.MaxInputs)
	if err != nil {
		return nil, err
	}

	// Only the last aggregation knows where the funds go and how much change
	// goes back to the sender.
	last, _ := domain.LastCommand(root)
	last.Intent = copyIntent(intent)

	if intent.Recipient.IsRawAddress() {
		items := []domain.PlanNode{
			root,
			domain.NewCommand(domain.CommandAggregatorWithdrawToVault, nil),
			domain.NewCommand(domain.CommandVaultWithdrawToEOA, copyIntent(intent)),
		}
		if intent.RequiresExit() {
			name := domain.CommandExitBridge
			if network.IsNative(intent.Currency) {
				name = domain.CommandExitBridgeNative
			}
			items = append(items, domain.NewCommand(name, copyIntent(intent)))
		}
		root = domain.NewSerial(items...)
	}

	log.Debugf(
		"generated plan for %s consuming %d entries", intent, len(consumed),
	)

	return &Plan{
		Root:     root,
		Consumed: consumed,
		Intent:   *copyIntent(intent),
	}, nil
}

// selectEntries returns the shortest prefix of entries whose balances sum to
// at least amount.
func selectEntries(
	entries []domain.BalanceEntry, amount *big.Int,
) ([]domain.BalanceEntry, error) {
	remaining := new(big.Int).Set(amount)
	for i, e := range entries {
		remaining.Sub(remaining, e.Amount())
		if remaining.Sign() <= 0 {
			consumed := make([]domain.BalanceEntry, i+1)
			copy(consumed, entries[:i+1])
			return consumed, nil
		}
	}

	return nil, fmt.Errorf(
		"%w: missing %s", domain.ErrInsufficientBalance, remaining,
	)
}

// upgrade returns the steps turning the entry into a note held by the
// aggregator.
func upgrade(
	entry domain.BalanceEntry, network domain.Network,
) (domain.PlanNode, error) {
	data := domain.NewData(domain.SinglePayload(entry))

	switch entry.Kind {
	case domain.NoteBalance:
		return data, nil
	case domain.VaultBalance:
		return domain.NewSerial(
			data,
			domain.NewCommand(domain.CommandVaultDepositToAggregator, nil),
		), nil
	case domain.UnifiedContractBalance:
		return domain.NewSerial(
			data,
			domain.NewCommand(domain.CommandCsucDepositToAggregator, nil),
		), nil
	case domain.StealthAddressBalance:
		onboard := domain.CommandVaultOnboardERC20
		if network.IsNative(entry.CurrencyAddress) {
			onboard = domain.CommandVaultOnboardNative
		}
		return domain.NewSerial(
			data,
			domain.NewCommand(onboard, nil),
			domain.NewCommand(domain.CommandVaultDepositToAggregator, nil),
		), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBalanceKind, entry.Kind)
	}
}

// reduce aggregates the items in rounds. In every round the items are split
// in chunks of at most maxInputs: each chunk with more than one item becomes
// an aggregation of its items run in parallel, single item chunks move to the
// next round untouched.
func reduce(items []domain.PlanNode, maxInputs int) (domain.PlanNode, error) {
	if len(items) <= 0 {
		return nil, ErrNoEntries
	}

	var root domain.PlanNode
	if len(items) == 1 {
		root = domain.NewSerial(
			items[0], domain.NewCommand(domain.CommandAggregatorAggregate, nil),
		)
	} else {
		for len(items) > 1 {
			next := make([]domain.PlanNode, 0, len(items)/maxInputs+1)
			for _, c := range chunk(items, maxInputs) {
				if len(c) == 1 {
					next = append(next, c[0])
					continue
				}
				next = append(next, domain.NewSerial(
					domain.NewParallel(c...),
					domain.NewCommand(domain.CommandAggregatorAggregate, nil),
				))
			}
			items = next
		}
		root = items[0]
	}

	last, ok := domain.LastCommand(root)
	if !ok || last.Name != domain.CommandAggregatorAggregate {
		return nil, ErrInvalidReductionRoot
	}
	return root, nil
}

func copyIntent(intent domain.Intent) *domain.Intent {
	intent.Amount = new(big.Int).Set(intent.Amount)
	return &intent
}

func chunk[T any](list []T, size int) [][]T {
	chunks := make([][]T, 0, len(list)/size+1)
	for size < len(list) {
		list, chunks = list[size:], append(chunks, list[0:size:size])
	}
	return append(chunks, list)
}
